// Copyright 2025 The WearSync Authors
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"encoding/json"
	"strconv"
)

// asString extracts a string from a decoded document value.
func asString(v any) string {
	s, _ := v.(string)
	return s
}

// asInt64 extracts an integer from a decoded document value. Stores and
// serializers disagree on integer representation, so every common shape is
// accepted.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// asMap extracts a nested document from a decoded document value.
func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}
