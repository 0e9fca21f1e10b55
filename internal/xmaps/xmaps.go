// Copyright 2025 The WearSync Authors
// SPDX-License-Identifier: Apache-2.0

// Package xmaps provides small map helpers missing from the standard maps
// package.
package xmaps

import (
	"cmp"
)

// Contains reports whether key exists in m.
func Contains[Map ~map[K]V, K cmp.Ordered, V any](m Map, key K) bool {
	_, ok := m[key]
	return ok
}
