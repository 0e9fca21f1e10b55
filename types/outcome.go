// Copyright 2025 The WearSync Authors
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"fmt"
	"net/http"
	"time"
)

// Store field names for [AuthOutcome].
const (
	fieldHTTPCode         = "http_code"
	fieldErrorMessage     = "error_message"
	fieldErrorDescription = "error_description"
	fieldTime             = "time"
)

// AuthOutcome records the result of the most recent authorization attempt for
// a user. A fresh value is constructed for every attempt; existing values are
// never mutated.
type AuthOutcome struct {
	StatusCode  int
	Message     string
	ErrorDetail string
	Timestamp   time.Time
}

// NewAuthOutcome returns an [AuthOutcome] for the given status stamped with
// the current time.
func NewAuthOutcome(statusCode int, message, errorDetail string) *AuthOutcome {
	return &AuthOutcome{
		StatusCode:  statusCode,
		Message:     message,
		ErrorDetail: errorDetail,
		Timestamp:   time.Now(),
	}
}

// NewOKOutcome returns the outcome recorded after a successful authorization
// attempt.
func NewOKOutcome() *AuthOutcome {
	return NewAuthOutcome(http.StatusOK, "", "")
}

// OK reports whether the outcome denotes a successful attempt.
func (o *AuthOutcome) OK() bool {
	return o == nil || o.StatusCode == http.StatusOK
}

// String implements [fmt.Stringer].
func (o *AuthOutcome) String() string {
	return fmt.Sprintf("AuthOutcome{code=%d, message=%q, detail=%q, time=%s}",
		o.StatusCode, o.Message, o.ErrorDetail, o.Timestamp.Format(time.RFC3339))
}

// EncodeAuthOutcome maps an [AuthOutcome] to its store document
// representation.
func EncodeAuthOutcome(o *AuthOutcome) map[string]any {
	if o == nil {
		return nil
	}
	return map[string]any{
		fieldHTTPCode:         int64(o.StatusCode),
		fieldErrorMessage:     o.Message,
		fieldErrorDescription: o.ErrorDetail,
		fieldTime:             o.Timestamp.UnixMilli(),
	}
}

// DecodeAuthOutcome rebuilds an [AuthOutcome] from its store document
// representation. It returns nil if data is nil.
func DecodeAuthOutcome(data map[string]any) *AuthOutcome {
	if data == nil {
		return nil
	}
	o := &AuthOutcome{
		Message:     asString(data[fieldErrorMessage]),
		ErrorDetail: asString(data[fieldErrorDescription]),
	}
	if code, ok := asInt64(data[fieldHTTPCode]); ok {
		o.StatusCode = int(code)
	}
	if millis, ok := asInt64(data[fieldTime]); ok {
		o.Timestamp = time.UnixMilli(millis)
	}
	return o
}
