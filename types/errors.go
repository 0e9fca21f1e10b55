// Copyright 2025 The WearSync Authors
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"errors"
	"fmt"
)

var (
	// ErrDocumentNotFound is returned by [DocumentStore.ReadDocument] when
	// the requested document does not exist.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrUserNotFound is returned when a user is absent from both the cache
	// and the backing store, or its backing documents are invalid.
	ErrUserNotFound = errors.New("user not found")

	// ErrNoPendingUpdates is returned when pending updates are drained while
	// none are available. Callers are expected to check for pending updates
	// first; draining a clean state is a programming error, not a transient
	// condition.
	ErrNoPendingUpdates = errors.New("no pending updates available")
)

// ErrorKind tags an [AuthError] with the class of authorization failure.
type ErrorKind int

const (
	// KindUnauthorized: the authorization server rejected the refresh token.
	// Terminal for this credential until the user re-authorizes out of band.
	KindUnauthorized ErrorKind = iota
	// KindConflictingRefresh: another process refreshed the token first.
	// Not terminal; this attempt's outcome is stale and must not clobber a
	// concurrent, possibly successful, refresh.
	KindConflictingRefresh
	// KindRemoteHTTP: any other non-2xx response from the authorization
	// server.
	KindRemoteHTTP
	// KindTransport: a network or I/O failure before a response was read.
	KindTransport
	// KindValidation: the refreshed credential or the user data failed the
	// local sanity check.
	KindValidation
)

// String implements [fmt.Stringer].
func (k ErrorKind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindConflictingRefresh:
		return "conflicting_refresh"
	case KindRemoteHTTP:
		return "remote_http_error"
	case KindTransport:
		return "transport_error"
	case KindValidation:
		return "validation_failure"
	default:
		return "unknown"
	}
}

// AuthError is a refresh-path failure carrying the [AuthOutcome] to persist
// on the user's authorization document. Callers match on Kind instead of
// concrete transport or store errors.
type AuthError struct {
	Kind    ErrorKind
	Outcome *AuthOutcome
	Message string
	Err     error
}

// NewAuthError returns an [AuthError] of the given kind.
func NewAuthError(kind ErrorKind, outcome *AuthOutcome, message string) *AuthError {
	return &AuthError{Kind: kind, Outcome: outcome, Message: message}
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause, if any.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// AsAuthError unwraps err into an [AuthError], if it is one.
func AsAuthError(err error) (*AuthError, bool) {
	var ae *AuthError
	ok := errors.As(err, &ae)
	return ae, ok
}

// IsUnauthorized reports whether err is an [AuthError] of kind
// [KindUnauthorized].
func IsUnauthorized(err error) bool {
	ae, ok := AsAuthError(err)
	return ok && ae.Kind == KindUnauthorized
}
