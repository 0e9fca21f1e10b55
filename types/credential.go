// Copyright 2025 The WearSync Authors
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"time"
)

// Store field names for [Credential].
const (
	fieldAccessToken  = "access_token"
	fieldRefreshToken = "refresh_token"
	fieldExpiresAt    = "expires_at"
)

// Credential is an OAuth2 access/refresh token pair for a single user.
type Credential struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// HasRefreshToken reports whether the credential carries a refresh token.
func (c *Credential) HasRefreshToken() bool {
	return c != nil && c.RefreshToken != ""
}

// IsAccessTokenExpired reports whether the access token has reached its expiry.
func (c *Credential) IsAccessTokenExpired() bool {
	return c == nil || !time.Now().Before(c.ExpiresAt)
}

// EncodeCredential maps a [Credential] to its store document representation.
// Expiry is stored as epoch milliseconds.
func EncodeCredential(c *Credential) map[string]any {
	if c == nil {
		return nil
	}
	return map[string]any{
		fieldAccessToken:  c.AccessToken,
		fieldRefreshToken: c.RefreshToken,
		fieldExpiresAt:    c.ExpiresAt.UnixMilli(),
	}
}

// DecodeCredential rebuilds a [Credential] from its store document
// representation. It returns nil if data is nil.
func DecodeCredential(data map[string]any) *Credential {
	if data == nil {
		return nil
	}
	c := &Credential{
		AccessToken:  asString(data[fieldAccessToken]),
		RefreshToken: asString(data[fieldRefreshToken]),
	}
	if millis, ok := asInt64(data[fieldExpiresAt]); ok {
		c.ExpiresAt = time.UnixMilli(millis)
	}
	return c
}
