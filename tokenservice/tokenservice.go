// Copyright 2025 The WearSync Authors
// SPDX-License-Identifier: Apache-2.0

package tokenservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/wearsync/oauthcache/types"
)

// Service executes the OAuth2 refresh-token grant against a remote
// authorization server's token endpoint.
type Service struct {
	conf   *oauth2.Config
	logger *slog.Logger
}

var _ Refresher = (*Service)(nil)

// Refresher is the token-refresh contract consumed by the user repository.
type Refresher interface {
	// RefreshToken exchanges a refresh token for a fresh credential.
	// Failures are surfaced as [*types.AuthError]: [types.KindUnauthorized]
	// when the server rejected the token, [types.KindConflictingRefresh]
	// when another process refreshed it first, [types.KindRemoteHTTP] for
	// any other non-2xx response and [types.KindTransport] for network
	// failures.
	RefreshToken(ctx context.Context, refreshToken string) (*types.Credential, error)
}

// New returns a [Service] for the given OAuth2 client against tokenURL.
func New(clientID, clientSecret, tokenURL string, opts ...Option) *Service {
	s := &Service{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt.apply(s)
	}
	return s
}

// Option configures a [Service].
type Option interface {
	apply(s *Service)
}

type loggerOption struct{ *slog.Logger }

func (o loggerOption) apply(s *Service) { s.logger = o.Logger }

// WithLogger sets the logger used by the [Service].
func WithLogger(logger *slog.Logger) Option {
	return loggerOption{logger}
}

// RefreshToken implements [Refresher].
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*types.Credential, error) {
	// Seed the token source with an already-expired token so it performs
	// the refresh grant immediately.
	seed := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-time.Hour),
	}
	tok, err := s.conf.TokenSource(ctx, seed).Token()
	if err != nil {
		return nil, s.refreshError(ctx, err)
	}

	s.logger.DebugContext(ctx, "token refreshed")

	// The token source keeps the previous refresh token when the server
	// omits one from the response.
	return &types.Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}, nil
}

// refreshError maps a token-source failure onto the authorization error
// taxonomy.
func (s *Service) refreshError(ctx context.Context, err error) error {
	var rerr *oauth2.RetrieveError
	if !errors.As(err, &rerr) || rerr.Response == nil {
		outcome := types.NewAuthOutcome(http.StatusInternalServerError, err.Error(),
			"a transport error occurred when trying to refresh the token")
		return &types.AuthError{
			Kind:    types.KindTransport,
			Outcome: outcome,
			Message: "token endpoint unreachable",
			Err:     err,
		}
	}

	status := rerr.Response.StatusCode
	outcome := types.NewAuthOutcome(status, retrieveMessage(rerr), rerr.ErrorDescription)
	s.logger.WarnContext(ctx, "token refresh rejected",
		slog.Int("status", status),
		slog.String("error_code", rerr.ErrorCode),
	)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &types.AuthError{
			Kind:    types.KindUnauthorized,
			Outcome: outcome,
			Message: "the authorization server rejected the refresh token",
			Err:     err,
		}
	case status == http.StatusBadRequest && rerr.ErrorCode == "invalid_grant":
		// Revoked or already-rotated refresh tokens commonly surface as
		// invalid_grant on a 400.
		return &types.AuthError{
			Kind:    types.KindUnauthorized,
			Outcome: outcome,
			Message: "the refresh token is invalid or revoked",
			Err:     err,
		}
	case status == http.StatusConflict:
		return &types.AuthError{
			Kind:    types.KindConflictingRefresh,
			Outcome: outcome,
			Message: "another process already refreshed this token",
			Err:     err,
		}
	default:
		return &types.AuthError{
			Kind:    types.KindRemoteHTTP,
			Outcome: outcome,
			Message: fmt.Sprintf("token endpoint returned status %d", status),
			Err:     err,
		}
	}
}

// retrieveMessage extracts a short human-readable message from a token
// endpoint error response.
func retrieveMessage(rerr *oauth2.RetrieveError) string {
	if rerr.ErrorCode != "" {
		return rerr.ErrorCode
	}
	if body := strings.TrimSpace(string(rerr.Body)); body != "" {
		return body
	}
	return rerr.Response.Status
}
