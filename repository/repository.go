// Copyright 2025 The WearSync Authors
// SPDX-License-Identifier: Apache-2.0

package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/wearsync/oauthcache/tokenservice"
	"github.com/wearsync/oauthcache/types"
	"github.com/wearsync/oauthcache/usersync"
)

// Repository exposes the consumer-facing credential operations: valid-user
// enumeration and the get/refresh access-token protocol.
//
// The token protocol reads and writes the authorization document directly
// rather than trusting the in-memory cache, because another process may have
// refreshed the credential concurrently. Two processes can still race to
// refresh the same user; the conflict outcome from the token endpoint is the
// accepted mediation, and no per-user lock is taken.
type Repository struct {
	sync           *usersync.Synchronizer
	store          types.DocumentStore
	authCollection string
	tokens         tokenservice.Refresher
	logger         *slog.Logger
}

// ValidUser is one entry of [Repository.ListValidUsers]: a user id and its
// data collection window.
type ValidUser struct {
	UserID    string
	StartDate time.Time
	EndDate   time.Time
}

// New returns a [Repository] over the given synchronizer, store and token
// refresher. authCollection must be the collection the synchronizer watches;
// all credential writes target it.
func New(sync *usersync.Synchronizer, store types.DocumentStore, authCollection string, tokens tokenservice.Refresher, opts ...Option) *Repository {
	r := &Repository{
		sync:           sync,
		store:          store,
		authCollection: authCollection,
		tokens:         tokens,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt.apply(r)
	}
	return r
}

// Option configures a [Repository].
type Option interface {
	apply(r *Repository)
}

type loggerOption struct{ *slog.Logger }

func (o loggerOption) apply(r *Repository) { r.logger = o.Logger }

// WithLogger sets the logger used by the [Repository].
func WithLogger(logger *slog.Logger) Option {
	return loggerOption{logger}
}

// Get returns a copy of the user's cached record, materializing it from the
// store on a cache miss.
func (r *Repository) Get(ctx context.Context, userID string) (*types.UserRecord, error) {
	return r.sync.Get(ctx, userID)
}

// Users returns a snapshot of all currently valid user records.
func (r *Repository) Users() []*types.UserRecord {
	return r.sync.Users()
}

// ListValidUsers returns the ids and collection windows of all currently
// valid users.
func (r *Repository) ListValidUsers() []ValidUser {
	records := r.sync.Users()
	out := make([]ValidUser, 0, len(records))
	for _, rec := range records {
		out = append(out, ValidUser{
			UserID:    rec.ID,
			StartDate: rec.Auth.StartDate,
			EndDate:   rec.Auth.EndDate,
		})
	}
	return out
}

// HasPendingUpdates reports whether the cache changed since the last drain.
func (r *Repository) HasPendingUpdates() bool {
	return r.sync.HasPendingUpdates()
}

// ApplyPendingUpdates drains the pending-updates flag. See
// [usersync.Synchronizer.ApplyPendingUpdates].
func (r *Repository) ApplyPendingUpdates() error {
	return r.sync.ApplyPendingUpdates()
}

// GetAccessToken returns a valid access token for the user, refreshing the
// credential if the stored access token has expired. The authorization
// document is read from the store, not the cache, since another process may
// have refreshed it concurrently.
func (r *Repository) GetAccessToken(ctx context.Context, userID string) (string, error) {
	auth, err := r.readAuthDetails(ctx, userID)
	if err != nil {
		return "", err
	}
	if auth.Credential != nil && !auth.Credential.IsAccessTokenExpired() {
		return auth.Credential.AccessToken, nil
	}
	return r.RefreshAccessToken(ctx, userID)
}

// RefreshAccessToken exchanges the user's refresh token for a new credential,
// persists the credential and the attempt's outcome on the authorization
// document, and returns the new access token. Every failure is recorded on
// the document before it is returned, except a conflicting refresh, whose
// attempt never writes the document back.
func (r *Repository) RefreshAccessToken(ctx context.Context, userID string) (string, error) {
	auth, err := r.readAuthDetails(ctx, userID)
	if err != nil {
		return "", err
	}

	r.logger.InfoContext(ctx, "refreshing token", slog.String("user_id", userID))
	if !auth.Credential.HasRefreshToken() {
		return "", types.NewAuthError(types.KindUnauthorized, nil,
			"the user does not have a refresh token")
	}

	cred, err := r.tokens.RefreshToken(ctx, auth.Credential.RefreshToken)
	if err != nil {
		return "", r.recordFailure(ctx, userID, auth, err)
	}

	if !sanityCheck(userID, cred) {
		outcome := types.NewAuthOutcome(http.StatusInternalServerError,
			"the auth data or user data was not valid",
			"an error occurred when trying to validate auth data")
		auth.LastOutcome = outcome
		r.persist(ctx, userID, auth)
		return "", types.NewAuthError(types.KindValidation, outcome,
			"refreshed credential failed validation")
	}

	auth.Credential = cred
	auth.LastOutcome = types.NewOKOutcome()
	if err := r.persist(ctx, userID, auth); err != nil {
		return "", fmt.Errorf("persist refreshed credential: %w", err)
	}
	r.logger.DebugContext(ctx, "token refreshed", slog.String("user_id", userID))
	return cred.AccessToken, nil
}

// recordFailure persists the failed attempt's outcome on the authorization
// document and returns the error the consumer sees. A conflicting refresh
// means another process holds the fresher credential; this attempt's stale
// view of the document is never written back, and the conflict is surfaced
// as unauthorized.
func (r *Repository) recordFailure(ctx context.Context, userID string, auth *types.AuthorizationDetails, err error) error {
	ae, ok := types.AsAuthError(err)
	if !ok {
		return err
	}

	switch ae.Kind {
	case types.KindConflictingRefresh:
		if ae.Outcome != nil && ae.Outcome.StatusCode == http.StatusConflict {
			r.logger.InfoContext(ctx, "conflicting token refresh, not persisting this attempt",
				slog.String("user_id", userID),
			)
		} else {
			auth.LastOutcome = ae.Outcome
			r.persist(ctx, userID, auth)
		}
		return types.NewAuthError(types.KindUnauthorized, ae.Outcome,
			"failed to refresh token: "+ae.Message)
	default:
		auth.LastOutcome = ae.Outcome
		r.persist(ctx, userID, auth)
		return ae
	}
}

// readAuthDetails fetches and decodes the user's authorization document.
func (r *Repository) readAuthDetails(ctx context.Context, userID string) (*types.AuthorizationDetails, error) {
	doc, err := r.store.ReadDocument(ctx, r.authCollection, userID)
	if errors.Is(err, types.ErrDocumentNotFound) {
		return nil, fmt.Errorf("user %q: %w", userID, types.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read authorization document: %w", err)
	}
	return types.DecodeAuthorizationDetails(doc.Data), nil
}

// persist writes the authorization document back. Writes never target the
// profile document. A failed outcome write is logged but does not mask the
// authorization error being surfaced.
func (r *Repository) persist(ctx context.Context, userID string, auth *types.AuthorizationDetails) error {
	err := r.store.WriteDocument(ctx, r.authCollection, userID, types.EncodeAuthorizationDetails(auth))
	if err != nil {
		r.logger.ErrorContext(ctx, "could not persist authorization details",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}
	return err
}

// sanityCheck validates a refreshed credential before it is persisted.
func sanityCheck(userID string, cred *types.Credential) bool {
	return userID != "" &&
		cred != nil &&
		cred.HasRefreshToken() &&
		cred.AccessToken != ""
}
