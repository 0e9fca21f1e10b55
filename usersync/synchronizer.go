// Copyright 2025 The WearSync Authors
// SPDX-License-Identifier: Apache-2.0

package usersync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/wearsync/oauthcache/internal/xmaps"
	"github.com/wearsync/oauthcache/types"
)

// Synchronizer owns the in-memory map from user id to [types.UserRecord] and
// keeps it synchronized with the authorization collection's change feed. The
// feed consumer goroutine is the single writer of the cache; consumer-facing
// reads never block on feed processing.
type Synchronizer struct {
	store             types.DocumentStore
	profileCollection string
	authCollection    string
	allowed           map[string]struct{}
	excluded          map[string]struct{}
	fingerprint       Fingerprint

	mu     sync.RWMutex
	cached map[string]*types.UserRecord

	pending atomic.Bool

	cancel context.CancelFunc
	group  errgroup.Group

	logger *slog.Logger
}

// New constructs a [Synchronizer] for the given config: it loads the current
// contents of the authorization collection, opens one change-feed
// subscription and starts the feed consumer. The caller owns the instance and
// must Close it; use [Registry.GetInstance] to share one instance per
// configuration fingerprint.
func New(ctx context.Context, store types.DocumentStore, cfg Config, opts ...Option) (*Synchronizer, error) {
	s := &Synchronizer{
		store:             store,
		profileCollection: cfg.ProfileCollection,
		authCollection:    cfg.AuthCollection,
		allowed:           toSet(cfg.AllowedUsers),
		excluded:          toSet(cfg.ExcludedUsers),
		fingerprint:       cfg.Fingerprint(),
		cached:            make(map[string]*types.UserRecord),
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		opt.apply(s)
	}

	if err := s.loadAll(ctx); err != nil {
		return nil, fmt.Errorf("load authorization collection: %w", err)
	}
	// The first drain after startup must observe updates so downstream
	// offsets are committed at least once.
	s.pending.Store(true)

	// The subscription outlives the construction context; Close is its
	// lifecycle.
	feedCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	events, err := store.Subscribe(feedCtx, cfg.AuthCollection)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe to authorization collection: %w", err)
	}
	s.cancel = cancel
	s.group.Go(func() error {
		s.consume(feedCtx, events)
		return nil
	})
	s.logger.Info("subscribed to authorization collection for real-time updates",
		slog.String("collection", cfg.AuthCollection),
	)

	return s, nil
}

// Close stops the change-feed subscription and waits for the consumer to
// drain.
func (s *Synchronizer) Close() error {
	s.cancel()
	return s.group.Wait()
}

// Get returns a copy of the user's record. On a cache miss the record is
// materialized from a point read of the backing documents, not from the
// change feed; [types.ErrUserNotFound] is returned only when those documents
// are absent or invalid.
func (s *Synchronizer) Get(ctx context.Context, id string) (*types.UserRecord, error) {
	s.mu.RLock()
	rec, ok := s.cached[id]
	s.mu.RUnlock()
	if ok {
		return rec.Clone(), nil
	}

	s.logger.WarnContext(ctx, "requested user not found in cache, materializing from store",
		slog.String("user_id", id),
	)
	doc, err := s.store.ReadDocument(ctx, s.authCollection, id)
	if errors.Is(err, types.ErrDocumentNotFound) {
		return nil, types.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	rec, err = s.buildUser(ctx, doc)
	if err != nil {
		return nil, err
	}
	if !s.isValid(rec) {
		return nil, types.ErrUserNotFound
	}
	// Cache population stays the feed consumer's job; a point read must not
	// bypass the single-writer region.
	return rec, nil
}

// Users returns a snapshot of all currently valid user records. The returned
// records are copies; mutating them does not affect the cache.
func (s *Synchronizer) Users() []*types.UserRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.UserRecord, 0, len(s.cached))
	for _, rec := range s.cached {
		out = append(out, rec.Clone())
	}
	return out
}

// HasPendingUpdates reports whether the cache changed since the last drain.
func (s *Synchronizer) HasPendingUpdates() bool {
	return s.pending.Load()
}

// ApplyPendingUpdates clears the pending-updates flag. It returns
// [types.ErrNoPendingUpdates] when no updates are available; callers must
// check [Synchronizer.HasPendingUpdates] first.
func (s *Synchronizer) ApplyPendingUpdates() error {
	if !s.pending.CompareAndSwap(true, false) {
		return types.ErrNoPendingUpdates
	}
	return nil
}

// loadAll populates the cache from a full read of the authorization
// collection. Only used during construction, before the feed consumer
// starts.
func (s *Synchronizer) loadAll(ctx context.Context) error {
	docs, err := s.store.ListDocuments(ctx, s.authCollection)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		rec, err := s.buildUser(ctx, doc)
		if err != nil {
			s.logger.ErrorContext(ctx, "could not load user",
				slog.String("user_id", doc.ID),
				slog.Any("error", err),
			)
			continue
		}
		if s.isValid(rec) {
			s.cached[rec.ID] = rec
		}
	}
	return nil
}

// consume applies change-feed batches until the channel closes. It is the
// single writer of the cache map.
func (s *Synchronizer) consume(ctx context.Context, events <-chan []types.ChangeEvent) {
	for batch := range events {
		s.applyBatch(ctx, batch)
	}
}

// mutation is one cache change computed from a feed event.
type mutation struct {
	id     string
	record *types.UserRecord // nil means evict
}

// applyBatch processes one feed batch in two phases: records are rebuilt
// (which reads the profile collection) before the lock is taken, then all
// mutations are applied under a single critical section. A failure on one
// event never aborts the rest of the batch.
func (s *Synchronizer) applyBatch(ctx context.Context, batch []types.ChangeEvent) {
	s.logger.DebugContext(ctx, "processing change-feed batch", slog.Int("events", len(batch)))

	muts := make([]mutation, 0, len(batch))
	for _, ev := range batch {
		switch ev.Kind {
		case types.ChangeAdded, types.ChangeModified:
			rec, err := s.buildUser(ctx, ev.Document)
			if err != nil {
				s.logger.ErrorContext(ctx, "could not process change event",
					slog.String("user_id", ev.Document.ID),
					slog.String("type", ev.Kind.String()),
					slog.Any("error", err),
				)
				continue
			}
			if s.isValid(rec) {
				muts = append(muts, mutation{id: ev.Document.ID, record: rec})
			} else {
				s.logger.InfoContext(ctx, "user no longer valid, evicting if cached",
					slog.String("user_id", ev.Document.ID),
				)
				muts = append(muts, mutation{id: ev.Document.ID})
			}
		case types.ChangeRemoved:
			muts = append(muts, mutation{id: ev.Document.ID})
		}
	}

	changed := false
	s.mu.Lock()
	for _, m := range muts {
		if m.record == nil {
			if _, ok := s.cached[m.id]; ok {
				delete(s.cached, m.id)
				changed = true
				s.logger.InfoContext(ctx, "removed user", slog.String("user_id", m.id))
			}
			continue
		}
		if _, ok := s.cached[m.id]; ok {
			s.logger.InfoContext(ctx, "updated existing user", slog.String("user_id", m.id))
		} else {
			s.logger.InfoContext(ctx, "created new user", slog.String("user_id", m.id))
		}
		s.cached[m.id] = m.record
		changed = true
	}
	s.mu.Unlock()

	if changed {
		s.pending.Store(true)
	}
}

// buildUser materializes a [types.UserRecord] from an authorization document
// and a fresh read of its companion profile document. It returns a nil record
// without error when the document cannot back a user (no oauth field, no
// credential).
func (s *Synchronizer) buildUser(ctx context.Context, authDoc *types.Document) (*types.UserRecord, error) {
	if _, ok := authDoc.Data[types.OAuthKey]; !ok {
		s.logger.WarnContext(ctx, "authorization document has no oauth field, skipping",
			slog.String("user_id", authDoc.ID),
		)
		return nil, nil
	}

	auth := types.DecodeAuthorizationDetails(authDoc.Data)
	if auth.Credential == nil {
		s.logger.WarnContext(ctx, "authorization details are not valid, skipping",
			slog.String("user_id", authDoc.ID),
		)
		return nil, nil
	}

	profile := types.NewProfileDetails()
	profileDoc, err := s.store.ReadDocument(ctx, s.profileCollection, authDoc.ID)
	switch {
	case errors.Is(err, types.ErrDocumentNotFound):
		// No profile document yet; the default project applies.
	case err != nil:
		return nil, fmt.Errorf("read profile document: %w", err)
	default:
		profile = types.DecodeProfileDetails(profileDoc.Data)
	}

	return &types.UserRecord{
		ID:      authDoc.ID,
		Profile: profile,
		Auth:    auth,
	}, nil
}

// isValid is the validity filter deciding whether a record belongs in the
// served cache: the record is complete, passes the allow and deny lists, and
// its last authorization outcome, if any, was a success.
func (s *Synchronizer) isValid(rec *types.UserRecord) bool {
	return rec != nil &&
		rec.IsComplete() &&
		(len(s.allowed) == 0 || xmaps.Contains(s.allowed, rec.ID)) &&
		(len(s.excluded) == 0 || !xmaps.Contains(s.excluded, rec.ID)) &&
		rec.Auth.LastOutcome.OK()
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
