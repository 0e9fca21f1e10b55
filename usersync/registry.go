// Copyright 2025 The WearSync Authors
// SPDX-License-Identifier: Apache-2.0

package usersync

import (
	"context"
	"log/slog"
	"sync"

	"github.com/wearsync/oauthcache/types"
)

// Registry hands out a shared [Synchronizer] keyed by the configuration
// fingerprint, so repeated instantiations of the consumer do not open
// redundant change-feed subscriptions.
type Registry struct {
	store  types.DocumentStore
	logger *slog.Logger

	mu          sync.Mutex
	fingerprint Fingerprint
	instance    *Synchronizer
}

// NewRegistry returns a [Registry] constructing synchronizers over store.
func NewRegistry(store types.DocumentStore, opts ...RegistryOption) *Registry {
	r := &Registry{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt.apply(r)
	}
	return r
}

// RegistryOption configures a [Registry].
type RegistryOption interface {
	apply(r *Registry)
}

type registryLoggerOption struct{ *slog.Logger }

func (o registryLoggerOption) apply(r *Registry) { r.logger = o.Logger }

// WithRegistryLogger sets the logger used by the [Registry] and the
// synchronizers it constructs.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return registryLoggerOption{logger}
}

// GetInstance returns the shared synchronizer for cfg. The existing instance
// is reused iff the identity-relevant configuration is unchanged since its
// construction; otherwise a new instance is constructed, the previous one is
// closed and the shared reference is replaced. Construction failures
// propagate and leave any previous instance in place.
func (r *Registry) GetInstance(ctx context.Context, cfg Config) (*Synchronizer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fp := cfg.Fingerprint()
	if r.instance != nil && r.fingerprint == fp {
		return r.instance, nil
	}

	s, err := New(ctx, r.store, cfg, WithLogger(r.logger))
	if err != nil {
		return nil, err
	}
	if r.instance != nil {
		r.logger.InfoContext(ctx, "configuration changed, replacing shared synchronizer")
		if cerr := r.instance.Close(); cerr != nil {
			r.logger.WarnContext(ctx, "closing previous synchronizer",
				slog.Any("error", cerr),
			)
		}
	}
	r.instance, r.fingerprint = s, fp
	return s, nil
}

// Close shuts down the shared instance, if any.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.instance == nil {
		return nil
	}
	err := r.instance.Close()
	r.instance, r.fingerprint = nil, ""
	return err
}
