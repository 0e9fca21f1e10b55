// Copyright 2025 The WearSync Authors
// SPDX-License-Identifier: Apache-2.0

// Package logging provides context-based structured logging using the
// standard slog package, so long-lived background work such as change-feed
// listeners inherits the logger of the context that started it.
package logging

import (
	"context"
	"log/slog"
	"os"
)

// contextKey is how we find [*slog.Logger] in a [context.Context].
type contextKey struct{}

// NewContext returns a new [context.Context], derived from ctx, which carries
// the provided [*slog.Logger].
func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the [*slog.Logger] carried by ctx.
//
// If ctx carries no logger, a JSON logger writing to stdout at info level is
// returned, so logging always works even when none was configured.
func FromContext(ctx context.Context) *slog.Logger {
	if v := ctx.Value(contextKey{}); v != nil {
		return v.(*slog.Logger)
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
