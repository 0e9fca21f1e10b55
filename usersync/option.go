// Copyright 2025 The WearSync Authors
// SPDX-License-Identifier: Apache-2.0

package usersync

import (
	"log/slog"
)

// Option configures a [Synchronizer].
type Option interface {
	apply(s *Synchronizer)
}

type loggerOption struct{ *slog.Logger }

func (o loggerOption) apply(s *Synchronizer) { s.logger = o.Logger }

// WithLogger sets the logger used by the [Synchronizer].
func WithLogger(logger *slog.Logger) Option {
	return loggerOption{logger}
}
