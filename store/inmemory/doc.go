// Copyright 2025 The WearSync Authors
// SPDX-License-Identifier: Apache-2.0

// Package inmemory provides an in-memory document store with a change feed,
// suitable for tests and local development.
package inmemory
