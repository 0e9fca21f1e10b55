// Copyright 2025 The WearSync Authors
// SPDX-License-Identifier: Apache-2.0

// Package usersync implements the credential cache and its synchronization
// with the document store's change feed, plus the registry that shares one
// synchronizer per configuration fingerprint.
//
// The cache holds only records that pass the validity filter: the record is
// complete, its user id passes the allow and deny lists, and its last
// authorization outcome (if any) was a success. The change-feed consumer
// goroutine is the single writer of the cache; reads are served concurrently
// at all times, and no network I/O happens while the cache lock is held.
package usersync
