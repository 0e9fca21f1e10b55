// Copyright 2025 The WearSync Authors
// SPDX-License-Identifier: Apache-2.0

// Package oauthcache maintains a live, queryable cache of third-party OAuth2
// user credentials, keeps it synchronized with a change-notifying document
// store, and drives the OAuth2 refresh-token grant against a remote
// authorization server, including concurrency-safe handling of refresh races
// and revocation.
package oauthcache

// Version is the version of the oauthcache module.
var Version = "v0.0.0"
