// Copyright 2025 The WearSync Authors
// SPDX-License-Identifier: Apache-2.0

// Package tokenservice implements the OAuth2 refresh-token grant and maps
// token endpoint responses onto the authorization error taxonomy.
package tokenservice
