// Copyright 2025 The WearSync Authors
// SPDX-License-Identifier: Apache-2.0

// Package types defines the data model shared across the credential cache:
// user records, OAuth2 credentials, authorization outcomes, the document
// store gateway contract and the authorization error taxonomy.
//
// Every entity that lives in the store has a pair of explicit encode/decode
// functions colocated with it, mapping between in-memory field names and
// store field names. There is no reflective or annotation-driven
// serialization.
package types
