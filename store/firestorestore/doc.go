// Copyright 2025 The WearSync Authors
// SPDX-License-Identifier: Apache-2.0

// Package firestorestore adapts Google Cloud Firestore to the document store
// gateway, with snapshot listeners backing the change feed.
package firestorestore
