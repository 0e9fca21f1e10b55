// Copyright 2025 The WearSync Authors
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"context"
)

// DocumentStore is the gateway to the remote per-key document database
// holding the profile and authorization collections.
type DocumentStore interface {
	// ReadDocument returns the document with the given id, or
	// [ErrDocumentNotFound] if it does not exist.
	ReadDocument(ctx context.Context, collection, id string) (*Document, error)

	// ListDocuments returns all documents in the collection.
	ListDocuments(ctx context.Context, collection string) ([]*Document, error)

	// WriteDocument upserts the whole document with the given id. Partial
	// field patches are not part of this contract.
	WriteDocument(ctx context.Context, collection, id string, data map[string]any) error

	// Subscribe returns a channel delivering change-notification batches for
	// the collection until ctx is canceled, after which the channel is
	// closed. Delivery is at least once.
	Subscribe(ctx context.Context, collection string) (<-chan []ChangeEvent, error)
}
