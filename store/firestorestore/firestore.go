// Copyright 2025 The WearSync Authors
// SPDX-License-Identifier: Apache-2.0

package firestorestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/wearsync/oauthcache/pkg/logging"
	"github.com/wearsync/oauthcache/types"
)

// Store adapts a Firestore database to the [types.DocumentStore] contract.
// Change feeds are backed by Firestore snapshot listeners.
type Store struct {
	client *firestore.Client
}

var _ types.DocumentStore = (*Store)(nil)

// New returns a [Store] over the Firestore database of the given project.
func New(ctx context.Context, projectID string, opts ...option.ClientOption) (*Store, error) {
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return &Store{client: client}, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// ReadDocument implements [types.DocumentStore].
func (s *Store) ReadDocument(ctx context.Context, collection, id string) (*types.Document, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, types.ErrDocumentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s/%s: %w", collection, id, err)
	}
	return &types.Document{ID: snap.Ref.ID, Data: snap.Data()}, nil
}

// ListDocuments implements [types.DocumentStore].
func (s *Store) ListDocuments(ctx context.Context, collection string) ([]*types.Document, error) {
	var docs []*types.Document
	iter := s.client.Collection(collection).Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return docs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("list collection %s: %w", collection, err)
		}
		docs = append(docs, &types.Document{ID: snap.Ref.ID, Data: snap.Data()})
	}
}

// WriteDocument implements [types.DocumentStore].
func (s *Store) WriteDocument(ctx context.Context, collection, id string, data map[string]any) error {
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, data); err != nil {
		return fmt.Errorf("write document %s/%s: %w", collection, id, err)
	}
	return nil
}

// Subscribe implements [types.DocumentStore]. Each query snapshot's changes
// are delivered as one batch. Note that Firestore replays the current
// collection contents as added changes on the first snapshot.
func (s *Store) Subscribe(ctx context.Context, collection string) (<-chan []types.ChangeEvent, error) {
	snaps := s.client.Collection(collection).Snapshots(ctx)
	ch := make(chan []types.ChangeEvent, 1)

	go func() {
		logger := logging.FromContext(ctx)
		defer close(ch)
		defer snaps.Stop()
		for {
			qs, err := snaps.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					logger.ErrorContext(ctx, "listen for updates failed",
						slog.String("collection", collection),
						slog.Any("error", err),
					)
				}
				return
			}
			batch := make([]types.ChangeEvent, 0, len(qs.Changes))
			for _, change := range qs.Changes {
				batch = append(batch, types.ChangeEvent{
					Kind:     changeKind(change.Kind),
					Document: &types.Document{ID: change.Doc.Ref.ID, Data: change.Doc.Data()},
				})
			}
			if len(batch) == 0 {
				continue
			}
			select {
			case ch <- batch:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

func changeKind(kind firestore.DocumentChangeKind) types.ChangeKind {
	switch kind {
	case firestore.DocumentAdded:
		return types.ChangeAdded
	case firestore.DocumentModified:
		return types.ChangeModified
	case firestore.DocumentRemoved:
		return types.ChangeRemoved
	default:
		return types.ChangeModified
	}
}
