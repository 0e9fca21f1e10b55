// Copyright 2025 The WearSync Authors
// SPDX-License-Identifier: Apache-2.0

package inmemory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/wearsync/oauthcache/store/inmemory"
	"github.com/wearsync/oauthcache/types"
)

func TestStore_ReadWrite(t *testing.T) {
	store := inmemory.New()
	ctx := t.Context()

	if _, err := store.ReadDocument(ctx, "auth", "u1"); !errors.Is(err, types.ErrDocumentNotFound) {
		t.Fatalf("read of missing document: %v, want ErrDocumentNotFound", err)
	}

	data := map[string]any{"source_id": "s1", "version": int64(1)}
	if err := store.WriteDocument(ctx, "auth", "u1", data); err != nil {
		t.Fatalf("WriteDocument: %v", err)
	}

	doc, err := store.ReadDocument(ctx, "auth", "u1")
	if err != nil {
		t.Fatalf("ReadDocument: %v", err)
	}
	if doc.ID != "u1" {
		t.Errorf("doc id = %q", doc.ID)
	}
	if got := doc.Data["source_id"]; got != "s1" {
		t.Errorf("source_id = %v", got)
	}

	// Returned data must not alias the stored document.
	doc.Data["source_id"] = "tampered"
	doc2, err := store.ReadDocument(ctx, "auth", "u1")
	if err != nil {
		t.Fatalf("ReadDocument: %v", err)
	}
	if got := doc2.Data["source_id"]; got != "s1" {
		t.Errorf("stored document was mutated through a read: %v", got)
	}
}

func TestStore_ListDocuments(t *testing.T) {
	store := inmemory.New()
	ctx := t.Context()

	for _, id := range []string{"u1", "u2", "u3"} {
		if err := store.WriteDocument(ctx, "auth", id, map[string]any{"id": id}); err != nil {
			t.Fatalf("WriteDocument(%s): %v", id, err)
		}
	}
	docs, err := store.ListDocuments(ctx, "auth")
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 3 {
		t.Errorf("len(docs) = %d, want 3", len(docs))
	}

	empty, err := store.ListDocuments(ctx, "unknown")
	if err != nil {
		t.Fatalf("ListDocuments(unknown): %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("unknown collection returned %d documents", len(empty))
	}
}

func TestStore_Subscribe(t *testing.T) {
	store := inmemory.New()
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	events, err := store.Subscribe(ctx, "auth")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	if err := store.WriteDocument(ctx, "auth", "u1", map[string]any{"v": int64(1)}); err != nil {
		t.Fatalf("WriteDocument: %v", err)
	}
	if err := store.WriteDocument(ctx, "auth", "u1", map[string]any{"v": int64(2)}); err != nil {
		t.Fatalf("WriteDocument: %v", err)
	}
	if err := store.DeleteDocument(ctx, "auth", "u1"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}

	want := []types.ChangeKind{types.ChangeAdded, types.ChangeModified, types.ChangeRemoved}
	var got []types.ChangeKind
	timeout := time.After(2 * time.Second)
	for len(got) < len(want) {
		select {
		case batch := <-events:
			for _, ev := range batch {
				if ev.Document.ID != "u1" {
					t.Errorf("event for unexpected document %q", ev.Document.ID)
				}
				got = append(got, ev.Kind)
			}
		case <-timeout:
			t.Fatalf("timed out, received %v", got)
		}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("event kinds (-want +got):\n%s", diff)
	}

	cancel()
	for {
		if _, ok := <-events; !ok {
			break
		}
	}
}

func TestStore_SubscribeOtherCollectionSilent(t *testing.T) {
	store := inmemory.New()
	ctx := t.Context()

	events, err := store.Subscribe(ctx, "auth")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := store.WriteDocument(ctx, "profiles", "u1", map[string]any{}); err != nil {
		t.Fatalf("WriteDocument: %v", err)
	}

	select {
	case batch := <-events:
		t.Errorf("received events %v for a collection not subscribed to", batch)
	case <-time.After(100 * time.Millisecond):
	}
}
