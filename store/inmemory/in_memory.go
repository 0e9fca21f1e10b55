// Copyright 2025 The WearSync Authors
// SPDX-License-Identifier: Apache-2.0

package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/wearsync/oauthcache/types"
)

// Store is an in-memory implementation of [types.DocumentStore] with a
// change feed. Documents are held serialized, so readers and writers can
// never share map memory with the store.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string][]byte
	subs        map[string]map[int]*subscription
	nextSubID   int
}

var _ types.DocumentStore = (*Store)(nil)

// New returns an empty [Store].
func New() *Store {
	return &Store{
		collections: make(map[string]map[string][]byte),
		subs:        make(map[string]map[int]*subscription),
	}
}

// ReadDocument implements [types.DocumentStore].
func (s *Store) ReadDocument(ctx context.Context, collection, id string) (*types.Document, error) {
	s.mu.RLock()
	raw, ok := s.collections[collection][id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, types.ErrDocumentNotFound)
	}
	return decodeDocument(id, raw)
}

// ListDocuments implements [types.DocumentStore].
func (s *Store) ListDocuments(ctx context.Context, collection string) ([]*types.Document, error) {
	s.mu.RLock()
	raws := make(map[string][]byte, len(s.collections[collection]))
	for id, raw := range s.collections[collection] {
		raws[id] = raw
	}
	s.mu.RUnlock()

	docs := make([]*types.Document, 0, len(raws))
	for id, raw := range raws {
		doc, err := decodeDocument(id, raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// WriteDocument implements [types.DocumentStore]. It publishes an added or
// modified event to every subscriber of the collection.
func (s *Store) WriteDocument(ctx context.Context, collection, id string, data map[string]any) error {
	raw, err := sonic.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode document %s/%s: %w", collection, id, err)
	}

	s.mu.Lock()
	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string][]byte)
		s.collections[collection] = docs
	}
	_, existed := docs[id]
	docs[id] = raw
	subs := s.subscribers(collection)
	s.mu.Unlock()

	kind := types.ChangeAdded
	if existed {
		kind = types.ChangeModified
	}
	publish(subs, id, raw, kind)
	return nil
}

// DeleteDocument removes a document and publishes a removed event. Deletion
// is not part of the [types.DocumentStore] contract; it exists to drive
// removal notifications.
func (s *Store) DeleteDocument(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	raw, ok := s.collections[collection][id]
	if ok {
		delete(s.collections[collection], id)
	}
	subs := s.subscribers(collection)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, types.ErrDocumentNotFound)
	}
	publish(subs, id, raw, types.ChangeRemoved)
	return nil
}

// Subscribe implements [types.DocumentStore]. Existing documents are not
// replayed; only changes after the subscription are delivered.
func (s *Store) Subscribe(ctx context.Context, collection string) (<-chan []types.ChangeEvent, error) {
	sub := newSubscription()

	s.mu.Lock()
	if _, ok := s.subs[collection]; !ok {
		s.subs[collection] = make(map[int]*subscription)
	}
	subID := s.nextSubID
	s.nextSubID++
	s.subs[collection][subID] = sub
	s.mu.Unlock()

	go sub.pump()
	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs[collection], subID)
		s.mu.Unlock()
		sub.stop()
	}()

	return sub.ch, nil
}

// subscribers snapshots the subscription list for a collection. Callers must
// hold mu.
func (s *Store) subscribers(collection string) []*subscription {
	subs := make([]*subscription, 0, len(s.subs[collection]))
	for _, sub := range s.subs[collection] {
		subs = append(subs, sub)
	}
	return subs
}

func publish(subs []*subscription, id string, raw []byte, kind types.ChangeKind) {
	if len(subs) == 0 {
		return
	}
	for _, sub := range subs {
		doc, err := decodeDocument(id, raw)
		if err != nil {
			continue
		}
		sub.enqueue([]types.ChangeEvent{{Kind: kind, Document: doc}})
	}
}

func decodeDocument(id string, raw []byte) (*types.Document, error) {
	var data map[string]any
	if err := sonic.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	return &types.Document{ID: id, Data: data}, nil
}

// subscription decouples publishers from a subscriber: enqueue never blocks,
// and the pump goroutine forwards batches to the channel until stopped.
type subscription struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  [][]types.ChangeEvent
	closed bool

	ch   chan []types.ChangeEvent
	done chan struct{}
}

func newSubscription() *subscription {
	sub := &subscription{
		ch:   make(chan []types.ChangeEvent, 1),
		done: make(chan struct{}),
	}
	sub.cond = sync.NewCond(&sub.mu)
	return sub
}

func (s *subscription) enqueue(batch []types.ChangeEvent) {
	s.mu.Lock()
	if !s.closed {
		s.queue = append(s.queue, batch)
	}
	s.mu.Unlock()
	s.cond.Signal()
}

func (s *subscription) stop() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cond.Signal()
	close(s.done)
}

// pump forwards queued batches in order and closes the channel once the
// subscription is stopped and drained.
func (s *subscription) pump() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 && s.closed {
			s.mu.Unlock()
			close(s.ch)
			return
		}
		batch := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.ch <- batch:
		case <-s.done:
			close(s.ch)
			return
		}
	}
}
