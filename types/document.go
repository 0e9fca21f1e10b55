// Copyright 2025 The WearSync Authors
// SPDX-License-Identifier: Apache-2.0

package types

// Document is a whole document read from or written to the store, keyed by
// the user id within its collection.
type Document struct {
	ID   string
	Data map[string]any
}

// ChangeKind is the type of a change-feed notification.
type ChangeKind int

const (
	// ChangeAdded signals a document newly present in the collection.
	ChangeAdded ChangeKind = iota
	// ChangeModified signals a document whose contents changed.
	ChangeModified
	// ChangeRemoved signals a document deleted from the collection.
	ChangeRemoved
)

// String implements [fmt.Stringer].
func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeModified:
		return "modified"
	case ChangeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// ChangeEvent is a single change-feed notification. Delivery is at least
// once; consumers must tolerate duplicate added and modified events for the
// same document.
type ChangeEvent struct {
	Kind     ChangeKind
	Document *Document
}
