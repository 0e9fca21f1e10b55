// Copyright 2025 The WearSync Authors
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// UserRecord is the merged view of a user's profile and authorization state.
// It is the unit stored in the credential cache. While resident, a record is
// owned exclusively by the cache; consumers receive clones and never mutate
// the cached instance.
type UserRecord struct {
	ID      string
	Profile *ProfileDetails
	Auth    *AuthorizationDetails
}

// IsComplete reports whether the record carries both a profile and an
// authorization state with a credential.
func (u *UserRecord) IsComplete() bool {
	return u.Profile != nil && u.Auth != nil && u.Auth.Credential != nil
}

// Clone returns a deep copy of the record via a serialization round-trip, so
// the copy shares no memory with the original.
func (u *UserRecord) Clone() *UserRecord {
	raw, err := sonic.Marshal(u)
	if err != nil {
		panic(fmt.Sprintf("clone user record %q: %v", u.ID, err))
	}
	var out UserRecord
	if err := sonic.Unmarshal(raw, &out); err != nil {
		panic(fmt.Sprintf("clone user record %q: %v", u.ID, err))
	}
	return &out
}

// String implements [fmt.Stringer].
func (u *UserRecord) String() string {
	return fmt.Sprintf("UserRecord{id=%q, project=%q}", u.ID, u.projectID())
}

func (u *UserRecord) projectID() string {
	if u.Profile == nil {
		return ""
	}
	return u.Profile.ProjectID
}
