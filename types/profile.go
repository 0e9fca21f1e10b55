// Copyright 2025 The WearSync Authors
// SPDX-License-Identifier: Apache-2.0

package types

// Store field names for [ProfileDetails].
const (
	fieldProjectID = "project_id"
)

// DefaultProjectID is assigned to users whose profile document does not name a
// project.
const DefaultProjectID = "default-project"

// ProfileDetails is the profile portion of a user as stored in the profile
// document. The fields are owned by the enrolment application; this subsystem
// only reads them.
type ProfileDetails struct {
	ProjectID string
}

// NewProfileDetails returns a [ProfileDetails] with default values, used when
// a user has an authorization document but no profile document yet.
func NewProfileDetails() *ProfileDetails {
	return &ProfileDetails{ProjectID: DefaultProjectID}
}

// EncodeProfileDetails maps a [ProfileDetails] to its store document
// representation.
func EncodeProfileDetails(p *ProfileDetails) map[string]any {
	if p == nil {
		return nil
	}
	return map[string]any{
		fieldProjectID: p.ProjectID,
	}
}

// DecodeProfileDetails rebuilds a [ProfileDetails] from its store document
// representation, defaulting absent fields.
func DecodeProfileDetails(data map[string]any) *ProfileDetails {
	p := NewProfileDetails()
	if project := asString(data[fieldProjectID]); project != "" {
		p.ProjectID = project
	}
	return p
}
