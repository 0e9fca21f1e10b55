// Copyright 2025 The WearSync Authors
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OAuthKey is the store field holding a user's OAuth2 credential inside the
// authorization document. An authorization document without this field cannot
// be materialized into a [UserRecord].
const OAuthKey = "oauth"

// Store field names for [AuthorizationDetails].
const (
	fieldSourceID   = "source_id"
	fieldStartDate  = "start_date"
	fieldEndDate    = "end_date"
	fieldVersion    = "version"
	fieldAuthResult = "auth_result"
)

const defaultSourcePrefix = "tracker"

// Default collection window, effectively unbounded on both ends.
var (
	defaultStartDate = time.Date(2017, time.January, 1, 0, 0, 0, 0, time.UTC)
	defaultEndDate   = time.Date(9999, time.December, 31, 23, 59, 59, 999e6, time.UTC)
)

// DefaultSourceID returns a randomly suffixed source identifier, used when the
// authorization document does not name one.
func DefaultSourceID() string {
	return defaultSourcePrefix + "-" + uuid.New().String()
}

// AuthorizationDetails is the authorization state of a single user as stored
// in the authorization document: OAuth2 credential, source identifier, data
// collection window and the outcome of the last authorization attempt.
type AuthorizationDetails struct {
	SourceID    string
	StartDate   time.Time
	EndDate     time.Time
	Version     *int64
	Credential  *Credential
	LastOutcome *AuthOutcome
}

// NewAuthorizationDetails returns an [AuthorizationDetails] with a generated
// source id and an unbounded collection window.
func NewAuthorizationDetails() *AuthorizationDetails {
	return &AuthorizationDetails{
		SourceID:  DefaultSourceID(),
		StartDate: defaultStartDate,
		EndDate:   defaultEndDate,
	}
}

// SetSourceID replaces the source id. Empty or blank input is ignored so that
// a partial update never erases a previously known value.
func (a *AuthorizationDetails) SetSourceID(sourceID string) {
	if strings.TrimSpace(sourceID) != "" {
		a.SourceID = sourceID
	}
}

// SetStartDate replaces the collection window start. Zero input is ignored.
func (a *AuthorizationDetails) SetStartDate(start time.Time) {
	if !start.IsZero() {
		a.StartDate = start
	}
}

// SetEndDate replaces the collection window end. Zero input is ignored.
func (a *AuthorizationDetails) SetEndDate(end time.Time) {
	if !end.IsZero() {
		a.EndDate = end
	}
}

// SetVersion replaces the version. Nil input is ignored.
func (a *AuthorizationDetails) SetVersion(version *int64) {
	if version != nil {
		a.Version = version
	}
}

// String implements [fmt.Stringer]. The credential is not printed.
func (a *AuthorizationDetails) String() string {
	return fmt.Sprintf("AuthorizationDetails{sourceID=%q, startDate=%s, endDate=%s, version=%v, credential=***hidden***, lastOutcome=%v}",
		a.SourceID, a.StartDate.Format(time.RFC3339), a.EndDate.Format(time.RFC3339), a.Version, a.LastOutcome)
}

// EncodeAuthorizationDetails maps an [AuthorizationDetails] to its store
// document representation. Absent credential and outcome fields are omitted.
func EncodeAuthorizationDetails(a *AuthorizationDetails) map[string]any {
	data := map[string]any{
		fieldSourceID:  a.SourceID,
		fieldStartDate: a.StartDate.UnixMilli(),
		fieldEndDate:   a.EndDate.UnixMilli(),
	}
	if a.Version != nil {
		data[fieldVersion] = *a.Version
	}
	if a.Credential != nil {
		data[OAuthKey] = EncodeCredential(a.Credential)
	}
	if a.LastOutcome != nil {
		data[fieldAuthResult] = EncodeAuthOutcome(a.LastOutcome)
	}
	return data
}

// DecodeAuthorizationDetails rebuilds an [AuthorizationDetails] from its store
// document representation. Fields absent from the document keep their default
// values; the credential is nil when the document has no oauth field.
func DecodeAuthorizationDetails(data map[string]any) *AuthorizationDetails {
	a := NewAuthorizationDetails()
	a.SetSourceID(asString(data[fieldSourceID]))
	if millis, ok := asInt64(data[fieldStartDate]); ok {
		a.SetStartDate(time.UnixMilli(millis))
	}
	if millis, ok := asInt64(data[fieldEndDate]); ok {
		a.SetEndDate(time.UnixMilli(millis))
	}
	if version, ok := asInt64(data[fieldVersion]); ok {
		a.SetVersion(&version)
	}
	if oauth := asMap(data[OAuthKey]); oauth != nil {
		a.Credential = DecodeCredential(oauth)
	}
	if result := asMap(data[fieldAuthResult]); result != nil {
		a.LastOutcome = DecodeAuthOutcome(result)
	}
	return a
}
