// Copyright 2025 The WearSync Authors
// SPDX-License-Identifier: Apache-2.0

package usersync

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strconv"
	"strings"
)

// Config is the subset of connector configuration the synchronizer depends
// on. Two configs with equal fingerprints can share one synchronizer
// instance and its change-feed subscription.
type Config struct {
	// ProfileCollection is the collection holding profile documents.
	ProfileCollection string

	// AuthCollection is the collection holding authorization documents.
	AuthCollection string

	// AllowedUsers restricts the cache to the listed user ids. Empty means
	// all users are allowed.
	AllowedUsers []string

	// ExcludedUsers removes the listed user ids from the cache. Empty means
	// no users are excluded.
	ExcludedUsers []string

	// IntradayAccess records whether the upstream API grant includes
	// intraday data. It does not change cache behavior but is part of the
	// instance identity.
	IntradayAccess bool
}

// Fingerprint identifies the configuration subset relevant to synchronizer
// identity. Equal fingerprints mean the shared instance can be reused.
type Fingerprint string

// Fingerprint returns the config's identity fingerprint. List order is not
// significant.
func (c Config) Fingerprint() Fingerprint {
	allowed := slices.Clone(c.AllowedUsers)
	slices.Sort(allowed)
	excluded := slices.Clone(c.ExcludedUsers)
	slices.Sort(excluded)

	h := sha256.New()
	for _, part := range []string{
		c.ProfileCollection,
		c.AuthCollection,
		strings.Join(allowed, ","),
		strings.Join(excluded, ","),
		strconv.FormatBool(c.IntradayAccess),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return Fingerprint(hex.EncodeToString(h.Sum(nil)))
}
