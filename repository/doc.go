// Copyright 2025 The WearSync Authors
// SPDX-License-Identifier: Apache-2.0

// Package repository exposes the consumer-facing user repository: valid-user
// enumeration, pending-update draining and the get/refresh access-token
// protocol with persist-then-surface failure handling.
package repository
