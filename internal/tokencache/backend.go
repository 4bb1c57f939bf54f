// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package tokencache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by backends for absent or expired keys.
var ErrNotFound = errors.New("token cache entry not found")

// Backend stores opaque values with a time to live. Implementations must
// be safe for concurrent use.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// BackendType selects a Backend implementation.
type BackendType string

const (
	BackendMemory BackendType = "memory"
	BackendBadger BackendType = "badger"
)
