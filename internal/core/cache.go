// Package core defines the ports between the eligibility job harness and its adapters.
package core

import (
	"context"
	"time"
)

// CacheRepository defines the key/value operations backing alert deduplication.
// The data layer provides a Redis implementation; callers treat any error as
// "cache unavailable" and fall back to local behaviour.
type CacheRepository interface {
	// SetIfNotExists atomically sets a key only if it doesn't already exist.
	// Returns true if the key was set, false if it already existed.
	SetIfNotExists(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Delete removes a key. Returns true if the key existed.
	Delete(ctx context.Context, key string) (bool, error)

	// DeleteByPrefix removes every key starting with prefix and returns the count.
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)

	// Health checks the health of the cache connection.
	Health(ctx context.Context) error
}
