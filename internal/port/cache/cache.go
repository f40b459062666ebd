// Package cache defines the port for in-process key/value caching.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-value cache with per-entry TTLs. A miss is not an
// error; implementations may drop entries at any time, so callers must
// always be able to rebuild a value from the store of record.
type Cache interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key for at most ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete evicts key if present.
	Delete(ctx context.Context, key string) error
}
