// Package ristretto implements the cache port with an in-process
// ristretto cache. The ledger uses it for artifact location lookups,
// which are small, immutable and read far more often than written.
package ristretto

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Artifact locations serialize to well under this; it only sizes the
// admission counters.
const avgEntryBytes = 256

// Cache is a ristretto-backed implementation of the cache port.
type Cache struct {
	inner *ristretto.Cache[string, []byte]
}

// New creates a cache bounded by maxBytes of stored values. Writes are
// applied synchronously so a resolve that just populated the cache sees
// its own entry.
func New(maxBytes int64) (*Cache, error) {
	inner, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxBytes / avgEntryBytes * 10,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{inner: inner}, nil
}

// Get returns the cached value for key, if present.
func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	val, found := c.inner.Get(key)
	if !found {
		return nil, false, nil
	}
	return val, true, nil
}

// Set stores value under key for at most ttl. The entry's cost is its
// byte length.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.inner.SetWithTTL(key, value, int64(len(value)), ttl)
	c.inner.Wait()
	return nil
}

// Delete evicts key.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.inner.Del(key)
	return nil
}

// Close releases the cache's internal goroutines.
func (c *Cache) Close() {
	c.inner.Close()
}
