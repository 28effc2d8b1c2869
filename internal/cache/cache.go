// Package cache holds byte caches used to memoize rendered provisioning images.
package cache

import (
	"context"
	"time"
)

// Store is a byte-oriented key/value cache with optional expiry.
type Store interface {
	// Get returns the cached value and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key; ttl <= 0 keeps it until evicted.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Close releases any underlying connection.
	Close() error
}
