package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultMemoryEntries bounds the in-memory cache when no limit is given.
const DefaultMemoryEntries = 512

// Memory is a process-local Store backed by an expiring LRU.
// Every entry shares the TTL given to NewMemory; the least recently used entry is evicted when full.
type Memory struct {
	lru *expirable.LRU[string, []byte]
}

var _ Store = (*Memory)(nil)

// NewMemory creates an in-memory cache holding at most maxEntries values for ttl each.
// A ttl <= 0 keeps entries until they are evicted.
func NewMemory(maxEntries int, ttl time.Duration) *Memory {
	if maxEntries <= 0 {
		maxEntries = DefaultMemoryEntries
	}
	return &Memory{lru: expirable.NewLRU[string, []byte](maxEntries, nil, ttl)}
}

// Get returns a copy of the cached value.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, ok := m.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

// Set stores a copy of value. The per-call ttl is ignored in favour of the cache-wide one.
func (m *Memory) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.lru.Add(key, append([]byte(nil), value...))
	return nil
}

// Len reports the number of stored entries.
func (m *Memory) Len() int { return m.lru.Len() }

// Close drops every entry.
func (m *Memory) Close() error {
	m.lru.Purge()
	return nil
}
