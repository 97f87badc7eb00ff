// Package cache provides the process-local TTL cache sitting in front of
// the expensive aggregation queries.
//
// There is no eviction policy beyond TTL: the key space is bounded by the
// active user count times a handful of query kinds, so no size cap or LRU
// ordering is needed. Expired entries are collected lazily when touched;
// nothing sweeps in the background.
package cache

import (
	"strings"
	"sync"
	"time"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a concurrency-safe key/value store with per-entry expiry and
// prefix-based invalidation. The zero TTL means the entry never expires.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry

	// now is the clock; replaceable in tests.
	now func() time.Time
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get retrieves a value. An entry whose expiry has passed is a miss and is
// removed as a side effect of the lookup.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores a value, overwriting unconditionally. Concurrent writers to the
// same key are not coalesced; last write wins.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiresAt: expiresAt}
}

// InvalidatePrefix removes every entry whose key starts with prefix and
// returns the number removed. A lookup racing an invalidation never returns
// an entry that the invalidation already removed.
func (c *Cache) InvalidatePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			count++
		}
	}
	return count
}

// Stats describes the cache contents at a point in time.
type Stats struct {
	TotalEntries   int `json:"total_entries"`
	LiveEntries    int `json:"live_entries"`
	ExpiredEntries int `json:"expired_entries"`
}

// GetStats counts live and expired entries without evicting anything.
func (c *Cache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	stats := Stats{TotalEntries: len(c.entries)}
	for _, e := range c.entries {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			stats.ExpiredEntries++
		} else {
			stats.LiveEntries++
		}
	}
	return stats
}
