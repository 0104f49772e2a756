package data

import (
	"sync"
	"time"
)

type cacheEntry struct {
	value  any
	expiry time.Time
}

// TTLCache maps query keys to values with a fixed time-to-live. Expiry and a
// manual Clear are the only invalidation paths; callers tolerate up to
// TTL-seconds of staleness.
type TTLCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

// NewTTLCache creates an empty cache with the given time-to-live.
func NewTTLCache(ttl time.Duration) *TTLCache {
	return &TTLCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached value for key if it has not expired.
func (c *TTLCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiry) {
		return nil, false
	}
	return entry.value, true
}

// Put stores value under key with a fresh expiry.
func (c *TTLCache) Put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, expiry: time.Now().Add(c.ttl)}
}

// Clear drops every entry.
func (c *TTLCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
