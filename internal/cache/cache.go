package cache

import (
	"sync"
	"time"
)

// Default TTLs used by completion call sites. Per-namespace resource
// discovery is markedly more expensive upstream, so it refreshes sooner.
const (
	DefaultTTL           = 30 * time.Minute
	ResourceDiscoveryTTL = 10 * time.Minute
)

type entry struct {
	values []string
	expiry time.Time
}

// Cache is a short-TTL memoization store for auto-complete candidate lists.
//
// Entries expire lazily: there is no background eviction, an expired entry
// is simply treated as a miss on the next Get. The cache is shared across
// sessions and is not authorization-aware; call sites that list
// identity-scoped data must fold the identity into the key themselves.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// NewWithClock creates a cache with an injected clock, for tests.
func NewWithClock(now func() time.Time) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     now,
	}
}

// Get returns the cached values for key, or ok=false when the key is absent
// or its entry has expired. Entries are never served past expiry.
func (c *Cache) Get(key string) ([]string, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if c.now().After(e.expiry) {
		c.mu.Lock()
		// Re-check under the write lock; another goroutine may have
		// repopulated the entry in the meantime.
		if current, ok := c.entries[key]; ok && c.now().After(current.expiry) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.values, true
}

// Set stores values under key with the given TTL and returns the stored
// slice, so a listing call's result can be cached and returned in one
// expression.
func (c *Cache) Set(key string, values []string, ttl time.Duration) []string {
	c.mu.Lock()
	c.entries[key] = entry{
		values: values,
		expiry: c.now().Add(ttl),
	}
	c.mu.Unlock()
	return values
}

// Len returns the number of entries currently stored, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
