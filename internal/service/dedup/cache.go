// Package dedup suppresses repeated alerts. Charting platforms tend to
// re-fire the same alert several times within a couple of minutes; only the
// first occurrence inside the window may start a processing cycle.
package dedup

import (
	"sync"
	"time"
)

// Cache is a TTL-keyed set over signal identities. The full
// purge-check-insert sequence runs under one mutex so a burst of identical
// alerts racing through the gateway admits exactly one.
type Cache struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[string]time.Time
}

// New creates a cache with the given suppression window.
func New(window time.Duration) *Cache {
	return &Cache{
		window: window,
		seen:   make(map[string]time.Time),
	}
}

// ShouldAccept reports whether a signal with this key may proceed, and
// records the acceptance. Returns false iff the key was accepted less than
// one window ago. Expired entries are purged on every call, so memory stays
// proportional to the set of distinct keys inside the window.
func (c *Cache) ShouldAccept(key string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, ts := range c.seen {
		if now.Sub(ts) >= c.window {
			delete(c.seen, k)
		}
	}

	if ts, ok := c.seen[key]; ok && now.Sub(ts) < c.window {
		return false
	}

	c.seen[key] = now
	return true
}

// Len returns the number of live entries. Used by tests.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}
