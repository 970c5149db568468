// Package cache is a small in-process TTL cache keyed by string.
package cache

import (
	"sync"
	"time"

	"github.com/itbasis/go-clock"
)

type entry[V any] struct {
	value   V
	expires time.Time
}

// TTL holds values until their time-to-live passes on the given clock.
type TTL[V any] struct {
	mu      sync.Mutex
	clock   clock.Clock
	entries map[string]entry[V]
}

func New[V any](c clock.Clock) *TTL[V] {
	if c == nil {
		c = clock.New()
	}
	return &TTL[V]{clock: c, entries: map[string]entry[V]{}}
}

// Get returns the value for key when present and not yet expired. Expired
// entries are evicted on read.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !c.clock.Now().Before(e.expires) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *TTL[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, expires: c.clock.Now().Add(ttl)}
	c.mu.Unlock()
}

// Len counts entries, expired or not.
func (c *TTL[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
