// Package cache holds live in-memory values (session contexts) keyed by
// device id, with sliding expiry and a bounded size.
package cache

import (
	"sync"
	"time"
)

// entry wraps a cached value with expiry and recency tracking.
type entry[V any] struct {
	value   V
	expiry  time.Time
	usedIdx int64
}

// Cache is a thread-safe TTL cache. Every hit extends the entry's lifetime;
// when full, the least recently used evictable entry is dropped.
type Cache[V any] struct {
	mu         sync.Mutex
	items      map[string]*entry[V]
	ttl        time.Duration
	maxEntries int
	nextIdx    int64
	keep       func(V) bool
	now        func() time.Time
}

// New creates a Cache with the given TTL and max entry count. keep may be nil;
// when it reports true for a value, that entry is neither expired nor evicted.
func New[V any](ttl time.Duration, maxEntries int, keep func(V) bool) *Cache[V] {
	if keep == nil {
		keep = func(V) bool { return false }
	}
	return &Cache[V]{
		items:      make(map[string]*entry[V]),
		ttl:        ttl,
		maxEntries: maxEntries,
		keep:       keep,
		now:        time.Now,
	}
}

// Get returns the value for key if present and not expired, refreshing it.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.getLocked(key)
}

// GetOrCreate returns the live value for key, or stores and returns create().
// created reports whether create was called. create runs with the cache lock
// held and must not call back into the cache.
func (c *Cache[V]) GetOrCreate(key string, create func() V) (value V, created bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.getLocked(key); ok {
		return v, false
	}

	v := create()
	c.setLocked(key, v)
	return v, true
}

// Set stores a value, evicting the least recently used entry if at capacity.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.setLocked(key, value)
}

// Delete removes key.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Len returns the number of stored entries, including expired ones not yet
// collected.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.items)
}

// getLocked must be called with mu held.
func (c *Cache[V]) getLocked(key string) (V, bool) {
	var zero V

	e, ok := c.items[key]
	if !ok {
		return zero, false
	}

	now := c.now()
	if now.After(e.expiry) && !c.keep(e.value) {
		delete(c.items, key)
		return zero, false
	}

	e.expiry = now.Add(c.ttl)
	e.usedIdx = c.nextIdx
	c.nextIdx++
	return e.value, true
}

// setLocked must be called with mu held.
func (c *Cache[V]) setLocked(key string, value V) {
	e := &entry[V]{
		value:   value,
		expiry:  c.now().Add(c.ttl),
		usedIdx: c.nextIdx,
	}
	c.nextIdx++

	if _, exists := c.items[key]; exists {
		c.items[key] = e
		return
	}

	if c.maxEntries > 0 && len(c.items) >= c.maxEntries {
		c.evictLocked()
	}

	c.items[key] = e
}

// evictLocked drops expired entries, then the least recently used one if the
// cache is still full. Must be called with mu held.
func (c *Cache[V]) evictLocked() {
	now := c.now()
	for key, e := range c.items {
		if now.After(e.expiry) && !c.keep(e.value) {
			delete(c.items, key)
		}
	}
	if len(c.items) < c.maxEntries {
		return
	}

	var oldestKey string
	var oldestIdx int64 = -1
	for key, e := range c.items {
		if c.keep(e.value) {
			continue
		}
		if oldestIdx == -1 || e.usedIdx < oldestIdx {
			oldestIdx = e.usedIdx
			oldestKey = key
		}
	}

	if oldestKey != "" {
		delete(c.items, oldestKey)
	}
}
