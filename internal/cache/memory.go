package cache

import (
	"strings"
	"sync"
	"time"
)

// entry is a cached value with its expiration
type entry[V any] struct {
	value      V
	expiration time.Time
}

func (e *entry[V]) isExpired(now time.Time) bool {
	return now.After(e.expiration)
}

// MemoryCache is an in-memory TTL cache keyed by string
type MemoryCache[V any] struct {
	items map[string]*entry[V]
	mutex sync.RWMutex
	ttl   time.Duration
	done  chan struct{}
	once  sync.Once
}

// NewMemoryCache creates a cache whose entries live for ttl. Expired entries
// are swept every cleanup interval until Stop is called.
func NewMemoryCache[V any](ttl, cleanup time.Duration) *MemoryCache[V] {
	c := &MemoryCache[V]{
		items: make(map[string]*entry[V]),
		ttl:   ttl,
		done:  make(chan struct{}),
	}

	if cleanup > 0 {
		go c.cleanupExpired(cleanup)
	}
	return c
}

// Set stores a value in the cache
func (c *MemoryCache[V]) Set(key string, value V) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items[key] = &entry[V]{
		value:      value,
		expiration: time.Now().Add(c.ttl),
	}
}

// Get retrieves a live value from the cache
func (c *MemoryCache[V]) Get(key string) (V, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	e, exists := c.items[key]
	if !exists || e.isExpired(time.Now()) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Delete removes a value from the cache
func (c *MemoryCache[V]) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.items, key)
}

// DeletePrefix removes every key starting with prefix
func (c *MemoryCache[V]) DeletePrefix(prefix string) int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	removed := 0
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

// Clear removes all items from the cache
func (c *MemoryCache[V]) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items = make(map[string]*entry[V])
}

// Size returns the number of items in the cache, expired ones included
func (c *MemoryCache[V]) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.items)
}

// Stop ends the cleanup goroutine (idempotent)
func (c *MemoryCache[V]) Stop() {
	c.once.Do(func() { close(c.done) })
}

// cleanupExpired removes expired entries periodically
func (c *MemoryCache[V]) cleanupExpired(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case now := <-ticker.C:
			c.mutex.Lock()
			for key, e := range c.items {
				if e.isExpired(now) {
					delete(c.items, key)
				}
			}
			c.mutex.Unlock()
		}
	}
}
