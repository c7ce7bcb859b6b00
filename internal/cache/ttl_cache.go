package cache

import (
	"sync"
	"time"
)

// Cache is a read-through TTL cache for hot-path lookups such as admin
// access checks and per-company configuration.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V, ttl time.Duration)
	Delete(key K)
}

type entry[V any] struct {
	value    V
	deadline int64 // unix nanos; zero means no expiry
}

// TTLCache is an in-memory cache with per-entry TTLs. Expired entries
// are evicted lazily on read and swept opportunistically on write.
type TTLCache[K comparable, V any] struct {
	mu     sync.RWMutex
	items  map[K]entry[V]
	writes int
}

// sweepEvery bounds how often a Set pays for a full expiry scan.
const sweepEvery = 256

func NewTTLCache[K comparable, V any]() *TTLCache[K, V] {
	return &TTLCache[K, V]{items: make(map[K]entry[V])}
}

func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if e.deadline != 0 && time.Now().UnixNano() > e.deadline {
		c.Delete(key)
		return zero, false
	}
	return e.value, true
}

func (c *TTLCache[K, V]) Set(key K, value V, ttl time.Duration) {
	if c == nil {
		return
	}
	var deadline int64
	if ttl > 0 {
		deadline = time.Now().Add(ttl).UnixNano()
	}
	c.mu.Lock()
	c.items[key] = entry[V]{value: value, deadline: deadline}
	c.writes++
	if c.writes >= sweepEvery {
		c.writes = 0
		now := time.Now().UnixNano()
		for k, e := range c.items {
			if e.deadline != 0 && now > e.deadline {
				delete(c.items, k)
			}
		}
	}
	c.mu.Unlock()
}

func (c *TTLCache[K, V]) Delete(key K) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// NoopCache always misses; used when caching is disabled in tests.
type NoopCache[K comparable, V any] struct{}

func (NoopCache[K, V]) Get(key K) (V, bool) {
	var zero V
	return zero, false
}

func (NoopCache[K, V]) Set(key K, value V, ttl time.Duration) {}

func (NoopCache[K, V]) Delete(key K) {}
