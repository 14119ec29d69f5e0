package exchange

import (
	"sync"
	"time"
)

// TTLCache holds a single value with its fetch time. Get only returns
// fresh values; GetStale also returns expired ones so callers can keep
// serving old data when an upstream fetch fails. The clock is
// injectable so tests control staleness deterministically.
type TTLCache[T any] struct {
	mu        sync.RWMutex
	value     T
	fetchedAt time.Time
	ttl       time.Duration
	set       bool
	now       func() time.Time
}

func NewTTLCache[T any](ttl time.Duration) *TTLCache[T] {
	return NewTTLCacheWithClock[T](ttl, time.Now)
}

func NewTTLCacheWithClock[T any](ttl time.Duration, now func() time.Time) *TTLCache[T] {
	return &TTLCache[T]{ttl: ttl, now: now}
}

func (c *TTLCache[T]) Get() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.set || c.now().Sub(c.fetchedAt) >= c.ttl {
		var zero T
		return zero, false
	}
	return c.value, true
}

func (c *TTLCache[T]) GetStale() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.set {
		var zero T
		return zero, false
	}
	return c.value, true
}

func (c *TTLCache[T]) Put(value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = value
	c.fetchedAt = c.now()
	c.set = true
}

// KeyedTTLCache is a TTLCache per string key, used for per-base-currency
// exchange rate caching.
type KeyedTTLCache[T any] struct {
	mu      sync.RWMutex
	entries map[string]keyedEntry[T]
	ttl     time.Duration
	now     func() time.Time
}

type keyedEntry[T any] struct {
	value     T
	fetchedAt time.Time
}

func NewKeyedTTLCache[T any](ttl time.Duration) *KeyedTTLCache[T] {
	return NewKeyedTTLCacheWithClock[T](ttl, time.Now)
}

func NewKeyedTTLCacheWithClock[T any](ttl time.Duration, now func() time.Time) *KeyedTTLCache[T] {
	return &KeyedTTLCache[T]{
		entries: make(map[string]keyedEntry[T]),
		ttl:     ttl,
		now:     now,
	}
}

func (c *KeyedTTLCache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok || c.now().Sub(entry.fetchedAt) >= c.ttl {
		var zero T
		return zero, false
	}
	return entry.value, true
}

func (c *KeyedTTLCache[T]) GetStale(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok {
		var zero T
		return zero, false
	}
	return entry.value, true
}

func (c *KeyedTTLCache[T]) Put(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = keyedEntry[T]{value: value, fetchedAt: c.now()}
}
