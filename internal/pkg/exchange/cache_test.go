package exchange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCache_FreshAndStale(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	cache := NewTTLCacheWithClock[string](time.Hour, clock)

	_, ok := cache.Get()
	assert.False(t, ok)
	_, ok = cache.GetStale()
	assert.False(t, ok)

	cache.Put("value")

	got, ok := cache.Get()
	assert.True(t, ok)
	assert.Equal(t, "value", got)

	// Advance past the TTL: Get misses, GetStale still serves.
	now = now.Add(2 * time.Hour)

	_, ok = cache.Get()
	assert.False(t, ok)

	got, ok = cache.GetStale()
	assert.True(t, ok)
	assert.Equal(t, "value", got)
}

func TestTTLCache_PutRefreshes(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	cache := NewTTLCacheWithClock[int](time.Hour, clock)

	cache.Put(1)
	now = now.Add(59 * time.Minute)
	cache.Put(2)
	now = now.Add(30 * time.Minute)

	got, ok := cache.Get()
	assert.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestKeyedTTLCache(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	cache := NewKeyedTTLCacheWithClock[string](time.Hour, clock)

	cache.Put("USD", "usd-rates")
	cache.Put("EUR", "eur-rates")

	got, ok := cache.Get("USD")
	assert.True(t, ok)
	assert.Equal(t, "usd-rates", got)

	_, ok = cache.Get("GBP")
	assert.False(t, ok)
	_, ok = cache.GetStale("GBP")
	assert.False(t, ok)

	now = now.Add(90 * time.Minute)

	_, ok = cache.Get("EUR")
	assert.False(t, ok)
	got, ok = cache.GetStale("EUR")
	assert.True(t, ok)
	assert.Equal(t, "eur-rates", got)
}
