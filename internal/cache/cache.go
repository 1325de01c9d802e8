// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/fleetinsights/internal/metrics"
)

// DefaultCleanupInterval is used when New is given a non-positive interval.
const DefaultCleanupInterval = 5 * time.Minute

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a thread-safe in-memory cache with per-entry expiry.
//
// Entries are valid while the clock is strictly before their expiry, and
// expired entries are removed lazily on Get and in bulk by Cleanup. Fetch
// collapses concurrent misses for the same key into a single producer call.
type Cache[V any] struct {
	name  string
	ttl   time.Duration
	clock clockz.Clock

	mu      sync.RWMutex
	entries map[string]entry[V]
	group   singleflight.Group

	stats Stats
}

// Stats tracks cache performance
type Stats struct {
	mu          sync.RWMutex
	Hits        int64
	Misses      int64
	Evictions   int64
	TotalKeys   int64
	LastCleanup time.Time
}

// New creates a cache. The name labels its Prometheus series. A nil clock
// uses the real clock.
//
// Example:
//
//	trips := cache.New[upstream.Response]("trips", 5*time.Minute, nil)
//	trips.Set("ABC|2025-01-01T00:00|2025-01-02T23:59", resp)
func New[V any](name string, ttl time.Duration, clock clockz.Clock) *Cache[V] {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &Cache[V]{
		name:    name,
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]entry[V]),
		stats:   Stats{LastCleanup: clock.Now()},
	}
}

// Name returns the cache's metric label.
func (c *Cache[V]) Name() string { return c.name }

// TTL returns the default entry lifetime.
func (c *Cache[V]) TTL() time.Duration { return c.ttl }

// Get returns the value for key if present and not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		c.recordMiss()
		var zero V
		return zero, false
	}

	if !c.clock.Now().Before(e.expiresAt) {
		c.mu.Lock()
		// Re-check: a concurrent Set may have refreshed the entry.
		if cur, ok := c.entries[key]; ok && !c.clock.Now().Before(cur.expiresAt) {
			delete(c.entries, key)
			c.recordEvictions(1)
		}
		c.mu.Unlock()
		c.recordMiss()
		var zero V
		return zero, false
	}

	c.recordHit()
	return e.value, true
}

// Set stores value under key with the default TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key with a custom TTL.
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, expiresAt: c.clock.Now().Add(ttl)}
	size := len(c.entries)
	c.mu.Unlock()

	c.stats.mu.Lock()
	c.stats.TotalKeys = int64(size)
	c.stats.mu.Unlock()
	metrics.CacheSize.WithLabelValues(c.name).Set(float64(size))
}

// Delete removes key. Missing keys are ignored.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	_, existed := c.entries[key]
	delete(c.entries, key)
	c.mu.Unlock()

	if existed {
		c.recordEvictions(1)
	}
}

// Clear removes every entry.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	n := len(c.entries)
	c.entries = make(map[string]entry[V])
	c.mu.Unlock()

	c.recordEvictions(n)
}

// Len returns the number of stored entries, including expired ones not yet
// cleaned up.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Fetch returns the cached value for key, or calls produce on a miss.
// Concurrent misses for the same key share one produce call. The produced
// value is stored only when produce reports it cacheable and returns no
// error. The hit result reports whether the value came from the cache.
//
// produce runs without the caller's cancellation, so it must bound itself.
// A caller whose ctx ends stops waiting without failing the other callers
// sharing the call.
func (c *Cache[V]) Fetch(ctx context.Context, key string, produce func(context.Context) (V, bool, error)) (value V, hit bool, err error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		v, cacheable, err := produce(detached)
		if err != nil {
			return v, err
		}
		if cacheable {
			c.Set(key, v)
		}
		return v, nil
	})

	var zero V
	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, false, res.Err
		}
		v, ok := res.Val.(V)
		if !ok {
			return zero, false, fmt.Errorf("cache %s: unexpected value type %T", c.name, res.Val)
		}
		return v, false, nil
	}
}

// GetStats returns a snapshot of the cache statistics.
func (c *Cache[V]) GetStats() Stats {
	c.stats.mu.RLock()
	defer c.stats.mu.RUnlock()

	return Stats{
		Hits:        c.stats.Hits,
		Misses:      c.stats.Misses,
		Evictions:   c.stats.Evictions,
		TotalKeys:   c.stats.TotalKeys,
		LastCleanup: c.stats.LastCleanup,
	}
}

// HitRate returns the cache hit rate as a percentage
func (c *Cache[V]) HitRate() float64 {
	stats := c.GetStats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0.0
	}
	return float64(stats.Hits) / float64(total) * 100.0
}

// Cleanup removes every expired entry and returns how many were removed.
func (c *Cache[V]) Cleanup() int {
	now := c.clock.Now()
	c.mu.Lock()
	removed := 0
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	c.mu.Unlock()

	c.stats.mu.Lock()
	c.stats.LastCleanup = now
	c.stats.mu.Unlock()
	c.recordEvictions(removed)
	return removed
}

// RunCleanup calls Cleanup every interval until ctx is cancelled.
func (c *Cache[V]) RunCleanup(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.clock.After(interval):
			c.Cleanup()
		}
	}
}

func (c *Cache[V]) recordHit() {
	c.stats.mu.Lock()
	c.stats.Hits++
	c.stats.mu.Unlock()
	metrics.RecordCacheHit(c.name)
}

func (c *Cache[V]) recordMiss() {
	c.stats.mu.Lock()
	c.stats.Misses++
	c.stats.mu.Unlock()
	metrics.RecordCacheMiss(c.name)
}

func (c *Cache[V]) recordEvictions(n int) {
	size := c.Len()
	c.stats.mu.Lock()
	c.stats.Evictions += int64(n)
	c.stats.TotalKeys = int64(size)
	c.stats.mu.Unlock()
	metrics.RecordCacheEvictions(c.name, n, size)
}
