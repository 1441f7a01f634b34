// Covidwatch - COVID Statistics Query Facade
// Copyright 2026 Ash B. (ash123)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ash123/covidwatch

package covid

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ash123/covidwatch/internal/metrics"
	"github.com/ash123/covidwatch/internal/models"
)

// cleanupInterval is how often expired cache entries are swept.
const cleanupInterval = 5 * time.Minute

// cacheEntry holds one cached upstream response with its expiry.
type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// responseCache is a thread-safe in-memory TTL cache for upstream responses.
// The upstream publishes daily snapshots, so a TTL of minutes serves stale
// data only in the window right after an upstream refresh.
type responseCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

func newResponseCache(ttl time.Duration) *responseCache {
	c := &responseCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
	go c.cleanupLoop()
	return c
}

func (c *responseCache) get(key string) (any, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		metrics.UpstreamCacheRequests.WithLabelValues("miss").Inc()
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		metrics.UpstreamCacheEntries.Set(float64(len(c.entries)))
		c.mu.Unlock()
		metrics.UpstreamCacheRequests.WithLabelValues("miss").Inc()
		return nil, false
	}

	metrics.UpstreamCacheRequests.WithLabelValues("hit").Inc()
	return entry.value, true
}

func (c *responseCache) set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
	metrics.UpstreamCacheEntries.Set(float64(len(c.entries)))
}

// cleanupLoop sweeps expired entries so a long-idle process does not keep
// every country it ever served in memory.
func (c *responseCache) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		c.mu.Lock()
		for key, entry := range c.entries {
			if now.After(entry.expiresAt) {
				delete(c.entries, key)
			}
		}
		metrics.UpstreamCacheEntries.Set(float64(len(c.entries)))
		c.mu.Unlock()
	}
}

// CachedClient wraps a StatsClient with a TTL response cache. The upstream
// endpoints are idempotent GETs over slowly changing data, and the aggregate
// operations re-request the same countries on every call, so caching cuts
// most of the fan-out traffic.
//
// Errors are never cached; a failed fetch is retried on the next call.
type CachedClient struct {
	client StatsClient
	cache  *responseCache
}

// NewCachedClient wraps client with a response cache holding entries for ttl.
func NewCachedClient(client StatsClient, ttl time.Duration) *CachedClient {
	return &CachedClient{
		client: client,
		cache:  newResponseCache(ttl),
	}
}

// FetchSeries returns the cached series when fresh, fetching otherwise.
func (c *CachedClient) FetchSeries(ctx context.Context, country string, status models.Status) (models.DateSeries, error) {
	key := fmt.Sprintf("history:%s:%s", country, status)
	if cached, ok := c.cache.get(key); ok {
		return cached.(models.DateSeries), nil
	}

	series, err := c.client.FetchSeries(ctx, country, status)
	if err != nil {
		return nil, err
	}
	c.cache.set(key, series)
	return series, nil
}

// FetchPopulation returns the cached population when fresh, fetching otherwise.
func (c *CachedClient) FetchPopulation(ctx context.Context, country string) (int64, error) {
	key := "cases:" + country
	if cached, ok := c.cache.get(key); ok {
		return cached.(int64), nil
	}

	population, err := c.client.FetchPopulation(ctx, country)
	if err != nil {
		return 0, err
	}
	c.cache.set(key, population)
	return population, nil
}
