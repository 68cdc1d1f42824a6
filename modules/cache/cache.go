// Package cache provides a Redis-based cache-aside layer for the public
// profile lookups the realtime watchers perform on every rehydration.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache provides caching operations using Redis.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	stats  Stats
}

// Stats tracks cache statistics.
type Stats struct {
	Hits   uint64
	Misses uint64
	Sets   uint64
	Errors uint64
}

// New creates a new cache instance.
func New(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Get retrieves a value from the cache. The boolean reports a cache hit.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			atomic.AddUint64(&c.stats.Misses, 1)
			return false, nil
		}
		atomic.AddUint64(&c.stats.Errors, 1)
		return false, fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		return false, fmt.Errorf("cache unmarshal error: %w", err)
	}

	atomic.AddUint64(&c.stats.Hits, 1)
	return true, nil
}

// Set stores a value in the cache with the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		return fmt.Errorf("cache marshal error: %w", err)
	}

	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		return fmt.Errorf("cache set error: %w", err)
	}

	atomic.AddUint64(&c.stats.Sets, 1)
	return nil
}

// Delete removes a value from the cache.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		return fmt.Errorf("cache delete error: %w", err)
	}
	return nil
}

// Snapshot returns the current statistics.
func (c *Cache) Snapshot() Stats {
	return Stats{
		Hits:   atomic.LoadUint64(&c.stats.Hits),
		Misses: atomic.LoadUint64(&c.stats.Misses),
		Sets:   atomic.LoadUint64(&c.stats.Sets),
		Errors: atomic.LoadUint64(&c.stats.Errors),
	}
}
