// Package cache provides the badge-count cache backends: Redis for
// multi-instance deployments and an in-process TTL map for single binaries
// and tests.
package cache

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores badge counts in Redis with per-key expiry.
type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, prefix: "unread:"}
}

func (c *RedisCache) Get(ctx context.Context, viewerID string) (int, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+viewerID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	count, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}

func (c *RedisCache) Set(ctx context.Context, viewerID string, count int, ttl time.Duration) error {
	return c.client.Set(ctx, c.prefix+viewerID, strconv.Itoa(count), ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, viewerID string) error {
	return c.client.Del(ctx, c.prefix+viewerID).Err()
}

// Ping verifies the Redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// MemoryCache is an in-process TTL cache. Expired entries are dropped lazily
// on read.
type MemoryCache struct {
	mu    sync.Mutex
	items map[string]memoryEntry
	now   func() time.Time
}

type memoryEntry struct {
	count     int
	expiresAt time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryCache) Get(ctx context.Context, viewerID string) (int, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.items[viewerID]
	if !ok {
		return 0, false, nil
	}
	if c.now().After(entry.expiresAt) {
		delete(c.items, viewerID)
		return 0, false, nil
	}
	return entry.count, true, nil
}

func (c *MemoryCache) Set(ctx context.Context, viewerID string, count int, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[viewerID] = memoryEntry{count: count, expiresAt: c.now().Add(ttl)}
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, viewerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, viewerID)
	return nil
}
