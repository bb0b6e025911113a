package lookup

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"stellarelay/internal/constants"
)

// Cache stores resolved discovery flags keyed by system name. Misses are
// reported via the ok return, not an error.
type Cache interface {
	Get(ctx context.Context, system string) (discovered bool, ok bool, err error)
	Set(ctx context.Context, system string, discovered bool) error
}

func cacheKey(system string) string {
	return constants.CacheKeyPrefixDiscovery + system
}

type memoryEntry struct {
	discovered bool
	expiresAt  time.Time
}

// MemoryCache is the default single-process cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
	}
}

func (c *MemoryCache) Get(_ context.Context, system string) (bool, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[cacheKey(system)]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return false, false, nil
	}
	return entry.discovered, true, nil
}

func (c *MemoryCache) Set(_ context.Context, system string, discovered bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(system)] = memoryEntry{
		discovered: discovered,
		expiresAt:  time.Now().Add(c.ttl),
	}
	return nil
}

// RedisCache shares lookup results across relay instances pointed at the
// same journal archive.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *RedisCache) Get(ctx context.Context, system string) (bool, bool, error) {
	value, err := c.client.Get(ctx, cacheKey(system)).Result()
	if err == redis.Nil {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}

	discovered, err := strconv.ParseBool(value)
	if err != nil {
		return false, false, err
	}
	return discovered, true, nil
}

func (c *RedisCache) Set(ctx context.Context, system string, discovered bool) error {
	return c.client.Set(ctx, cacheKey(system), strconv.FormatBool(discovered), c.ttl).Err()
}
