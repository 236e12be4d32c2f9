package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheService wraps the Redis client behind the small surface the engine
// needs. All methods are safe on a nil receiver so caching stays optional.
type CacheService struct {
	client *redis.Client
}

// NewCacheService constructs a CacheService.
func NewCacheService(client *redis.Client) *CacheService {
	if client == nil {
		return nil
	}
	return &CacheService{client: client}
}

// Get returns the cached value or an empty string on miss.
func (c *CacheService) Get(ctx context.Context, key string) (string, error) {
	if c == nil || c.client == nil {
		return "", nil
	}
	value, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// Set stores a value with TTL.
func (c *CacheService) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Delete removes a key.
func (c *CacheService) Delete(ctx context.Context, key string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, key).Err()
}
