package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	appErrors "github.com/learnledger/indexer/pkg/errors"
)

// QueryCache stores serialized query responses in Redis under a shared key
// prefix so invalidation can sweep whole entity families.
type QueryCache struct {
	client *redis.Client
	prefix string
}

// NewQueryCache wraps a Redis client.
func NewQueryCache(client *redis.Client, prefix string) *QueryCache {
	if prefix == "" {
		prefix = "indexer"
	}
	return &QueryCache{client: client, prefix: prefix}
}

func (c *QueryCache) key(k string) string {
	return fmt.Sprintf("%s:%s", c.prefix, k)
}

// Get unmarshals the cached value into dest, or returns ErrCacheMiss.
func (c *QueryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("cache get: %w", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("cache decode: %w", err)
	}
	return nil
}

// Set stores value under key for ttl.
func (c *QueryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, c.key(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// DeleteByPattern removes all keys matching the glob pattern under the cache
// prefix, scanning in batches to avoid blocking Redis.
func (c *QueryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, c.key(pattern), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) >= 100 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("cache delete: %w", err)
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache scan: %w", err)
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("cache delete: %w", err)
		}
	}
	return nil
}
