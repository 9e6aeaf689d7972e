package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Cache provides typed JSON caching on top of the client.
// ⭐ SSOT: 缓存读写只经过这里
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a cache helper namespaced under prefix.
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

// Get retrieves a cached value into dest; found=false on miss or when
// Redis is disabled.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.fullKey(key)).Bytes()
	if err != nil {
		// miss is not an error
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}
	return true, nil
}

// Set stores a value with a TTL; no-op when Redis is disabled.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}
	return c.client.Redis().Set(ctx, c.fullKey(key), data, ttl).Err()
}

// Delete removes a cached value.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}
	return c.client.Redis().Del(ctx, c.fullKey(key)).Err()
}

func (c *Cache) fullKey(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// Predefined TTLs
const (
	TTLShort = 1 * time.Minute // 实时行情
	TTLLong  = 1 * time.Hour   // 成分股名单
	TTLDaily = 24 * time.Hour  // 季报快照, 每日收盘后刷新
)

// FinancialKey is the cache key for one quarterly disclosure record.
func FinancialKey(kind, code string, year, quarter int) string {
	return fmt.Sprintf("financial:%s:%s:%d:Q%d", kind, code, year, quarter)
}

// PoolKey is the cache key for a pool's constituents on a date.
func PoolKey(pool, date string) string {
	return fmt.Sprintf("pool:%s:%s", pool, date)
}
