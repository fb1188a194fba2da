package faults

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheVersionKey = "faults:version"

// Cache wraps Redis based caching of the fault price catalog with a version
// counter for invalidation. A nil cache degrades to direct loads.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) version(ctx context.Context) (int64, error) {
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.Set(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

func (c *Cache) priceKey(ctx context.Context, companyID int64) (string, error) {
	ver, err := c.version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("faults:prices:%d:%d", companyID, ver), nil
}

// FetchPrices loads the company's active price map from cache, populating it
// with the loader on a miss.
func (c *Cache) FetchPrices(ctx context.Context, companyID int64, loader func(context.Context) (map[int64]string, error)) (map[int64]string, error) {
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	key, err := c.priceKey(ctx, companyID)
	if err != nil {
		return nil, err
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var prices map[int64]string
		if err := json.Unmarshal(payload, &prices); err == nil {
			return prices, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		return nil, err
	}

	prices, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(prices)
	if err != nil {
		return nil, err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return nil, err
	}
	return prices, nil
}

// Bump invalidates every cached price map by incrementing the version.
func (c *Cache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, cacheVersionKey).Err()
}
