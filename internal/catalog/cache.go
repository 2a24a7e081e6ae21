package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-billing/internal/obs"
)

// Cache wraps Redis helpers for JSON payloads keyed by catalog entity.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func productKey(id string) string {
	return "catalog:product:" + id
}

// listVersionKey tracks a generation counter bumped on every write so stale
// list pages fall out without scanning keys.
const listVersionKey = "catalog:list:version"

// GetJSON unmarshals a cached JSON payload into dst. It reports whether the key existed.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil || c.client == nil || key == "" {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			countLookup("miss")
			return false, nil
		}
		countLookup("error")
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	countLookup("hit")
	return true, nil
}

func countLookup(result string) {
	if obs.CatalogCacheTotal != nil {
		obs.CatalogCacheTotal.WithLabelValues(result).Inc()
	}
}

// SetJSON serialises v as JSON and stores it with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if c == nil || c.client == nil || key == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Invalidate drops a product's detail entry and bumps the list generation.
func (c *Cache) Invalidate(ctx context.Context, productID string) {
	if c == nil || c.client == nil {
		return
	}
	if productID != "" {
		_ = c.client.Del(ctx, productKey(productID)).Err()
	}
	_ = c.client.Incr(ctx, listVersionKey).Err()
}

func (c *Cache) listGeneration(ctx context.Context) int64 {
	if c == nil || c.client == nil {
		return 0
	}
	gen, err := c.client.Get(ctx, listVersionKey).Int64()
	if err != nil {
		return 0
	}
	return gen
}

func (c *Cache) listKey(ctx context.Context, params ListParams) string {
	return fmt.Sprintf("catalog:list:v=%d:q=%s:page=%d:limit=%d",
		c.listGeneration(ctx), params.Query, params.Page, params.Limit)
}
