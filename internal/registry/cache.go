package registry

import (
	"context"
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL bounds how long a registry record is served without a
// fresh lookup.
const DefaultCacheTTL = time.Hour

// Cache stores registry records between sync runs so repeated refreshes do
// not hammer the upstream feed.
type Cache interface {
	Get(ctx context.Context, npi string) (Record, bool)
	Set(ctx context.Context, npi string, record Record)
}

// RedisCache shares registry records across instances.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func cacheKey(npi string) string { return "registry:npi:" + npi }

func (c *RedisCache) Get(ctx context.Context, npi string) (Record, bool) {
	raw, err := c.client.Get(ctx, cacheKey(npi)).Bytes()
	if err != nil {
		return Record{}, false
	}
	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return Record{}, false
	}
	return record, true
}

func (c *RedisCache) Set(ctx context.Context, npi string, record Record) {
	raw, err := json.Marshal(record)
	if err != nil {
		return
	}
	c.client.Set(ctx, cacheKey(npi), raw, c.ttl)
}

// MemoryCache serves single-node deployments without Redis.
type MemoryCache struct {
	cache *gocache.Cache
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &MemoryCache{cache: gocache.New(ttl, 2*ttl)}
}

func (c *MemoryCache) Get(_ context.Context, npi string) (Record, bool) {
	v, ok := c.cache.Get(npi)
	if !ok {
		return Record{}, false
	}
	record, ok := v.(Record)
	return record, ok
}

func (c *MemoryCache) Set(_ context.Context, npi string, record Record) {
	c.cache.SetDefault(npi, record)
}
