package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "ponder:result:"

// DefaultCacheTTL bounds how long a fetched result stays cached.
const DefaultCacheTTL = 15 * time.Minute

// Cache is a Redis-backed read-through cache for results. All operations
// are best-effort: the caller treats a cache miss and a cache failure the
// same way and falls back to PostgreSQL.
type Cache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCache connects to Redis using a redis:// URL.
func NewCache(redisURL string, ttl time.Duration, logger *zap.Logger) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	logger.Info("Redis cache connected")
	return &Cache{rdb: rdb, ttl: ttl, logger: logger}, nil
}

// Put stores a result under its id.
func (c *Cache) Put(ctx context.Context, r *Result) {
	data, err := json.Marshal(r)
	if err != nil {
		c.logger.Warn("cache marshal failed", zap.String("id", r.ID), zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, cacheKeyPrefix+r.ID, data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache put failed", zap.String("id", r.ID), zap.Error(err))
	}
}

// Get returns the cached result, or nil on miss or error.
func (c *Cache) Get(ctx context.Context, id string) *Result {
	data, err := c.rdb.Get(ctx, cacheKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		c.logger.Warn("cache get failed", zap.String("id", id), zap.Error(err))
		return nil
	}
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		c.logger.Warn("cache decode failed", zap.String("id", id), zap.Error(err))
		return nil
	}
	return &r
}

// Invalidate drops a cached result.
func (c *Cache) Invalidate(ctx context.Context, id string) {
	if err := c.rdb.Del(ctx, cacheKeyPrefix+id).Err(); err != nil {
		c.logger.Warn("cache invalidate failed", zap.String("id", id), zap.Error(err))
	}
}

// Close shuts down the Redis client.
func (c *Cache) Close() error {
	return c.rdb.Close()
}
