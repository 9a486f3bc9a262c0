package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const progressKeyPrefix = "reel:render:progress:"

// RedisProgressCache stores the last progress response per render so that
// polling clients don't turn every poll into an engine round-trip.
type RedisProgressCache struct {
	rdb *redis.Client
}

func NewRedisProgressCache(rdb *redis.Client) *RedisProgressCache {
	return &RedisProgressCache{rdb: rdb}
}

func (c *RedisProgressCache) Get(ctx context.Context, renderID string) ([]byte, bool) {
	payload, err := c.rdb.Get(ctx, progressKeyPrefix+renderID).Bytes()
	if err != nil {
		return nil, false
	}
	return payload, true
}

func (c *RedisProgressCache) Set(ctx context.Context, renderID string, payload []byte, ttl time.Duration) {
	// Cache writes are best effort; a miss just costs one engine poll.
	c.rdb.Set(ctx, progressKeyPrefix+renderID, payload, ttl)
}
