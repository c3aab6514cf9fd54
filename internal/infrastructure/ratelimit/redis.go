package ratelimit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window limiter shared across instances. Each key
// maps to a Redis counter whose TTL is the window; INCR and EXPIRE run in a
// pipeline so the counter can never outlive its window.
type RedisLimiter struct {
	client redis.UniversalClient
	config Config
}

// NewRedisLimiter creates a Redis-backed fixed-window limiter.
func NewRedisLimiter(client redis.UniversalClient, config Config) *RedisLimiter {
	return &RedisLimiter{client: client, config: config}
}

var _ Limiter = (*RedisLimiter)(nil)

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	redisKey := "ratelimit:" + key

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	// NX keeps the original window start on subsequent requests.
	pipe.ExpireNX(ctx, redisKey, l.config.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("rate limit incr: %w", err)
	}

	count := int(incr.Val())
	if count > l.config.Limit {
		ttl, err := l.client.TTL(ctx, redisKey).Result()
		if err != nil || ttl < 0 {
			ttl = l.config.Window
		}
		return Result{Allowed: false, Remaining: 0, RetryAfter: ttl}, nil
	}

	return Result{Allowed: true, Remaining: l.config.Limit - count}, nil
}

// Key builds the per-organization, per-client limiter key.
func Key(orgID, clientIP string) string {
	return orgID + ":" + clientIP
}
