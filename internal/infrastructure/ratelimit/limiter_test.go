package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_WindowQuota(t *testing.T) {
	limiter := NewMemoryLimiter(Config{Limit: 10, Window: time.Minute})
	ctx := context.Background()

	now := time.Unix(1700000000, 0)
	limiter.now = func() time.Time { return now }

	for i := 0; i < 10; i++ {
		res, err := limiter.Allow(ctx, "org1:1.2.3.4")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 9-i, res.Remaining)
	}

	res, err := limiter.Allow(ctx, "org1:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, time.Minute, res.RetryAfter)
}

func TestMemoryLimiter_WindowReset(t *testing.T) {
	limiter := NewMemoryLimiter(Config{Limit: 2, Window: time.Minute})
	ctx := context.Background()

	now := time.Unix(1700000000, 0)
	limiter.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		res, err := limiter.Allow(ctx, "k")
		require.NoError(t, err)
		require.True(t, res.Allowed)
	}
	res, err := limiter.Allow(ctx, "k")
	require.NoError(t, err)
	require.False(t, res.Allowed)

	// Window elapses; the counter restarts at 1.
	now = now.Add(61 * time.Second)
	res, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)
}

func TestMemoryLimiter_IndependentKeys(t *testing.T) {
	limiter := NewMemoryLimiter(Config{Limit: 1, Window: time.Minute})
	ctx := context.Background()

	res, err := limiter.Allow(ctx, "org1:1.2.3.4")
	require.NoError(t, err)
	require.True(t, res.Allowed)

	res, err = limiter.Allow(ctx, "org1:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	// Different org, same IP: separate quota.
	res, err = limiter.Allow(ctx, "org2:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestMemoryLimiter_Sweep(t *testing.T) {
	limiter := NewMemoryLimiter(Config{Limit: 1, Window: time.Minute})
	ctx := context.Background()

	now := time.Unix(1700000000, 0)
	limiter.now = func() time.Time { return now }

	for i := 0; i < evictThreshold+1; i++ {
		_, err := limiter.Allow(ctx, fmt.Sprintf("key-%d", i))
		require.NoError(t, err)
	}
	require.Greater(t, len(limiter.windows), evictThreshold)

	now = now.Add(2 * time.Minute)
	_, err := limiter.Allow(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, 1, len(limiter.windows))
}

func newRedisLimiter(t *testing.T, config Config) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLimiter(client, config), mr
}

func TestRedisLimiter_WindowQuota(t *testing.T) {
	limiter, _ := newRedisLimiter(t, Config{Limit: 10, Window: time.Minute})
	ctx := context.Background()

	key := Key("org1", "1.2.3.4")
	for i := 0; i < 10; i++ {
		res, err := limiter.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d should be allowed", i+1)
	}

	res, err := limiter.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Greater(t, res.RetryAfter, time.Duration(0))
}

func TestRedisLimiter_WindowReset(t *testing.T) {
	limiter, mr := newRedisLimiter(t, Config{Limit: 2, Window: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := limiter.Allow(ctx, "k")
		require.NoError(t, err)
	}

	mr.FastForward(2 * time.Minute)

	res, err := limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)
}
