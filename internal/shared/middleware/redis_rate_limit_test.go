package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"test-orchestrator/internal/shared/cache"
	"test-orchestrator/internal/shared/logger"
)

func newRedisLimiter(t *testing.T) (*RedisRateLimiter, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := cache.New(cache.DefaultConfig("redis://"+mr.Addr()), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisRateLimiter(client, logger.NewNop()), mr
}

func TestRedisRateLimiterCountsWithinWindow(t *testing.T) {
	limiter, mr := newRedisLimiter(t)
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		n, err := limiter.Increment(ctx, "test:10.0.0.1:/test/suite/:suite", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	ttl := mr.TTL("test:10.0.0.1:/test/suite/:suite")
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)
}

func TestRedisRateLimiterKeyAlwaysExpires(t *testing.T) {
	limiter, mr := newRedisLimiter(t)
	ctx := context.Background()
	key := "test:10.0.0.2:/test/component/:component"

	_, err := limiter.Increment(ctx, key, time.Minute)
	require.NoError(t, err)
	_, err = limiter.Increment(ctx, key, time.Minute)
	require.NoError(t, err)

	// later hits must not push the window out
	assert.LessOrEqual(t, mr.TTL(key), time.Minute)

	mr.FastForward(time.Minute + time.Second)
	assert.False(t, mr.Exists(key))

	n, err := limiter.Increment(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Greater(t, mr.TTL(key), time.Duration(0))
}

func TestRedisRateLimiterSurfacesErrors(t *testing.T) {
	limiter, mr := newRedisLimiter(t)
	mr.SetError("LOADING Redis is loading the dataset in memory")

	_, err := limiter.Increment(context.Background(), "test:k", time.Minute)
	assert.Error(t, err)
}
