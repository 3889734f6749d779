package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ZanzyTHEbar/creative-o-meter/internal/monitoring"
)

func newTestLimiter(t *testing.T, config Config) (*RateLimiter, *monitoring.Metrics) {
	t.Helper()
	metrics := monitoring.NewMetrics()
	limiter := NewRateLimiter(nil, config, metrics)
	t.Cleanup(func() { _ = limiter.Close() })
	return limiter, metrics
}

func TestRateLimiterFallbackMode(t *testing.T) {
	limiter, metrics := newTestLimiter(t, DefaultConfig())

	ctx := context.Background()
	key := "test:ip:1"
	r := Rate{Limit: 5, Period: time.Minute}

	for i := 0; i < 5; i++ {
		result, err := limiter.Allow(ctx, key, r)
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 5, result.Limit)
		assert.Equal(t, 4-i, result.Remaining)
	}

	result, err := limiter.Allow(ctx, key, r)
	require.NoError(t, err)
	assert.False(t, result.Allowed, "6th request should be blocked")
	assert.Greater(t, result.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, result.RetryAfter, 12*time.Second)
	assert.Zero(t, result.Remaining)

	assert.Equal(t, int64(6), metrics.GetRateLimitStats()["fallback_count"])
}

func TestRateLimiterBurstCapacity(t *testing.T) {
	config := DefaultConfig()
	config.BurstMultiplier = 2
	limiter, _ := newTestLimiter(t, config)

	allowed := 0
	for i := 0; i < 15; i++ {
		result, err := limiter.Allow(context.Background(), "test:burst", Rate{Limit: 5, Period: time.Minute})
		require.NoError(t, err)
		if result.Allowed {
			allowed++
		}
	}
	assert.Equal(t, 10, allowed)
}

func TestRateLimiterInvalidRate(t *testing.T) {
	limiter, _ := newTestLimiter(t, DefaultConfig())

	_, err := limiter.Allow(context.Background(), "k", Rate{Limit: 0, Period: time.Minute})
	assert.Error(t, err)
	_, err = limiter.Allow(context.Background(), "k", Rate{Limit: 1})
	assert.Error(t, err)
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	config := DefaultConfig()
	config.IPLimit = 2
	limiter, _ := newTestLimiter(t, config)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := limiter.AllowIP(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
	res, err := limiter.AllowIP(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	res, err = limiter.AllowIP(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = limiter.AllowEndpoint(ctx, "stream", "10.0.0.1", 1)
	require.NoError(t, err)
	assert.True(t, res.Allowed, "endpoint budget is separate from the IP budget")
}

func TestRateLimiterStats(t *testing.T) {
	limiter, _ := newTestLimiter(t, DefaultConfig())
	_, _ = limiter.AllowIP(context.Background(), "a")
	_, _ = limiter.AllowIP(context.Background(), "b")

	stats := limiter.GetStats()
	assert.Equal(t, false, stats["redis_enabled"])
	assert.Equal(t, 2, stats["fallback_limiters"])
	assert.NotContains(t, stats, "redis_pool")
}

func TestRateLimiterPruneIdle(t *testing.T) {
	config := DefaultConfig()
	config.CleanupInterval = time.Minute
	limiter, _ := newTestLimiter(t, config)

	_, _ = limiter.AllowIP(context.Background(), "a")
	_, _ = limiter.AllowIP(context.Background(), "b")

	assert.Zero(t, limiter.pruneIdle(time.Now()))
	assert.Equal(t, 2, limiter.pruneIdle(time.Now().Add(2*time.Minute)))
	assert.Equal(t, 0, limiter.GetStats()["fallback_limiters"])
}

func TestRateLimiterConcurrency(t *testing.T) {
	limiter, _ := newTestLimiter(t, DefaultConfig())
	r := Rate{Limit: 50, Period: time.Minute}

	var allowed int64
	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				res, err := limiter.Allow(context.Background(), "shared", r)
				if err == nil && res.Allowed {
					atomic.AddInt64(&allowed, 1)
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), allowed)
}

func TestRateLimiterCloseStopsCleanup(t *testing.T) {
	defer goleak.VerifyNone(t)

	limiter := NewRateLimiter(nil, Config{IPLimit: 1, CleanupInterval: time.Millisecond}, nil)
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, limiter.Close())
	require.NoError(t, limiter.Close())
}

func TestRedisClientDisabled(t *testing.T) {
	client, err := NewRedisClient(context.Background(), RedisOptions{})
	require.NoError(t, err)
	assert.False(t, client.IsEnabled())
	assert.ErrorIs(t, client.HealthCheck(context.Background()), ErrRedisDisabled)
	assert.Equal(t, map[string]interface{}{"enabled": false}, client.GetPoolStats())
	assert.NoError(t, client.Close())

	var nilClient *RedisClient
	assert.False(t, nilClient.IsEnabled())
}

func TestRedisClientUnreachable(t *testing.T) {
	client, err := NewRedisClient(context.Background(), RedisOptions{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
	})
	require.Error(t, err)
	require.NotNil(t, client)
	assert.False(t, client.IsEnabled())
}

func TestRedisFailuresTripBreaker(t *testing.T) {
	// nothing listens on port 1, so every Redis call fails fast
	client := &RedisClient{
		client: redis.NewClient(&redis.Options{
			Addr:        "127.0.0.1:1",
			MaxRetries:  -1,
			DialTimeout: 100 * time.Millisecond,
		}),
		enabled: true,
		addr:    "127.0.0.1:1",
	}
	metrics := monitoring.NewMetrics()
	limiter := NewRateLimiter(client, DefaultConfig(), metrics)
	t.Cleanup(func() { _ = limiter.Close() })

	ctx := context.Background()
	r := Rate{Limit: 100, Period: time.Minute}
	for i := 0; i < 8; i++ {
		result, err := limiter.Allow(ctx, "test:breaker", r)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	stats := metrics.GetRateLimitStats()
	assert.Equal(t, int64(5), stats["redis_errors"])
	assert.Equal(t, int64(8), stats["fallback_count"])

	breaker, ok := limiter.GetStats()["redis_breaker"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "open", breaker["state"])
}
