package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvalidateIP(t *testing.T) {
	limiter, _ := newTestLimiter(t, Config{IPLimit: 3, StreamLimit: 1})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := limiter.AllowIP(ctx, "1.2.3.4")
		require.NoError(t, err)
	}
	_, err := limiter.AllowEndpoint(ctx, "stream", "1.2.3.4", 1)
	require.NoError(t, err)
	_, err = limiter.AllowIP(ctx, "11.2.3.4")
	require.NoError(t, err)

	res, err := limiter.AllowIP(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	removed, err := limiter.InvalidateIP(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	count, err := limiter.KeyCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "other IPs keep their budget")

	res, err = limiter.AllowIP(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 2, res.Remaining)
}

func TestInvalidateIPUnknown(t *testing.T) {
	limiter, _ := newTestLimiter(t, DefaultConfig())

	removed, err := limiter.InvalidateIP(context.Background(), "9.9.9.9")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestInvalidateAll(t *testing.T) {
	limiter, _ := newTestLimiter(t, DefaultConfig())
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		_, err := limiter.Allow(ctx, key, Rate{Limit: 1, Period: time.Minute})
		require.NoError(t, err)
	}

	count, err := limiter.KeyCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	removed, err := limiter.InvalidateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	count, err = limiter.KeyCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
