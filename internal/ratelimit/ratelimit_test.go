package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, limit int, window time.Duration) RateLimiter {
	t.Helper()

	srv := miniredis.RunT(t)
	limiter, err := NewRedisRateLimiter("redis://"+srv.Addr(), limit, window)
	require.NoError(t, err)
	t.Cleanup(func() { limiter.Close() })

	return limiter
}

func TestRedisRateLimiter_Allow(t *testing.T) {
	limiter := newTestLimiter(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "superpixel")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i)
	}

	allowed, err := limiter.Allow(ctx, "superpixel")
	require.NoError(t, err)
	assert.False(t, allowed, "request over the limit should be denied")
}

func TestRedisRateLimiter_KeysAreIndependent(t *testing.T) {
	limiter := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	allowed, err := limiter.Allow(ctx, "superpixel")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "superpixel")
	require.NoError(t, err)
	assert.False(t, allowed)

	// a different source is unaffected
	allowed, err = limiter.Allow(ctx, "audiencesync")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisRateLimiter_FailsOpen(t *testing.T) {
	srv := miniredis.RunT(t)
	limiter, err := NewRedisRateLimiter("redis://"+srv.Addr(), 1, time.Minute)
	require.NoError(t, err)
	defer limiter.Close()

	srv.Close()

	allowed, err := limiter.Allow(context.Background(), "superpixel")
	assert.Error(t, err)
	assert.True(t, allowed, "limiter outage must not block ingestion")
}

func TestRedisRateLimiter_InvalidURL(t *testing.T) {
	_, err := NewRedisRateLimiter("not a url", 1, time.Minute)
	assert.Error(t, err)
}

func TestNoOpRateLimiter(t *testing.T) {
	limiter := &NoOpRateLimiter{}

	allowed, err := limiter.Allow(context.Background(), "anything")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.NoError(t, limiter.Close())
}
