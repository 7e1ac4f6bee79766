// Package ratelimit throttles webhook senders per source using a Redis
// sliding window. The pixel integration in particular can burst far beyond
// what a tenant plan allows.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/audiencelab/leadpipe/internal/metrics"
)

// RateLimiter decides whether a sender identified by key may proceed.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Close() error
}

// slidingWindow is the atomic check-and-record script. Counting and adding
// must happen in one round trip or concurrent requests overshoot the limit.
const slidingWindow = `
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])

	redis.call('ZREMRANGEBYSCORE', key, 0, window_start)

	local current = redis.call('ZCARD', key)

	if current < limit then
		redis.call('ZADD', key, now, now)
		redis.call('EXPIRE', key, 60)
		return 1
	else
		return 0
	end
`

type redisRateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewRedisRateLimiter connects to Redis and returns a sliding-window
// limiter allowing limit requests per window per key.
func NewRedisRateLimiter(redisURL string, limit int, window time.Duration) (RateLimiter, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &redisRateLimiter{
		client: client,
		limit:  int64(limit),
		window: window,
	}, nil
}

func (r *redisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now().UnixNano()
	windowStart := now - r.window.Nanoseconds()

	result, err := r.client.Eval(ctx, slidingWindow,
		[]string{"leadpipe:ratelimit:" + key},
		now, windowStart, r.limit,
	).Int64()
	if err != nil {
		// Fail open: a limiter outage must not block lead ingestion.
		return true, fmt.Errorf("rate limit check failed: %w", err)
	}

	if result == 0 {
		metrics.RateLimitHits.WithLabelValues(key).Inc()
		return false, nil
	}
	return true, nil
}

func (r *redisRateLimiter) Close() error {
	return r.client.Close()
}

// NoOpRateLimiter allows everything. Used when Redis is disabled.
type NoOpRateLimiter struct{}

func (*NoOpRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return true, nil
}

func (*NoOpRateLimiter) Close() error {
	return nil
}
