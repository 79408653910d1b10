package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter enforces per-API-key request limits on the ingest path.
type Limiter interface {
	Allow(ctx context.Context, apiKeyID string, limit int) (bool, error)
}

// NoopLimiter allows all requests. Used when no Redis is configured.
type NoopLimiter struct{}

func NewNoopLimiter() *NoopLimiter {
	return &NoopLimiter{}
}

func (l *NoopLimiter) Allow(ctx context.Context, apiKeyID string, limit int) (bool, error) {
	return true, nil
}

// RateLimiter implements distributed rate limiting using Redis sorted sets
// with a one-minute sliding window.
type RateLimiter struct {
	client *redis.Client
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow checks if a request should be allowed for the given key
func (rl *RateLimiter) Allow(ctx context.Context, apiKeyID string, limit int) (bool, error) {
	return rl.AllowN(ctx, apiKeyID, limit, 1)
}

// AllowN checks if N requests should be allowed for the given key
func (rl *RateLimiter) AllowN(ctx context.Context, apiKeyID string, limit int, count int) (bool, error) {
	if limit <= 0 {
		// No limit configured
		return true, nil
	}

	key := fmt.Sprintf("ratelimit:%s", apiKeyID)
	now := time.Now()
	windowStart := now.Add(-1 * time.Minute)

	pipe := rl.client.Pipeline()

	// Remove old entries outside the window
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart.UnixMilli()))

	// Count current requests in window
	countCmd := pipe.ZCard(ctx, key)

	// Add current request(s) with timestamp as score
	for i := 0; i < count; i++ {
		timestamp := now.Add(time.Duration(i) * time.Microsecond).UnixMilli()
		pipe.ZAdd(ctx, key, redis.Z{
			Score:  float64(timestamp),
			Member: fmt.Sprintf("%d:%d", timestamp, i),
		})
	}

	// Expire idle keys
	pipe.Expire(ctx, key, 2*time.Minute)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	return int(countCmd.Val()) <= limit, nil
}

// CurrentUsage returns the current request count in the window
func (rl *RateLimiter) CurrentUsage(ctx context.Context, apiKeyID string) (int64, error) {
	key := fmt.Sprintf("ratelimit:%s", apiKeyID)
	windowStart := time.Now().Add(-1 * time.Minute)

	if err := rl.client.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart.UnixMilli())).Err(); err != nil {
		return 0, fmt.Errorf("failed to clean old entries: %w", err)
	}

	count, err := rl.client.ZCard(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get current usage: %w", err)
	}

	return count, nil
}

// Reset resets the rate limit for a key
func (rl *RateLimiter) Reset(ctx context.Context, apiKeyID string) error {
	key := fmt.Sprintf("ratelimit:%s", apiKeyID)
	return rl.client.Del(ctx, key).Err()
}
