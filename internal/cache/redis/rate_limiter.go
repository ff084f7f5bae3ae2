package redis

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jmfarina/betscan/internal/domain"
	"github.com/redis/go-redis/v9"
)

//go:embed scripts/sliding_window.lua
var slidingWindowLua string

// waitPollInterval is how often Wait re-checks a saturated budget.
const waitPollInterval = 50 * time.Millisecond

// RateLimiter implements domain.RateLimiter with a sliding window over a
// Redis sorted set, scored by request time. The window slides per
// microsecond rather than resetting per interval, so a bookmaker budget of
// N per minute never bursts to 2N around a boundary. The set is shared
// across scanner instances: the budget is per bookmaker, not per process.
type RateLimiter struct {
	rdb           *redis.Client
	slidingWindow *redis.Script

	// defaultLimit/defaultWindow are the per-bookmaker feed budget from
	// config, used when a caller Waits without naming a custom budget.
	defaultLimit  int
	defaultWindow time.Duration
}

// NewRateLimiter creates a RateLimiter backed by the given Client. The
// default budget applies to Wait; Allow callers pass their own.
func NewRateLimiter(c *Client, defaultLimit int, defaultWindow time.Duration) *RateLimiter {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	if defaultWindow <= 0 {
		defaultWindow = time.Minute
	}
	return &RateLimiter{
		rdb:           c.rdb,
		slidingWindow: redis.NewScript(slidingWindowLua),
		defaultLimit:  defaultLimit,
		defaultWindow: defaultWindow,
	}
}

func rateLimitKey(key string) string {
	return "ratelimit:" + key
}

// Allow reports whether a request under the given key fits the budget and,
// if so, counts it. Feed sources key by bookmaker ("feed:<name>") so every
// scanner instance draws from the same allowance.
func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	result, err := rl.slidingWindow.Run(
		ctx,
		rl.rdb,
		[]string{rateLimitKey(key)},
		time.Now().UnixMicro(),
		window.Microseconds(),
		limit,
	).Int64Slice()
	if err != nil {
		return false, fmt.Errorf("redis: rate limit allow %s: %w", key, err)
	}
	if len(result) < 2 {
		return false, fmt.Errorf("redis: rate limit allow %s: unexpected result length %d", key, len(result))
	}
	return result[0] == 1, nil
}

// Wait blocks until the key's default budget admits a request, polling at
// a fixed interval. It returns the context error on cancellation.
func (rl *RateLimiter) Wait(ctx context.Context, key string) error {
	ticker := time.NewTicker(waitPollInterval)
	defer ticker.Stop()

	for {
		allowed, err := rl.Allow(ctx, key, rl.defaultLimit, rl.defaultWindow)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("redis: rate limit wait %s: %w", key, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Compile-time interface check.
var _ domain.RateLimiter = (*RateLimiter)(nil)
