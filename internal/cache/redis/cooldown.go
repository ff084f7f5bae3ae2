package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/jmfarina/betscan/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Cooldown implements domain.Cooldown using Redis SETNX with a TTL. Arming
// is atomic, so concurrent scanner instances agree on which one alerts.
type Cooldown struct {
	rdb *redis.Client
}

// NewCooldown creates a Cooldown backed by the given Client.
func NewCooldown(c *Client) *Cooldown {
	return &Cooldown{rdb: c.rdb}
}

func cooldownKey(key string) string {
	return "cooldown:" + key
}

// Arm marks the key as alerted for the given TTL. It returns true when the
// key was not cooling down (the caller should alert), false when an earlier
// alert is still inside its window.
func (cd *Cooldown) Arm(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := cd.rdb.SetNX(ctx, cooldownKey(key), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis: arm cooldown %s: %w", key, err)
	}
	return ok, nil
}

// Remaining reports how long the cooldown for key has left to run. It
// returns domain.ErrNotFound when the key is not cooling down.
func (cd *Cooldown) Remaining(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := cd.rdb.TTL(ctx, cooldownKey(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: cooldown ttl %s: %w", key, err)
	}
	// go-redis returns -2 for a missing key and -1 for a key without TTL.
	if ttl < 0 {
		return 0, domain.ErrNotFound
	}
	return ttl, nil
}

// Compile-time interface check.
var _ domain.Cooldown = (*Cooldown)(nil)
