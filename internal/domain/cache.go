package domain

import (
	"context"
	"time"
)

// OddsCache stores the latest best quote per outcome of a market book, so
// the HTTP layer and scanner restarts can read current state without
// re-fetching the bookmakers.
type OddsCache interface {
	SetBest(ctx context.Context, eventID, market string, best []Quote) error
	GetBest(ctx context.Context, eventID, market string) ([]Quote, error)
}

// PriceCache provides fast access to the latest observed pool prices.
type PriceCache interface {
	SetPrice(ctx context.Context, pairKey string, price float64, ts time.Time) error
	GetPrice(ctx context.Context, pairKey string) (float64, time.Time, error)
}

// Cooldown suppresses repeat alerts for the same key within a window.
// Arm returns true when the key was not cooling down and is now armed.
type Cooldown interface {
	Arm(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Remaining(ctx context.Context, key string) (time.Duration, error)
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Wait(ctx context.Context, key string) error
}

// Signal-bus channels. Each channel doubles as a durable stream of the
// same name.
const (
	ChannelSurebets = "surebets"
	ChannelDexMoves = "dex_moves"
)

// StreamMessage represents a single entry from a durable stream.
type StreamMessage struct {
	ID      string
	Payload []byte
}

// SignalBus carries detection events (surebets, pool price moves) between
// the services and live consumers. Announce encodes the event as JSON,
// fans it out to current subscribers, and appends it to the channel's
// durable stream; StreamRead lets a restarted consumer catch up.
type SignalBus interface {
	Announce(ctx context.Context, channel string, event any) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	StreamRead(ctx context.Context, stream string, lastID string, count int) ([]StreamMessage, error)
}
