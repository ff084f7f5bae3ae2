package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmfarina/betscan/internal/domain"
	"github.com/redis/go-redis/v9"
)

// streamMaxLen caps each detection stream via XADD MAXLEN ~. At one entry
// per emitted surebet or price move this holds days of history.
const streamMaxLen int64 = 10000

// streamField is the single hash field each stream entry stores the
// encoded event under.
const streamField = "event"

// SignalBus implements domain.SignalBus on Redis: Pub/Sub for live fan-out
// to websocket clients, a stream per channel for catch-up after restarts.
type SignalBus struct {
	rdb    *redis.Client
	maxLen int64
}

// NewSignalBus creates a SignalBus backed by the given Client.
func NewSignalBus(c *Client) *SignalBus {
	return &SignalBus{rdb: c.rdb, maxLen: streamMaxLen}
}

// Announce encodes a detection event and delivers it both ways in one
// round trip: PUBLISH for live subscribers, XADD for the durable stream.
func (sb *SignalBus) Announce(ctx context.Context, channel string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("redis: encode %s event: %w", channel, err)
	}

	pipe := sb.rdb.Pipeline()
	pipe.Publish(ctx, channel, payload)
	pipe.XAdd(ctx, &redis.XAddArgs{
		Stream: channel,
		MaxLen: sb.maxLen,
		Approx: true,
		Values: map[string]any{streamField: payload},
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: announce %s: %w", channel, err)
	}
	return nil
}

// Subscribe returns a channel of raw event payloads published on the given
// bus channel. It is closed when ctx is cancelled. Channel names are the
// fixed domain constants, so plain SUBSCRIBE suffices.
func (sb *SignalBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	pubsub := sb.rdb.Subscribe(ctx, channel)

	// Receive the confirmation so a broken connection fails here, not
	// silently in the forwarding goroutine.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis: subscribe %s: %w", channel, err)
	}

	out := make(chan []byte, 128)
	go func() {
		defer close(out)
		defer pubsub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-pubsub.Channel():
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// StreamRead returns up to count events appended after lastID. Use "0" to
// read from the beginning. No pending events is not an error; it returns
// an empty slice.
func (sb *SignalBus) StreamRead(ctx context.Context, stream string, lastID string, count int) ([]domain.StreamMessage, error) {
	results, err := sb.rdb.XRead(ctx, &redis.XReadArgs{
		Streams: []string{stream, lastID},
		Count:   int64(count),
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis: stream read %s: %w", stream, err)
	}

	var messages []domain.StreamMessage
	for _, s := range results {
		for _, entry := range s.Messages {
			payload, ok := decodeStreamEntry(entry.Values)
			if !ok {
				continue
			}
			messages = append(messages, domain.StreamMessage{ID: entry.ID, Payload: payload})
		}
	}
	return messages, nil
}

// decodeStreamEntry extracts the event payload from a stream entry's hash
// values. The driver hands strings back for fields written as []byte.
func decodeStreamEntry(values map[string]any) ([]byte, bool) {
	switch v := values[streamField].(type) {
	case string:
		return []byte(v), true
	case []byte:
		return v, true
	default:
		return nil, false
	}
}

// Compile-time interface check.
var _ domain.SignalBus = (*SignalBus)(nil)
