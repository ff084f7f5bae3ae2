package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jmfarina/betscan/internal/domain"
)

// Demo mode runs the whole pipeline without Postgres or Redis. These
// in-memory implementations back it. They are not meant for production
// use: nothing survives a restart and streams are unbounded only up to
// memStreamMax entries.

const memStreamMax = 1000

type memoryOddsStore struct {
	mu      sync.Mutex
	records []domain.QuoteRecord
}

var _ domain.OddsStore = (*memoryOddsStore)(nil)

func newMemoryOddsStore() *memoryOddsStore { return &memoryOddsStore{} }

func (m *memoryOddsStore) InsertBatch(ctx context.Context, records []domain.QuoteRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, records...)
	return nil
}

func (m *memoryOddsStore) ListByEvent(ctx context.Context, eventID string, opts domain.ListOpts) ([]domain.QuoteRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.QuoteRecord
	for _, r := range m.records {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *memoryOddsStore) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.records)), nil
}

type memorySurebetStore struct {
	mu   sync.Mutex
	rows []domain.Surebet
}

var _ domain.SurebetStore = (*memorySurebetStore)(nil)

func newMemorySurebetStore() *memorySurebetStore { return &memorySurebetStore{} }

func (m *memorySurebetStore) Insert(ctx context.Context, sb domain.Surebet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, sb)
	return nil
}

func (m *memorySurebetStore) GetByID(ctx context.Context, id string) (domain.Surebet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sb := range m.rows {
		if sb.ID == id {
			return sb, nil
		}
	}
	return domain.Surebet{}, domain.ErrNotFound
}

func (m *memorySurebetStore) ListRecent(ctx context.Context, limit int) ([]domain.Surebet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Surebet, len(m.rows))
	copy(out, m.rows)
	sort.Slice(out, func(i, j int) bool { return out[i].DetectedAt.After(out[j].DetectedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memorySurebetStore) SumGuaranteedProfit(ctx context.Context, since time.Time) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total float64
	for _, sb := range m.rows {
		if !sb.DetectedAt.Before(since) {
			total += sb.GuaranteedProfit
		}
	}
	return total, nil
}

type memoryOddsCache struct {
	mu   sync.Mutex
	best map[string][]domain.Quote
}

var _ domain.OddsCache = (*memoryOddsCache)(nil)

func newMemoryOddsCache() *memoryOddsCache {
	return &memoryOddsCache{best: map[string][]domain.Quote{}}
}

func (m *memoryOddsCache) SetBest(ctx context.Context, eventID, market string, best []domain.Quote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.best[eventID+":"+market] = best
	return nil
}

func (m *memoryOddsCache) GetBest(ctx context.Context, eventID, market string) ([]domain.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	best, ok := m.best[eventID+":"+market]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return best, nil
}

type memoryCooldown struct {
	mu    sync.Mutex
	until map[string]time.Time
}

var _ domain.Cooldown = (*memoryCooldown)(nil)

func newMemoryCooldown() *memoryCooldown {
	return &memoryCooldown{until: map[string]time.Time{}}
}

func (m *memoryCooldown) Arm(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if t, ok := m.until[key]; ok && now.Before(t) {
		return false, nil
	}
	m.until[key] = now.Add(ttl)
	return true, nil
}

func (m *memoryCooldown) Remaining(ctx context.Context, key string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.until[key]
	if !ok || !time.Now().Before(t) {
		return 0, domain.ErrNotFound
	}
	return time.Until(t), nil
}

type memorySignalBus struct {
	mu      sync.Mutex
	subs    map[string][]chan []byte
	streams map[string][]domain.StreamMessage
	nextID  int64
}

var _ domain.SignalBus = (*memorySignalBus)(nil)

func newMemorySignalBus() *memorySignalBus {
	return &memorySignalBus{
		subs:    map[string][]chan []byte{},
		streams: map[string][]domain.StreamMessage{},
	}
}

func (m *memorySignalBus) Announce(ctx context.Context, channel string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("memory bus: encode %s event: %w", channel, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subs[channel] {
		select {
		case ch <- payload:
		default:
		}
	}
	m.appendLocked(channel, payload)
	return nil
}

func (m *memorySignalBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ch := make(chan []byte, 128)
	m.mu.Lock()
	m.subs[channel] = append(m.subs[channel], ch)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		chans := m.subs[channel]
		for i, c := range chans {
			if c == ch {
				m.subs[channel] = append(chans[:i], chans[i+1:]...)
				close(ch)
				break
			}
		}
	}()
	return ch, nil
}

func (m *memorySignalBus) appendLocked(stream string, payload []byte) {
	m.nextID++
	entries := append(m.streams[stream], domain.StreamMessage{
		ID:      fmt.Sprintf("%d-%d", time.Now().UnixMilli(), m.nextID),
		Payload: payload,
	})
	if len(entries) > memStreamMax {
		entries = entries[len(entries)-memStreamMax:]
	}
	m.streams[stream] = entries
}

func (m *memorySignalBus) StreamRead(ctx context.Context, stream, lastID string, count int) ([]domain.StreamMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := m.streams[stream]
	start := 0
	for i, e := range entries {
		if e.ID == lastID {
			start = i + 1
			break
		}
	}
	out := entries[start:]
	if count > 0 && len(out) > count {
		out = out[:count]
	}
	res := make([]domain.StreamMessage, len(out))
	copy(res, out)
	return res, nil
}
