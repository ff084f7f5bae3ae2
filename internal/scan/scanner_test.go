package scan

import (
	"context"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/jmfarina/betscan/internal/domain"
	"github.com/jmfarina/betscan/internal/feed"
	"github.com/jmfarina/betscan/internal/notify"
)

type memOddsStore struct {
	records []domain.QuoteRecord
}

func (m *memOddsStore) InsertBatch(ctx context.Context, records []domain.QuoteRecord) error {
	m.records = append(m.records, records...)
	return nil
}

func (m *memOddsStore) ListByEvent(ctx context.Context, eventID string, opts domain.ListOpts) ([]domain.QuoteRecord, error) {
	return nil, nil
}

func (m *memOddsStore) Count(ctx context.Context) (int64, error) {
	return int64(len(m.records)), nil
}

type memSurebetStore struct {
	rows []domain.Surebet
}

func (m *memSurebetStore) Insert(ctx context.Context, sb domain.Surebet) error {
	m.rows = append(m.rows, sb)
	return nil
}

func (m *memSurebetStore) GetByID(ctx context.Context, id string) (domain.Surebet, error) {
	return domain.Surebet{}, domain.ErrNotFound
}

func (m *memSurebetStore) ListRecent(ctx context.Context, limit int) ([]domain.Surebet, error) {
	return m.rows, nil
}

func (m *memSurebetStore) SumGuaranteedProfit(ctx context.Context, since time.Time) (float64, error) {
	return 0, nil
}

type memOddsCache struct {
	best map[string][]domain.Quote
}

func (m *memOddsCache) SetBest(ctx context.Context, eventID, market string, best []domain.Quote) error {
	if m.best == nil {
		m.best = map[string][]domain.Quote{}
	}
	m.best[eventID+":"+market] = best
	return nil
}

func (m *memOddsCache) GetBest(ctx context.Context, eventID, market string) ([]domain.Quote, error) {
	best, ok := m.best[eventID+":"+market]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return best, nil
}

type memCooldown struct {
	armed map[string]bool
}

func (m *memCooldown) Arm(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if m.armed == nil {
		m.armed = map[string]bool{}
	}
	if m.armed[key] {
		return false, nil
	}
	m.armed[key] = true
	return true, nil
}

func (m *memCooldown) Remaining(ctx context.Context, key string) (time.Duration, error) {
	return 0, domain.ErrNotFound
}

type memBus struct {
	announced map[string][]any
}

func (m *memBus) Announce(ctx context.Context, channel string, event any) error {
	if m.announced == nil {
		m.announced = map[string][]any{}
	}
	m.announced[channel] = append(m.announced[channel], event)
	return nil
}

func (m *memBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	return nil, nil
}

func (m *memBus) StreamRead(ctx context.Context, stream, lastID string, count int) ([]domain.StreamMessage, error) {
	return nil, nil
}

type stubSender struct {
	titles []string
}

func (s *stubSender) Send(ctx context.Context, title, message string) error {
	s.titles = append(s.titles, title)
	return nil
}

func (s *stubSender) Name() string { return "stub" }

type harness struct {
	scanner  *Scanner
	odds     *memOddsStore
	surebets *memSurebetStore
	sender   *stubSender
	bus      *memBus
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := &harness{
		odds:     &memOddsStore{},
		surebets: &memSurebetStore{},
		sender:   &stubSender{},
		bus:      &memBus{},
	}
	h.scanner = New(cfg, Deps{
		Sources:  feed.NewDemoSources(time.Date(2026, 3, 15, 20, 0, 0, 0, time.UTC)),
		Odds:     h.odds,
		Surebets: h.surebets,
		Cache:    &memOddsCache{},
		Cooldown: &memCooldown{},
		Bus:      h.bus,
		Notifier: notify.NewNotifier([]notify.Sender{h.sender}, nil, logger),
		Logger:   logger,
	})
	return h
}

func baseConfig() Config {
	return Config{
		Interval:  time.Minute,
		Stake:     10000,
		MinMargin: 1.0,
		MaxMargin: 10.0,
		MinOdds:   1.1,
		MaxOdds:   50.0,
		Cooldown:  15 * time.Minute,
	}
}

func TestRunOnceDetectsDemoSurebet(t *testing.T) {
	h := newHarness(t, baseConfig())

	if err := h.scanner.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	if len(h.surebets.rows) != 1 {
		t.Fatalf("surebets persisted = %d, want 1", len(h.surebets.rows))
	}
	sb := h.surebets.rows[0]
	if sb.MatchName != "Boca Juniors vs River Plate" {
		t.Errorf("match = %q", sb.MatchName)
	}
	if math.Abs(sb.MarginPercent-1.9192) > 0.001 {
		t.Errorf("margin = %v, want ~1.9192", sb.MarginPercent)
	}
	if len(sb.Legs) != 3 {
		t.Errorf("legs = %d, want 3", len(sb.Legs))
	}

	// Two fixtures, three outcomes each, three bookmakers.
	if len(h.odds.records) != 18 {
		t.Errorf("archived quotes = %d, want 18", len(h.odds.records))
	}
	if n := len(h.bus.announced[domain.ChannelSurebets]); n != 1 {
		t.Errorf("announced = %d, want 1", n)
	}
	if len(h.sender.titles) != 1 || !strings.Contains(h.sender.titles[0], "1.9") {
		t.Errorf("notifications = %v", h.sender.titles)
	}

	stats := h.scanner.Stats()
	if stats.CyclesRun != 1 || stats.LastMatches != 2 || stats.TotalSurebets != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRunOnceCooldownSuppressesRepeat(t *testing.T) {
	h := newHarness(t, baseConfig())

	for range 2 {
		if err := h.scanner.RunOnce(context.Background()); err != nil {
			t.Fatalf("RunOnce: %v", err)
		}
	}

	if len(h.surebets.rows) != 1 {
		t.Fatalf("surebets persisted = %d, want 1 after repeat cycle", len(h.surebets.rows))
	}
	if len(h.sender.titles) != 1 {
		t.Fatalf("notifications = %d, want 1", len(h.sender.titles))
	}
	// The odds archive still records every cycle.
	if len(h.odds.records) != 36 {
		t.Fatalf("archived quotes = %d, want 36", len(h.odds.records))
	}
}

func TestRunOnceMarginFloorFiltersSurebet(t *testing.T) {
	cfg := baseConfig()
	cfg.MinMargin = 5.0
	h := newHarness(t, cfg)

	if err := h.scanner.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(h.surebets.rows) != 0 {
		t.Fatalf("surebets persisted = %d, want 0", len(h.surebets.rows))
	}
}

func TestRunOnceOddsBandDropsStaleLine(t *testing.T) {
	// Capping odds at 3.5 removes the 3.60 draw quote; the remaining best
	// prices (2.50 / 3.40 / 3.30) sum to ~0.9971 inverse, under the 1%
	// margin floor.
	cfg := baseConfig()
	cfg.MaxOdds = 3.5
	h := newHarness(t, cfg)

	if err := h.scanner.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(h.surebets.rows) != 0 {
		t.Fatalf("surebets persisted = %d, want 0", len(h.surebets.rows))
	}
	// The dropped quote is also absent from the archive.
	if len(h.odds.records) != 17 {
		t.Fatalf("archived quotes = %d, want 17", len(h.odds.records))
	}
}
