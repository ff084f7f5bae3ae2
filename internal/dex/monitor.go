package dex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/jmfarina/betscan/internal/domain"
	"github.com/jmfarina/betscan/internal/notify"
)

// MonitorConfig configures the price monitor.
type MonitorConfig struct {
	Interval             time.Duration
	PriceChangeThreshold float64 // percent, absolute
	MinROIThreshold      float64 // percent, after fees
	AlertCooldown        time.Duration
	TradeAmountUSD       float64
	GasLimitSwap         uint64
}

// Pair is one monitored pool with its decimal scales.
type Pair struct {
	domain.TokenPair
	Token0Decimals int
	Token1Decimals int
}

// Monitor polls pool prices on a fixed interval and records price moves
// that clear the change threshold.
type Monitor struct {
	cfg      MonitorConfig
	clients  map[string]*Client // by chain
	spot     *SpotClient
	pairs    []Pair
	prices   domain.PriceCache
	cooldown domain.Cooldown
	store    domain.DexOpportunityStore
	bus      domain.SignalBus
	notifier *notify.Notifier
	logger   *slog.Logger
}

// MonitorDeps bundles the monitor's collaborators.
type MonitorDeps struct {
	Clients  map[string]*Client
	Spot     *SpotClient
	Pairs    []Pair
	Prices   domain.PriceCache
	Cooldown domain.Cooldown
	Store    domain.DexOpportunityStore
	Bus      domain.SignalBus
	Notifier *notify.Notifier
	Logger   *slog.Logger
}

// NewMonitor creates a Monitor.
func NewMonitor(cfg MonitorConfig, deps MonitorDeps) *Monitor {
	return &Monitor{
		cfg:      cfg,
		clients:  deps.Clients,
		spot:     deps.Spot,
		pairs:    deps.Pairs,
		prices:   deps.Prices,
		cooldown: deps.Cooldown,
		store:    deps.Store,
		bus:      deps.Bus,
		notifier: deps.Notifier,
		logger:   deps.Logger.With(slog.String("component", "dex_monitor")),
	}
}

// Run polls all pairs on the configured interval until ctx is cancelled.
// The first poll happens immediately.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("dex monitor started",
		slog.Int("pairs", len(m.pairs)),
		slog.Duration("interval", m.cfg.Interval),
	)
	defer m.logger.Info("dex monitor stopped")

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		m.pollAll(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// pollAll runs one polling cycle. Per-pair failures are logged and do not
// abort the cycle.
func (m *Monitor) pollAll(ctx context.Context) {
	for _, pair := range m.pairs {
		if ctx.Err() != nil {
			return
		}
		if err := m.pollPair(ctx, pair); err != nil {
			m.logger.Warn("pair poll failed",
				slog.String("pair", pair.Label()),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (m *Monitor) pollPair(ctx context.Context, pair Pair) error {
	client, ok := m.clients[pair.Chain]
	if !ok {
		return fmt.Errorf("dex: no client for chain %q", pair.Chain)
	}

	price, err := client.PoolPrice(ctx, common.HexToAddress(pair.PoolAddress), pair.Token0Decimals, pair.Token1Decimals)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	prev, prevTS, err := m.prices.GetPrice(ctx, pair.Key())
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		// First observation: nothing to compare against yet.
		m.logger.Debug("first price observed",
			slog.String("pair", pair.Label()),
			slog.Float64("price", price),
		)
		return m.prices.SetPrice(ctx, pair.Key(), price, now)
	}

	if err := m.prices.SetPrice(ctx, pair.Key(), price, now); err != nil {
		return err
	}

	change := ChangePercent(prev, price)
	m.logger.Debug("pair polled",
		slog.String("pair", pair.Label()),
		slog.Float64("price", price),
		slog.Float64("change_percent", change),
		slog.Time("previous_at", prevTS),
	)

	if math.Abs(change) < m.cfg.PriceChangeThreshold {
		return nil
	}

	opp, err := m.buildOpportunity(ctx, client, pair, prev, price, change, now)
	if err != nil {
		return err
	}
	return m.emit(ctx, opp)
}

// buildOpportunity prices the move's gas cost and profitability.
func (m *Monitor) buildOpportunity(ctx context.Context, client *Client, pair Pair, before, after, change float64, now time.Time) (domain.DexOpportunity, error) {
	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return domain.DexOpportunity{}, err
	}
	nativeUSD, err := m.spot.NativeUSD(ctx, pair.Chain)
	if err != nil {
		return domain.DexOpportunity{}, err
	}

	gasUSD := GasFeeUSD(gasPrice, m.cfg.GasLimitSwap, nativeUSD)
	profit, roi := Profitability(change, m.cfg.TradeAmountUSD, gasUSD)

	return domain.DexOpportunity{
		ID:                  uuid.New().String(),
		Pair:                pair.TokenPair,
		PriceBefore:         before,
		PriceAfter:          after,
		ChangePercent:       change,
		GasFeeUSD:           gasUSD,
		TradeAmountUSD:      m.cfg.TradeAmountUSD,
		PotentialProfitUSD:  profit,
		ROIAfterFeesPercent: roi,
		Viable:              roi >= m.cfg.MinROIThreshold,
		DetectedAt:          now,
	}, nil
}

// emit persists, publishes, and (cooldown permitting) notifies one
// opportunity.
func (m *Monitor) emit(ctx context.Context, opp domain.DexOpportunity) error {
	m.logger.Info("price move detected",
		slog.String("pair", opp.Pair.Label()),
		slog.Float64("change_percent", opp.ChangePercent),
		slog.Float64("roi_after_fees", opp.ROIAfterFeesPercent),
		slog.Bool("viable", opp.Viable),
	)

	if err := m.store.Insert(ctx, opp); err != nil {
		return err
	}

	if err := m.bus.Announce(ctx, domain.ChannelDexMoves, opp); err != nil {
		m.logger.Warn("announce failed", slog.String("error", err.Error()))
	}

	armed, err := m.cooldown.Arm(ctx, "dex:"+opp.Pair.Key(), m.cfg.AlertCooldown)
	if err != nil {
		return err
	}
	if !armed {
		m.logger.Debug("alert suppressed by cooldown", slog.String("pair", opp.Pair.Label()))
		return nil
	}

	title, message := notify.FormatDexMove(opp)
	if err := m.notifier.Notify(ctx, notify.EventDexMove, title, message); err != nil {
		m.logger.Warn("notify failed", slog.String("error", err.Error()))
	}
	return nil
}
