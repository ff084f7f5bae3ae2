// Package scan runs the surebet detection loop: fetch odds from every
// bookmaker feed, consolidate them per match, and evaluate each market
// book for arbitrage.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jmfarina/betscan/internal/arb"
	"github.com/jmfarina/betscan/internal/domain"
	"github.com/jmfarina/betscan/internal/export"
	"github.com/jmfarina/betscan/internal/feed"
	"github.com/jmfarina/betscan/internal/notify"
)

// Config holds the scanning loop parameters.
type Config struct {
	Interval  time.Duration
	Stake     float64
	MinMargin float64
	MaxMargin float64
	MinOdds   float64
	MaxOdds   float64
	Leagues   []string
	Cooldown  time.Duration

	ValueBetsEnabled bool
	MinEdgePercent   float64
}

// Deps bundles the scanner's collaborators. Exporter may be nil when
// report export is disabled.
type Deps struct {
	Sources  []feed.Source
	Odds     domain.OddsStore
	Surebets domain.SurebetStore
	Cache    domain.OddsCache
	Cooldown domain.Cooldown
	Bus      domain.SignalBus
	Notifier *notify.Notifier
	Exporter *export.Exporter
	Logger   *slog.Logger
}

// Stats is a snapshot of the scanner's progress, served over the API and
// websocket status channel.
type Stats struct {
	CyclesRun     int       `json:"cycles_run"`
	LastCycleAt   time.Time `json:"last_cycle_at"`
	LastMatches   int       `json:"last_matches"`
	LastSurebets  int       `json:"last_surebets"`
	TotalSurebets int       `json:"total_surebets"`
}

// Scanner drives the periodic odds collection and surebet evaluation.
type Scanner struct {
	cfg      Config
	sources  []feed.Source
	odds     domain.OddsStore
	surebets domain.SurebetStore
	cache    domain.OddsCache
	cooldown domain.Cooldown
	bus      domain.SignalBus
	notifier *notify.Notifier
	exporter *export.Exporter
	logger   *slog.Logger

	mu    sync.Mutex
	stats Stats
}

// New creates a Scanner.
func New(cfg Config, deps Deps) *Scanner {
	return &Scanner{
		cfg:      cfg,
		sources:  deps.Sources,
		odds:     deps.Odds,
		surebets: deps.Surebets,
		cache:    deps.Cache,
		cooldown: deps.Cooldown,
		bus:      deps.Bus,
		notifier: deps.Notifier,
		exporter: deps.Exporter,
		logger:   deps.Logger.With(slog.String("component", "scanner")),
	}
}

// Stats returns a copy of the scanner's progress counters.
func (s *Scanner) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Run executes scan cycles on the configured interval until ctx is
// cancelled. The first cycle starts immediately.
func (s *Scanner) Run(ctx context.Context) error {
	s.logger.Info("scanner started",
		slog.Int("sources", len(s.sources)),
		slog.Duration("interval", s.cfg.Interval),
		slog.Float64("stake", s.cfg.Stake),
	)
	defer s.logger.Info("scanner stopped")

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error("scan cycle failed", slog.String("error", err.Error()))
			s.notifyError(ctx, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce executes a single scan cycle: fetch, consolidate, evaluate,
// persist, and export.
func (s *Scanner) RunOnce(ctx context.Context) error {
	started := time.Now().UTC()

	perSource := s.fetchAll(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	matches := feed.Consolidate(perSource, s.cfg.Leagues)
	s.logger.Info("odds consolidated",
		slog.Int("matches", len(matches)),
	)

	var (
		records []domain.QuoteRecord
		found   []domain.Surebet
	)
	for _, match := range matches {
		for _, book := range match.Markets {
			book = s.filterBook(book)
			records = append(records, flattenBook(match, book, started)...)

			if err := s.cacheBest(ctx, book); err != nil {
				s.logger.Warn("best odds cache failed", slog.String("error", err.Error()))
			}

			sb, ok, err := s.evaluate(match, book, started)
			if err != nil {
				s.logger.Debug("market skipped",
					slog.String("event_id", book.EventID),
					slog.String("market", book.Market),
					slog.String("reason", err.Error()),
				)
				continue
			}
			if ok {
				found = append(found, sb)
			}

			if s.cfg.ValueBetsEnabled {
				s.reportValueBets(ctx, match, book, started)
			}
		}
	}

	emitted := s.emitSurebets(ctx, found)

	if len(records) > 0 {
		if err := s.odds.InsertBatch(ctx, records); err != nil {
			s.logger.Warn("odds archive insert failed", slog.String("error", err.Error()))
		}
	}
	s.export(ctx, records, emitted, started)

	s.mu.Lock()
	s.stats.CyclesRun++
	s.stats.LastCycleAt = started
	s.stats.LastMatches = len(matches)
	s.stats.LastSurebets = len(found)
	s.stats.TotalSurebets += len(found)
	s.mu.Unlock()

	s.logger.Info("scan cycle complete",
		slog.Int("matches", len(matches)),
		slog.Int("quotes", len(records)),
		slog.Int("surebets", len(found)),
		slog.Duration("elapsed", time.Since(started)),
	)
	return nil
}

// fetchAll queries every source concurrently. A failing source logs a
// warning and contributes nothing; the cycle proceeds with the rest.
func (s *Scanner) fetchAll(ctx context.Context) [][]domain.MatchOdds {
	perSource := make([][]domain.MatchOdds, len(s.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range s.sources {
		g.Go(func() error {
			matches, err := src.Fetch(gctx)
			if err != nil {
				s.logger.Warn("source fetch failed",
					slog.String("source", src.Name()),
					slog.String("error", err.Error()),
				)
				return nil
			}
			perSource[i] = matches
			return nil
		})
	}
	_ = g.Wait()
	return perSource
}

// filterBook drops quotes outside the configured odds band. Implausibly
// low or high prices are usually stale or mistyped lines.
func (s *Scanner) filterBook(book domain.MarketBook) domain.MarketBook {
	outcomes := make([]domain.OutcomeQuotes, 0, len(book.Outcomes))
	for _, oc := range book.Outcomes {
		kept := make([]domain.Quote, 0, len(oc.Quotes))
		for _, q := range oc.Quotes {
			if q.Odds >= s.cfg.MinOdds && q.Odds <= s.cfg.MaxOdds {
				kept = append(kept, q)
			}
		}
		outcomes = append(outcomes, domain.OutcomeQuotes{Label: oc.Label, Quotes: kept})
	}
	return domain.MarketBook{EventID: book.EventID, Market: book.Market, Outcomes: outcomes}
}

// evaluate runs the arbitrage engine on one market book and, when the
// margin lands inside the configured band, builds the Surebet record.
func (s *Scanner) evaluate(match domain.MatchOdds, book domain.MarketBook, now time.Time) (domain.Surebet, bool, error) {
	ev, err := arb.Evaluate(book, s.cfg.Stake)
	if err != nil {
		return domain.Surebet{}, false, err
	}
	if !ev.IsArbitrage {
		return domain.Surebet{}, false, nil
	}
	if ev.MarginPercent < s.cfg.MinMargin {
		return domain.Surebet{}, false, nil
	}
	if ev.MarginPercent > s.cfg.MaxMargin {
		// Margins this wide almost always mean a stale or palped line.
		s.logger.Warn("surebet margin above ceiling, discarded",
			slog.String("match", match.Name()),
			slog.String("market", book.Market),
			slog.Float64("margin", ev.MarginPercent),
		)
		return domain.Surebet{}, false, nil
	}

	return domain.Surebet{
		ID:               uuid.New().String(),
		EventID:          match.EventID,
		MatchName:        match.Name(),
		League:           match.League,
		Country:          match.Country,
		Market:           book.Market,
		MarginPercent:    ev.MarginPercent,
		ROIPercent:       ev.ROIPercent,
		TotalStake:       ev.TotalStake,
		GuaranteedReturn: ev.GuaranteedReturn,
		GuaranteedProfit: ev.GuaranteedProfit,
		Legs:             ev.Stakes,
		DetectedAt:       now,
	}, true, nil
}

// emitSurebets persists, publishes, and notifies the cycle's findings.
// A cooldown per event+market suppresses re-emitting the same surebet on
// every cycle while its odds persist. Returns the surebets that passed
// the cooldown.
func (s *Scanner) emitSurebets(ctx context.Context, found []domain.Surebet) []domain.Surebet {
	emitted := make([]domain.Surebet, 0, len(found))
	for _, sb := range found {
		key := "surebet:" + sb.EventID + ":" + sb.Market
		armed, err := s.cooldown.Arm(ctx, key, s.cfg.Cooldown)
		if err != nil {
			s.logger.Warn("cooldown check failed", slog.String("error", err.Error()))
			armed = true
		}
		if !armed {
			s.logger.Debug("surebet suppressed by cooldown",
				slog.String("match", sb.MatchName),
				slog.String("market", sb.Market),
			)
			continue
		}

		s.logger.Info("surebet detected",
			slog.String("match", sb.MatchName),
			slog.String("market", sb.Market),
			slog.Float64("margin", sb.MarginPercent),
			slog.Float64("profit", sb.GuaranteedProfit),
		)

		if err := s.surebets.Insert(ctx, sb); err != nil {
			s.logger.Warn("surebet insert failed", slog.String("error", err.Error()))
		}
		if err := s.bus.Announce(ctx, domain.ChannelSurebets, sb); err != nil {
			s.logger.Warn("surebet announce failed", slog.String("error", err.Error()))
		}

		title, message := notify.FormatSurebet(sb)
		if err := s.notifier.Notify(ctx, notify.EventSurebet, title, message); err != nil {
			s.logger.Warn("notify failed", slog.String("error", err.Error()))
		}
		emitted = append(emitted, sb)
	}
	return emitted
}

// reportValueBets flags outcomes priced above market consensus.
func (s *Scanner) reportValueBets(ctx context.Context, match domain.MatchOdds, book domain.MarketBook, now time.Time) {
	for _, vb := range arb.ValueBets(book, s.cfg.MinEdgePercent, now) {
		vb.MatchName = match.Name()
		s.logger.Info("value bet detected",
			slog.String("match", vb.MatchName),
			slog.String("outcome", vb.Outcome),
			slog.String("bookmaker", vb.Bookmaker),
			slog.Float64("odds", vb.Odds),
			slog.Float64("edge", vb.ValuePercent),
		)

		title, message := notify.FormatValueBet(vb)
		if err := s.notifier.Notify(ctx, notify.EventValueBet, title, message); err != nil {
			s.logger.Warn("notify failed", slog.String("error", err.Error()))
		}
	}
}

// cacheBest writes the current best quote per outcome into the odds cache.
func (s *Scanner) cacheBest(ctx context.Context, book domain.MarketBook) error {
	best := make([]domain.Quote, 0, len(book.Outcomes))
	for _, oc := range book.Outcomes {
		if q, ok := oc.Best(); ok {
			best = append(best, q)
		}
	}
	if len(best) == 0 {
		return nil
	}
	return s.cache.SetBest(ctx, book.EventID, book.Market, best)
}

// export writes the cycle's odds archive and surebet reports.
func (s *Scanner) export(ctx context.Context, records []domain.QuoteRecord, emitted []domain.Surebet, ts time.Time) {
	if s.exporter == nil {
		return
	}
	if _, err := s.exporter.WriteOdds(ctx, records, ts); err != nil {
		s.logger.Warn("odds export failed", slog.String("error", err.Error()))
	}
	if _, err := s.exporter.WriteSurebets(ctx, emitted, ts); err != nil {
		s.logger.Warn("surebet export failed", slog.String("error", err.Error()))
	}
}

func (s *Scanner) notifyError(ctx context.Context, err error) {
	msg := fmt.Sprintf("Scan cycle failed: %v", err)
	if nerr := s.notifier.Notify(ctx, notify.EventError, "Scanner error", msg); nerr != nil {
		s.logger.Warn("error notification failed", slog.String("error", nerr.Error()))
	}
}

// flattenBook turns a market book into archive rows.
func flattenBook(match domain.MatchOdds, book domain.MarketBook, ts time.Time) []domain.QuoteRecord {
	var rows []domain.QuoteRecord
	for _, oc := range book.Outcomes {
		for _, q := range oc.Quotes {
			rows = append(rows, domain.QuoteRecord{
				EventID:     book.EventID,
				MatchName:   match.Name(),
				League:      match.League,
				Market:      book.Market,
				Outcome:     oc.Label,
				Bookmaker:   q.Bookmaker,
				Odds:        q.Odds,
				CollectedAt: ts,
			})
		}
	}
	return rows
}
