package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jmfarina/betscan/internal/dex"
	"github.com/jmfarina/betscan/internal/domain"
	"github.com/jmfarina/betscan/internal/feed"
	"github.com/jmfarina/betscan/internal/scan"
	"github.com/jmfarina/betscan/internal/server"
	"github.com/jmfarina/betscan/internal/server/handler"
	"github.com/jmfarina/betscan/internal/server/ws"
)

// shutdownGrace bounds how long the HTTP server waits for in-flight
// requests on shutdown.
const shutdownGrace = 10 * time.Second

// ScanMode runs the surebet scanning loop against the configured
// bookmaker feeds, plus the API server when enabled.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scan mode",
		slog.Int("bookmakers", len(a.cfg.Scan.Bookmakers)),
	)

	g, ctx := errgroup.WithContext(ctx)

	scanner := a.buildScanner(deps, a.apiSources(deps))
	g.Go(func() error {
		return scanner.Run(ctx)
	})

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, scanner)
	}

	return g.Wait()
}

// DexMode runs only the pool price monitor, plus the API server when
// enabled.
func (a *App) DexMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting dex mode",
		slog.Int("pairs", len(a.cfg.Dex.Pairs)),
	)

	g, ctx := errgroup.WithContext(ctx)

	monitor, closeClients, err := a.buildMonitor(ctx, deps)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, closeClients)
	g.Go(func() error {
		return monitor.Run(ctx)
	})

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, nil)
	}

	return g.Wait()
}

// DemoMode runs a single scan cycle against canned fixtures, entirely
// offline, and prints what was found. Useful for smoke-testing a fresh
// install.
func (a *App) DemoMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting demo mode")

	scanner := a.buildScanner(deps, feed.NewDemoSources(time.Now().Add(24*time.Hour)))
	if err := scanner.RunOnce(ctx); err != nil {
		return fmt.Errorf("app: demo cycle: %w", err)
	}

	found, err := deps.SurebetStore.ListRecent(ctx, 10)
	if err != nil {
		return fmt.Errorf("app: demo results: %w", err)
	}
	for _, sb := range found {
		a.logger.InfoContext(ctx, "demo surebet",
			slog.String("match", sb.MatchName),
			slog.String("market", sb.Market),
			slog.Float64("margin_percent", sb.MarginPercent),
			slog.Float64("guaranteed_profit", sb.GuaranteedProfit),
		)
	}
	a.logger.InfoContext(ctx, "demo complete", slog.Int("surebets", len(found)))
	return nil
}

// FullMode runs the scanner, the pool monitor (when configured), and the
// API server together.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	scanner := a.buildScanner(deps, a.apiSources(deps))
	g.Go(func() error {
		return scanner.Run(ctx)
	})

	if len(a.cfg.Dex.Pairs) > 0 {
		monitor, closeClients, err := a.buildMonitor(ctx, deps)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, closeClients)
		g.Go(func() error {
			return monitor.Run(ctx)
		})
	} else {
		a.logger.InfoContext(ctx, "no dex pairs configured, pool monitor disabled")
	}

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, scanner)
	}

	return g.Wait()
}

// apiSources builds one rate-limited feed source per configured bookmaker.
func (a *App) apiSources(deps *Dependencies) []feed.Source {
	sources := make([]feed.Source, 0, len(a.cfg.Scan.Bookmakers))
	for _, bm := range a.cfg.Scan.Bookmakers {
		sources = append(sources, feed.NewAPISource(feed.APISourceConfig{
			Name:         bm.Name,
			BaseURL:      bm.BaseURL,
			Leagues:      a.cfg.Scan.Leagues,
			Limiter:      deps.RateLimiter,
			RequestLimit: a.cfg.Scan.RequestLimit,
			Window:       a.cfg.Scan.RateWindow.Duration,
		}))
	}
	return sources
}

func (a *App) buildScanner(deps *Dependencies, sources []feed.Source) *scan.Scanner {
	return scan.New(scan.Config{
		Interval:         a.cfg.Scan.Interval.Duration,
		Stake:            a.cfg.Scan.Stake,
		MinMargin:        a.cfg.Scan.MinMargin,
		MaxMargin:        a.cfg.Scan.MaxMargin,
		MinOdds:          a.cfg.Scan.MinOdds,
		MaxOdds:          a.cfg.Scan.MaxOdds,
		Leagues:          a.cfg.Scan.Leagues,
		Cooldown:         a.cfg.Scan.Cooldown.Duration,
		ValueBetsEnabled: a.cfg.Scan.ValueBetsEnabled,
		MinEdgePercent:   a.cfg.Scan.MinEdgePercent,
	}, scan.Deps{
		Sources:  sources,
		Odds:     deps.OddsStore,
		Surebets: deps.SurebetStore,
		Cache:    deps.OddsCache,
		Cooldown: deps.Cooldown,
		Bus:      deps.SignalBus,
		Notifier: deps.Notifier,
		Exporter: deps.Exporter,
		Logger:   a.logger,
	})
}

// buildMonitor dials one RPC client per chain that has both an endpoint
// and at least one configured pair, then assembles the monitor over them.
func (a *App) buildMonitor(ctx context.Context, deps *Dependencies) (*dex.Monitor, func(), error) {
	rpcs := map[string]string{
		"ethereum": a.cfg.Dex.EthereumRPC,
		"bsc":      a.cfg.Dex.BscRPC,
	}

	wanted := map[string]bool{}
	for _, p := range a.cfg.Dex.Pairs {
		wanted[p.Chain] = true
	}

	clients := map[string]*dex.Client{}
	closeClients := func() {
		for _, c := range clients {
			c.Close()
		}
	}

	for chain := range wanted {
		url := rpcs[chain]
		if url == "" {
			a.logger.Warn("no rpc endpoint for chain, its pairs will be skipped",
				slog.String("chain", chain),
			)
			continue
		}
		client, err := dex.Dial(ctx, chain, url)
		if err != nil {
			closeClients()
			return nil, nil, fmt.Errorf("app: dex: %w", err)
		}
		clients[chain] = client
	}
	if len(clients) == 0 {
		return nil, nil, fmt.Errorf("app: dex: no chain could be dialed")
	}

	var pairs []dex.Pair
	for _, p := range a.cfg.Dex.Pairs {
		if _, ok := clients[p.Chain]; !ok {
			continue
		}
		pairs = append(pairs, dex.Pair{
			TokenPair: domain.TokenPair{
				PoolAddress: p.Pool,
				Token0:      p.Token0,
				Token1:      p.Token1,
				Dex:         p.Dex,
				Chain:       p.Chain,
				FeeTierBps:  p.FeeTierBps,
			},
			Token0Decimals: p.Token0Decimals,
			Token1Decimals: p.Token1Decimals,
		})
	}

	monitor := dex.NewMonitor(dex.MonitorConfig{
		Interval:             a.cfg.Dex.Interval.Duration,
		PriceChangeThreshold: a.cfg.Dex.PriceChangeThreshold,
		MinROIThreshold:      a.cfg.Dex.MinROIThreshold,
		AlertCooldown:        a.cfg.Dex.AlertCooldown.Duration,
		TradeAmountUSD:       a.cfg.Dex.TradeAmountUSD,
		GasLimitSwap:         a.cfg.Dex.GasLimitSwap,
	}, dex.MonitorDeps{
		Clients:  clients,
		Spot:     dex.NewSpotClient(a.cfg.Dex.SpotAPIHost),
		Pairs:    pairs,
		Prices:   deps.PriceCache,
		Cooldown: deps.Cooldown,
		Store:    deps.DexStore,
		Bus:      deps.SignalBus,
		Notifier: deps.Notifier,
		Logger:   a.logger,
	})
	return monitor, closeClients, nil
}

// startHTTPServer wires the handlers, the WebSocket hub, and the server
// goroutines into the group. scanner may be nil when no scan loop runs in
// this process.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, scanner *scan.Scanner) {
	startedAt := time.Now().UTC()

	var stats handler.StatsProvider
	statusFn := ws.StatusFunc(func() any {
		payload := map[string]any{
			"mode":           a.cfg.Mode,
			"uptime_seconds": int64(time.Since(startedAt).Seconds()),
		}
		if scanner != nil {
			payload["scanner"] = scanner.Stats()
		}
		return payload
	})
	if scanner != nil {
		stats = scanner
	}

	hub := ws.NewHub(deps.SignalBus, statusFn, a.logger)
	g.Go(func() error {
		return hub.Run(ctx)
	})

	srv := server.New(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
	}, server.Handlers{
		Health:   handler.NewHealthHandler(a.logger),
		Surebets: handler.NewSurebetHandler(deps.SurebetStore, deps.OddsCache, a.logger),
		Dex:      handler.NewDexHandler(deps.DexStore, a.logger),
		Status:   handler.NewStatusHandler(a.cfg.Mode, startedAt, stats, a.logger),
	}, hub, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}
