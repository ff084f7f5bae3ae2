package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	s3blob "github.com/jmfarina/betscan/internal/blob/s3"
	"github.com/jmfarina/betscan/internal/cache/redis"
	"github.com/jmfarina/betscan/internal/config"
	"github.com/jmfarina/betscan/internal/domain"
	"github.com/jmfarina/betscan/internal/export"
	"github.com/jmfarina/betscan/internal/notify"
	"github.com/jmfarina/betscan/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency the application modes
// need. It is constructed by Wire and torn down by the returned cleanup
// function.
type Dependencies struct {
	// Stores
	OddsStore    domain.OddsStore
	SurebetStore domain.SurebetStore
	DexStore     domain.DexOpportunityStore

	// Caches / coordination
	OddsCache   domain.OddsCache
	PriceCache  domain.PriceCache
	Cooldown    domain.Cooldown
	RateLimiter domain.RateLimiter
	SignalBus   domain.SignalBus

	// Blob storage
	BlobWriter domain.BlobWriter

	// Reporting
	Exporter *export.Exporter
	Notifier *notify.Notifier
}

// demoMode runs on in-memory stand-ins so it needs no external services.
func demoMode(mode string) bool {
	return strings.ToLower(mode) == "demo"
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function to call
// on shutdown.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	if demoMode(cfg.Mode) {
		deps.OddsStore = newMemoryOddsStore()
		deps.SurebetStore = newMemorySurebetStore()
		deps.OddsCache = newMemoryOddsCache()
		deps.Cooldown = newMemoryCooldown()
		deps.SignalBus = newMemorySignalBus()
	} else {
		// --- PostgreSQL ---
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.OddsStore = postgres.NewOddsStore(pool)
		deps.SurebetStore = postgres.NewSurebetStore(pool)
		deps.DexStore = postgres.NewDexOpportunityStore(pool)

		// --- Redis ---
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.OddsCache = redis.NewOddsCache(redisClient)
		deps.PriceCache = redis.NewPriceCache(redisClient)
		deps.Cooldown = redis.NewCooldown(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient, cfg.Scan.RequestLimit, cfg.Scan.RateWindow.Duration)
		deps.SignalBus = redis.NewSignalBus(redisClient)
	}

	// --- S3 report archive (optional) ---
	if cfg.Export.Enabled && cfg.Export.Archive && !demoMode(cfg.Mode) {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })
		deps.BlobWriter = s3blob.NewWriter(s3Client)
	}

	// --- Report exporter ---
	if cfg.Export.Enabled {
		deps.Exporter = export.New(export.Config{
			Dir:    cfg.Export.Dir,
			Format: cfg.Export.Format,
			Blob:   deps.BlobWriter,
			Prefix: cfg.Export.Prefix,
		}, logger)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
