// Package config defines the top-level configuration for the betscan
// scanner and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by BETSCAN_* environment
// variables.
type Config struct {
	Scan     ScanConfig     `toml:"scan"`
	Dex      DexConfig      `toml:"dex"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Export   ExportConfig   `toml:"export"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// BookmakerConfig identifies one bookmaker odds endpoint.
type BookmakerConfig struct {
	Name    string `toml:"name"`
	BaseURL string `toml:"base_url"`
}

// ScanConfig holds the surebet scanning loop parameters.
type ScanConfig struct {
	Interval     duration          `toml:"interval"`
	Stake        float64           `toml:"stake"`
	MinMargin    float64           `toml:"min_margin"`
	MaxMargin    float64           `toml:"max_margin"`
	MinOdds      float64           `toml:"min_odds"`
	MaxOdds      float64           `toml:"max_odds"`
	Leagues      []string          `toml:"leagues"`
	Bookmakers   []BookmakerConfig `toml:"bookmakers"`
	Cooldown     duration          `toml:"cooldown"`
	RequestLimit int               `toml:"request_limit"`
	RateWindow   duration          `toml:"rate_window"`

	// Value-bet detection on the same consolidated books.
	ValueBetsEnabled bool    `toml:"value_bets_enabled"`
	MinEdgePercent   float64 `toml:"min_edge_percent"`
}

// PairConfig identifies one V3 pool to monitor.
type PairConfig struct {
	Pool           string `toml:"pool"`
	Token0         string `toml:"token0"`
	Token1         string `toml:"token1"`
	Token0Decimals int    `toml:"token0_decimals"`
	Token1Decimals int    `toml:"token1_decimals"`
	Dex            string `toml:"dex"`
	Chain          string `toml:"chain"`
	FeeTierBps     int    `toml:"fee_tier_bps"`
}

// DexConfig holds the DEX price monitor parameters.
type DexConfig struct {
	EthereumRPC          string       `toml:"ethereum_rpc"`
	BscRPC               string       `toml:"bsc_rpc"`
	Interval             duration     `toml:"interval"`
	PriceChangeThreshold float64      `toml:"price_change_threshold"`
	MinROIThreshold      float64      `toml:"min_roi_threshold"`
	AlertCooldown        duration     `toml:"alert_cooldown"`
	TradeAmountUSD       float64      `toml:"trade_amount_usd"`
	GasLimitSwap         uint64       `toml:"gas_limit_swap"`
	SpotAPIHost          string       `toml:"spot_api_host"`
	Pairs                []PairConfig `toml:"pairs"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ExportConfig holds report export parameters.
type ExportConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
	Format  string `toml:"format"` // "csv", "json", or "both"
	Archive bool   `toml:"archive"`
	Prefix  string `toml:"prefix"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Scan: ScanConfig{
			Interval:         duration{60 * time.Second},
			Stake:            10000,
			MinMargin:        1.0,
			MaxMargin:        10.0,
			MinOdds:          1.1,
			MaxOdds:          50.0,
			Cooldown:         duration{15 * time.Minute},
			RequestLimit:     10,
			RateWindow:       duration{time.Minute},
			ValueBetsEnabled: false,
			MinEdgePercent:   5.0,
		},
		Dex: DexConfig{
			Interval:             duration{60 * time.Second},
			PriceChangeThreshold: 5.0,
			MinROIThreshold:      10.0,
			AlertCooldown:        duration{5 * time.Minute},
			TradeAmountUSD:       1000,
			GasLimitSwap:         200_000,
			SpotAPIHost:          "https://api.coingecko.com",
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "betscan",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "betscan-data",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Export: ExportConfig{
			Enabled: true,
			Dir:     "data",
			Format:  "both",
			Archive: false,
			Prefix:  "reports",
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Notify: NotifyConfig{
			Events: []string{"surebet_detected", "value_bet_detected", "price_move", "error"},
		},
		Mode:     "scan",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"scan": true,
	"dex":  true,
	"demo": true,
	"full": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validExportFormats enumerates the accepted values for Export.Format.
var validExportFormats = map[string]bool{
	"csv":  true,
	"json": true,
	"both": true,
}

// Validate checks Config for obviously invalid or missing values and
// returns a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	mode := strings.ToLower(c.Mode)
	if !validModes[mode] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: scan, dex, demo, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Scan
	if c.Scan.Interval.Duration <= 0 {
		errs = append(errs, "scan: interval must be > 0")
	}
	if c.Scan.Stake <= 0 {
		errs = append(errs, "scan: stake must be > 0")
	}
	if c.Scan.MinMargin < 0 {
		errs = append(errs, "scan: min_margin must be >= 0")
	}
	if c.Scan.MaxMargin <= c.Scan.MinMargin {
		errs = append(errs, fmt.Sprintf("scan: max_margin (%v) must exceed min_margin (%v)", c.Scan.MaxMargin, c.Scan.MinMargin))
	}
	if c.Scan.MinOdds <= 1.0 {
		errs = append(errs, "scan: min_odds must be > 1.0")
	}
	if c.Scan.MaxOdds <= c.Scan.MinOdds {
		errs = append(errs, "scan: max_odds must exceed min_odds")
	}
	if (mode == "scan" || mode == "full") && len(c.Scan.Bookmakers) == 0 {
		errs = append(errs, "scan: at least one bookmaker endpoint is required for mode "+c.Mode)
	}
	for i, b := range c.Scan.Bookmakers {
		if b.Name == "" || b.BaseURL == "" {
			errs = append(errs, fmt.Sprintf("scan: bookmakers[%d] needs both name and base_url", i))
		}
	}
	if c.Scan.ValueBetsEnabled && c.Scan.MinEdgePercent <= 0 {
		errs = append(errs, "scan: min_edge_percent must be > 0 when value_bets_enabled")
	}

	// Dex — needed for dex mode, optional in full.
	if mode == "dex" {
		if c.Dex.EthereumRPC == "" && c.Dex.BscRPC == "" {
			errs = append(errs, "dex: at least one of ethereum_rpc or bsc_rpc must be set for mode dex")
		}
		if len(c.Dex.Pairs) == 0 {
			errs = append(errs, "dex: at least one pair is required for mode dex")
		}
	}
	if c.Dex.Interval.Duration <= 0 {
		errs = append(errs, "dex: interval must be > 0")
	}
	if c.Dex.TradeAmountUSD <= 0 {
		errs = append(errs, "dex: trade_amount_usd must be > 0")
	}
	if c.Dex.GasLimitSwap == 0 {
		errs = append(errs, "dex: gas_limit_swap must be > 0")
	}
	for i, p := range c.Dex.Pairs {
		if p.Pool == "" {
			errs = append(errs, fmt.Sprintf("dex: pairs[%d] needs a pool address", i))
		}
		if p.Chain != "ethereum" && p.Chain != "bsc" {
			errs = append(errs, fmt.Sprintf("dex: pairs[%d] chain must be ethereum or bsc, got %q", i, p.Chain))
		}
	}

	// Postgres
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// Export / S3
	if c.Export.Enabled && !validExportFormats[strings.ToLower(c.Export.Format)] {
		errs = append(errs, fmt.Sprintf("export: unknown format %q (valid: csv, json, both)", c.Export.Format))
	}
	if c.Export.Archive {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when export.archive is set")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when export.archive is set")
		}
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
