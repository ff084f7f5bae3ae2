package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies BETSCAN_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known BETSCAN_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e.
// not empty). This lets operators inject secrets at deploy time without
// touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Scan ──
	setDuration(&cfg.Scan.Interval, "BETSCAN_SCAN_INTERVAL")
	setFloat64(&cfg.Scan.Stake, "BETSCAN_SCAN_STAKE")
	setFloat64(&cfg.Scan.MinMargin, "BETSCAN_SCAN_MIN_MARGIN")
	setFloat64(&cfg.Scan.MaxMargin, "BETSCAN_SCAN_MAX_MARGIN")
	setFloat64(&cfg.Scan.MinOdds, "BETSCAN_SCAN_MIN_ODDS")
	setFloat64(&cfg.Scan.MaxOdds, "BETSCAN_SCAN_MAX_ODDS")
	setStringSlice(&cfg.Scan.Leagues, "BETSCAN_SCAN_LEAGUES")
	setDuration(&cfg.Scan.Cooldown, "BETSCAN_SCAN_COOLDOWN")
	setInt(&cfg.Scan.RequestLimit, "BETSCAN_SCAN_REQUEST_LIMIT")
	setDuration(&cfg.Scan.RateWindow, "BETSCAN_SCAN_RATE_WINDOW")
	setBool(&cfg.Scan.ValueBetsEnabled, "BETSCAN_SCAN_VALUE_BETS_ENABLED")
	setFloat64(&cfg.Scan.MinEdgePercent, "BETSCAN_SCAN_MIN_EDGE_PERCENT")

	// ── Dex ──
	setStr(&cfg.Dex.EthereumRPC, "BETSCAN_DEX_ETHEREUM_RPC")
	setStr(&cfg.Dex.BscRPC, "BETSCAN_DEX_BSC_RPC")
	setDuration(&cfg.Dex.Interval, "BETSCAN_DEX_INTERVAL")
	setFloat64(&cfg.Dex.PriceChangeThreshold, "BETSCAN_DEX_PRICE_CHANGE_THRESHOLD")
	setFloat64(&cfg.Dex.MinROIThreshold, "BETSCAN_DEX_MIN_ROI_THRESHOLD")
	setDuration(&cfg.Dex.AlertCooldown, "BETSCAN_DEX_ALERT_COOLDOWN")
	setFloat64(&cfg.Dex.TradeAmountUSD, "BETSCAN_DEX_TRADE_AMOUNT_USD")
	setUint64(&cfg.Dex.GasLimitSwap, "BETSCAN_DEX_GAS_LIMIT_SWAP")
	setStr(&cfg.Dex.SpotAPIHost, "BETSCAN_DEX_SPOT_API_HOST")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "BETSCAN_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "BETSCAN_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "BETSCAN_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "BETSCAN_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "BETSCAN_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "BETSCAN_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "BETSCAN_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "BETSCAN_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "BETSCAN_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "BETSCAN_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "BETSCAN_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "BETSCAN_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "BETSCAN_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "BETSCAN_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "BETSCAN_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "BETSCAN_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "BETSCAN_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "BETSCAN_S3_REGION")
	setStr(&cfg.S3.Bucket, "BETSCAN_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "BETSCAN_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "BETSCAN_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "BETSCAN_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "BETSCAN_S3_FORCE_PATH_STYLE")

	// ── Export ──
	setBool(&cfg.Export.Enabled, "BETSCAN_EXPORT_ENABLED")
	setStr(&cfg.Export.Dir, "BETSCAN_EXPORT_DIR")
	setStr(&cfg.Export.Format, "BETSCAN_EXPORT_FORMAT")
	setBool(&cfg.Export.Archive, "BETSCAN_EXPORT_ARCHIVE")
	setStr(&cfg.Export.Prefix, "BETSCAN_EXPORT_PREFIX")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "BETSCAN_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "BETSCAN_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "BETSCAN_SERVER_CORS_ORIGINS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "BETSCAN_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "BETSCAN_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "BETSCAN_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "BETSCAN_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "BETSCAN_MODE")
	setStr(&cfg.LogLevel, "BETSCAN_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setUint64(dst *uint64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
