package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.Scan.Bookmakers = []BookmakerConfig{
		{Name: "betwarrior", BaseURL: "https://odds.betwarrior.example"},
	}
	return cfg
}

func TestDefaultsValidate(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults with one bookmaker should validate: %v", err)
	}
}

func TestDemoModeNeedsNoBookmakers(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "demo"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("demo mode should not require bookmakers: %v", err)
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Mode = "bogus"
	cfg.Scan.Stake = 0
	cfg.Scan.MinOdds = 0.5
	cfg.Redis.Addr = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"unknown mode", "stake must be > 0", "min_odds", "redis: addr"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestValidateMarginBand(t *testing.T) {
	cfg := validConfig()
	cfg.Scan.MinMargin = 5
	cfg.Scan.MaxMargin = 2
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "max_margin") {
		t.Fatalf("expected max_margin error, got %v", err)
	}
}

func TestLoadAppliesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
mode = "demo"
log_level = "debug"

[scan]
stake = 5000.0
interval = "90s"

[[scan.bookmakers]]
name = "betwarrior"
base_url = "https://odds.betwarrior.example"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("BETSCAN_SCAN_STAKE", "2500")
	t.Setenv("BETSCAN_REDIS_ADDR", "redis.internal:6380")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Mode != "demo" {
		t.Errorf("mode = %q, want demo", cfg.Mode)
	}
	if cfg.Scan.Interval.Duration != 90*time.Second {
		t.Errorf("interval = %v, want 90s", cfg.Scan.Interval.Duration)
	}
	// Env wins over the file.
	if cfg.Scan.Stake != 2500 {
		t.Errorf("stake = %v, want env override 2500", cfg.Scan.Stake)
	}
	if cfg.Redis.Addr != "redis.internal:6380" {
		t.Errorf("redis addr = %q, want env override", cfg.Redis.Addr)
	}
	// Untouched fields keep their defaults.
	if cfg.Scan.MaxMargin != 10.0 {
		t.Errorf("max_margin = %v, want default 10.0", cfg.Scan.MaxMargin)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("loaded config should validate: %v", err)
	}
}
