package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.Cache.TTL() != 60*time.Second {
		t.Errorf("ttl = %v", cfg.Cache.TTL())
	}
	if cfg.Scanner.ScanInterval() != 100*time.Millisecond {
		t.Errorf("scan interval = %v", cfg.Scanner.ScanInterval())
	}
}

func TestValidateRejectsBadMode(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "yolo"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "unknown mode") {
		t.Errorf("error %q should mention the mode", err)
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Cache.TTLSeconds = 0
	cfg.Scanner.ScanIntervalMs = -1
	cfg.Server.Port = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"ttl_seconds", "scan_interval_ms", "port"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s, got: %v", want, err)
		}
	}
}

func TestValidateStatisticalThresholds(t *testing.T) {
	cfg := Defaults()
	cfg.Statistical.Enabled = true
	cfg.Statistical.EntryZScore = 2.0
	cfg.Statistical.StopZScore = 1.5
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "stop_z_score") {
		t.Fatalf("stop below entry must be rejected, got: %v", err)
	}
}

func TestValidateTriangularCycleShape(t *testing.T) {
	cfg := Defaults()
	cfg.Triangular.Enabled = true
	cfg.Triangular.Cycles = []CycleConfig{
		{Venue: "raydium", Pairs: []string{"SOL/USDC", "ETH/SOL"}},
	}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "exactly 3 pairs") {
		t.Fatalf("two-legged cycle must be rejected, got: %v", err)
	}
}

func TestValidateFeedURL(t *testing.T) {
	cfg := Defaults()
	cfg.Feed.URL = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "feed: url") {
		t.Fatalf("empty url with feed enabled must be rejected, got: %v", err)
	}

	// Disabling the feed lifts the requirement.
	cfg.Feed.Enabled = false
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled feed must not require a url: %v", err)
	}
}

func TestLoadNoFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 8000 || cfg.Mode != "full" {
		t.Errorf("defaults not applied: port=%d mode=%q", cfg.Server.Port, cfg.Mode)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dexmon.toml")
	body := `
mode = "scan"

[scanner]
min_liquidity_usd = 75000.0

[statistical]
enabled = true

[[statistical.couples]]
pair_a = "SOL/USDC"
pair_b = "MSOL/USDC"
venue = "orca"
beta = 0.97
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != "scan" {
		t.Errorf("mode = %q, want scan", cfg.Mode)
	}
	if cfg.Scanner.MinLiquidityUsd != 75_000 {
		t.Errorf("min liquidity = %v", cfg.Scanner.MinLiquidityUsd)
	}
	// Untouched sections keep their defaults.
	if cfg.Cache.TTLSeconds != 60 {
		t.Errorf("ttl = %d, want default 60", cfg.Cache.TTLSeconds)
	}
	if len(cfg.Statistical.Couples) != 1 || cfg.Statistical.Couples[0].Beta != 0.97 {
		t.Errorf("couples = %+v", cfg.Statistical.Couples)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DEXMON_MODE", "serve")
	t.Setenv("DEXMON_SCANNER_MIN_LIQUIDITY_USD", "12500.5")
	t.Setenv("DEXMON_REDIS_ENABLED", "true")
	t.Setenv("DEXMON_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("DEXMON_NOTIFY_TELEGRAM_TOKEN", "tok")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != "serve" {
		t.Errorf("mode = %q, want serve", cfg.Mode)
	}
	if cfg.Scanner.MinLiquidityUsd != 12500.5 {
		t.Errorf("min liquidity = %v", cfg.Scanner.MinLiquidityUsd)
	}
	if !cfg.Redis.Enabled {
		t.Error("redis enabled override lost")
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[0] != want[0] || cfg.Server.CORSOrigins[1] != want[1] {
		t.Errorf("cors origins = %v, want %v", cfg.Server.CORSOrigins, want)
	}
	if cfg.Notify.TelegramToken != "tok" {
		t.Errorf("telegram token = %q", cfg.Notify.TelegramToken)
	}
}

func TestLoadMalformedEnvIgnored(t *testing.T) {
	t.Setenv("DEXMON_SERVER_PORT", "not-a-number")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("port = %d, want default 8000 when override is unparsable", cfg.Server.Port)
	}
}
