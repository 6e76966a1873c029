// Package config defines the top-level configuration for the price monitor
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by DEXMON_* environment variables.
type Config struct {
	Cache       CacheConfig       `toml:"cache"`
	Scanner     ScannerConfig     `toml:"scanner"`
	Spatial     SpatialConfig     `toml:"spatial"`
	Statistical StatisticalConfig `toml:"statistical"`
	Triangular  TriangularConfig  `toml:"triangular"`
	Fees        FeesConfig        `toml:"fees"`
	Feed        FeedConfig        `toml:"feed"`
	Redis       RedisConfig       `toml:"redis"`
	Server      ServerConfig      `toml:"server"`
	Notify      NotifyConfig      `toml:"notify"`
	Mode        string            `toml:"mode"`
	LogLevel    string            `toml:"log_level"`
}

// CacheConfig holds the price cache lifecycle parameters.
type CacheConfig struct {
	TTLSeconds             int   `toml:"ttl_seconds"`
	CleanupIntervalSeconds int   `toml:"cleanup_interval_seconds"`
	StaleThresholdMs       int64 `toml:"stale_threshold_ms"`
}

// TTL returns the entry time-to-live as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// CleanupInterval returns the sweep cadence as a duration.
func (c CacheConfig) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalSeconds) * time.Second
}

// StaleThreshold returns the freshness cutoff as a duration.
func (c CacheConfig) StaleThreshold() time.Duration {
	return time.Duration(c.StaleThresholdMs) * time.Millisecond
}

// ScannerConfig holds the orchestration parameters.
type ScannerConfig struct {
	ScanIntervalMs  int64   `toml:"scan_interval_ms"`
	DedupWindowMs   int64   `toml:"dedup_window_ms"`
	MinLiquidityUsd float64 `toml:"min_liquidity_usd"`
	Concurrency     int     `toml:"concurrency"`
}

// ScanInterval returns the sweep cadence as a duration.
func (c ScannerConfig) ScanInterval() time.Duration {
	return time.Duration(c.ScanIntervalMs) * time.Millisecond
}

// DedupWindow returns the suppression window as a duration.
func (c ScannerConfig) DedupWindow() time.Duration {
	return time.Duration(c.DedupWindowMs) * time.Millisecond
}

// SpatialConfig holds the cross-venue detector parameters.
type SpatialConfig struct {
	Enabled              bool    `toml:"enabled"`
	MinProfitPercent     float64 `toml:"min_profit_percent"`
	SlotTolerance        uint64  `toml:"slot_tolerance"`
	MaxTradeSizeFraction float64 `toml:"max_trade_size_fraction"`
}

// StatisticalConfig holds the pairs-trading detector parameters.
type StatisticalConfig struct {
	Enabled     bool    `toml:"enabled"`
	EntryZScore float64 `toml:"entry_z_score"`
	ExitZScore  float64 `toml:"exit_z_score"`
	StopZScore  float64 `toml:"stop_z_score"`
	WindowSize  int     `toml:"window_size"`
	MinSamples  int     `toml:"min_samples"`
	// Couples lists pre-calibrated relationships as
	// [[statistical.couples]] tables.
	Couples []CoupleConfig `toml:"couples"`
}

// CoupleConfig declares one calibrated pair relationship.
type CoupleConfig struct {
	PairA    string  `toml:"pair_a"`
	PairB    string  `toml:"pair_b"`
	Venue    string  `toml:"venue"`
	Beta     float64 `toml:"beta"`
	HalfLife float64 `toml:"half_life"`
}

// TriangularConfig holds the cycle detector parameters.
type TriangularConfig struct {
	Enabled         bool          `toml:"enabled"`
	ProfitThreshold float64       `toml:"profit_threshold_percent"`
	SlotTolerance   uint64        `toml:"slot_tolerance"`
	SizeFraction    float64       `toml:"size_fraction"`
	Cycles          []CycleConfig `toml:"cycles"`
}

// CycleConfig declares one three-legged cycle.
type CycleConfig struct {
	Venue string   `toml:"venue"`
	Pairs []string `toml:"pairs"`
	Label string   `toml:"label"`
}

// FeesConfig holds the cost-model parameters, all in percent of notional.
type FeesConfig struct {
	DefaultFeePercent        float64 `toml:"default_fee_percent"`
	EstimatedSlippagePercent float64 `toml:"estimated_slippage_percent"`
	MaxSlippagePercent       float64 `toml:"max_slippage_percent"`
	GasCostPercent           float64 `toml:"gas_cost_percent"`
	TipCostPercent           float64 `toml:"tip_cost_percent"`
}

// FeedConfig holds the upstream record feed parameters. Disabling the feed
// leaves ingesting modes serving whatever state exists.
type FeedConfig struct {
	Enabled bool   `toml:"enabled"`
	URL     string `toml:"url"`
}

// RedisConfig holds Redis connection parameters. Redis delivery is optional;
// an empty addr disables the signal bus.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// ServerConfig holds HTTP server parameters. An empty api_key disables
// authentication.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
	MinConfidence     float64  `toml:"min_confidence"`
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Cache: CacheConfig{
			TTLSeconds:             60,
			CleanupIntervalSeconds: 10,
			StaleThresholdMs:       2000,
		},
		Scanner: ScannerConfig{
			ScanIntervalMs:  100,
			DedupWindowMs:   5000,
			MinLiquidityUsd: 50_000,
			Concurrency:     4,
		},
		Spatial: SpatialConfig{
			Enabled:              true,
			MinProfitPercent:     0.5,
			SlotTolerance:        2,
			MaxTradeSizeFraction: 0.05,
		},
		Statistical: StatisticalConfig{
			Enabled:     false,
			EntryZScore: 2.0,
			ExitZScore:  0.5,
			StopZScore:  3.0,
			WindowSize:  100,
			MinSamples:  20,
		},
		Triangular: TriangularConfig{
			Enabled:         false,
			ProfitThreshold: 0.3,
			SlotTolerance:   2,
			SizeFraction:    0.03,
		},
		Fees: FeesConfig{
			DefaultFeePercent:        0.25,
			EstimatedSlippagePercent: 0.3,
			MaxSlippagePercent:       5.0,
			GasCostPercent:           0.01,
			TipCostPercent:           0.05,
		},
		Feed: FeedConfig{
			Enabled: true,
			URL:     "ws://localhost:9010/records",
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Notify: NotifyConfig{
			Events:        []string{"opportunity_detected", "stat_breakdown"},
			MinConfidence: 0.5,
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"monitor": true,
	"scan":    true,
	"serve":   true,
	"full":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: monitor, scan, serve, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Cache
	if c.Cache.TTLSeconds <= 0 {
		errs = append(errs, "cache: ttl_seconds must be > 0")
	}
	if c.Cache.CleanupIntervalSeconds <= 0 {
		errs = append(errs, "cache: cleanup_interval_seconds must be > 0")
	}
	if c.Cache.StaleThresholdMs <= 0 {
		errs = append(errs, "cache: stale_threshold_ms must be > 0")
	}

	// Scanner
	if c.Scanner.ScanIntervalMs <= 0 {
		errs = append(errs, "scanner: scan_interval_ms must be > 0")
	}
	if c.Scanner.DedupWindowMs < 0 {
		errs = append(errs, "scanner: dedup_window_ms must be >= 0")
	}
	if c.Scanner.MinLiquidityUsd < 0 {
		errs = append(errs, "scanner: min_liquidity_usd must be >= 0")
	}

	// Spatial
	if c.Spatial.Enabled {
		if c.Spatial.MinProfitPercent <= 0 {
			errs = append(errs, "spatial: min_profit_percent must be > 0 when enabled")
		}
		if c.Spatial.MaxTradeSizeFraction <= 0 || c.Spatial.MaxTradeSizeFraction > 1 {
			errs = append(errs, fmt.Sprintf("spatial: max_trade_size_fraction must be in (0,1], got %g", c.Spatial.MaxTradeSizeFraction))
		}
	}

	// Statistical
	if c.Statistical.Enabled {
		if c.Statistical.EntryZScore <= 0 {
			errs = append(errs, "statistical: entry_z_score must be > 0 when enabled")
		}
		if c.Statistical.StopZScore <= c.Statistical.EntryZScore {
			errs = append(errs, "statistical: stop_z_score must exceed entry_z_score")
		}
		if c.Statistical.WindowSize < 2 {
			errs = append(errs, "statistical: window_size must be >= 2")
		}
		if c.Statistical.MinSamples < 2 || c.Statistical.MinSamples > c.Statistical.WindowSize {
			errs = append(errs, "statistical: min_samples must be in [2, window_size]")
		}
		for i, cp := range c.Statistical.Couples {
			if cp.PairA == "" || cp.PairB == "" || cp.Venue == "" {
				errs = append(errs, fmt.Sprintf("statistical: couples[%d]: pair_a, pair_b, and venue are required", i))
			}
		}
	}

	// Triangular
	if c.Triangular.Enabled {
		if c.Triangular.ProfitThreshold <= 0 {
			errs = append(errs, "triangular: profit_threshold_percent must be > 0 when enabled")
		}
		if c.Triangular.SizeFraction <= 0 || c.Triangular.SizeFraction > 1 {
			errs = append(errs, fmt.Sprintf("triangular: size_fraction must be in (0,1], got %g", c.Triangular.SizeFraction))
		}
		for i, cy := range c.Triangular.Cycles {
			if len(cy.Pairs) != 3 {
				errs = append(errs, fmt.Sprintf("triangular: cycles[%d]: exactly 3 pairs required, got %d", i, len(cy.Pairs)))
			}
			if cy.Venue == "" {
				errs = append(errs, fmt.Sprintf("triangular: cycles[%d]: venue is required", i))
			}
		}
	}

	// Fees
	if c.Fees.DefaultFeePercent < 0 {
		errs = append(errs, "fees: default_fee_percent must be >= 0")
	}
	if c.Fees.EstimatedSlippagePercent < 0 {
		errs = append(errs, "fees: estimated_slippage_percent must be >= 0")
	}
	if c.Fees.MaxSlippagePercent < c.Fees.EstimatedSlippagePercent {
		errs = append(errs, "fees: max_slippage_percent must be >= estimated_slippage_percent")
	}

	// Feed — required for ingesting modes unless disabled.
	if c.Mode == "monitor" || c.Mode == "scan" || c.Mode == "full" {
		if c.Feed.Enabled && c.Feed.URL == "" {
			errs = append(errs, "feed: url must not be empty for mode "+c.Mode)
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
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
