package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies DEXMON_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known DEXMON_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Cache ──
	setInt(&cfg.Cache.TTLSeconds, "DEXMON_CACHE_TTL_SECONDS")
	setInt(&cfg.Cache.CleanupIntervalSeconds, "DEXMON_CACHE_CLEANUP_INTERVAL_SECONDS")
	setInt64(&cfg.Cache.StaleThresholdMs, "DEXMON_CACHE_STALE_THRESHOLD_MS")

	// ── Scanner ──
	setInt64(&cfg.Scanner.ScanIntervalMs, "DEXMON_SCANNER_SCAN_INTERVAL_MS")
	setInt64(&cfg.Scanner.DedupWindowMs, "DEXMON_SCANNER_DEDUP_WINDOW_MS")
	setFloat64(&cfg.Scanner.MinLiquidityUsd, "DEXMON_SCANNER_MIN_LIQUIDITY_USD")
	setInt(&cfg.Scanner.Concurrency, "DEXMON_SCANNER_CONCURRENCY")

	// ── Spatial ──
	setBool(&cfg.Spatial.Enabled, "DEXMON_SPATIAL_ENABLED")
	setFloat64(&cfg.Spatial.MinProfitPercent, "DEXMON_SPATIAL_MIN_PROFIT_PERCENT")
	setUint64(&cfg.Spatial.SlotTolerance, "DEXMON_SPATIAL_SLOT_TOLERANCE")
	setFloat64(&cfg.Spatial.MaxTradeSizeFraction, "DEXMON_SPATIAL_MAX_TRADE_SIZE_FRACTION")

	// ── Statistical ──
	setBool(&cfg.Statistical.Enabled, "DEXMON_STATISTICAL_ENABLED")
	setFloat64(&cfg.Statistical.EntryZScore, "DEXMON_STATISTICAL_ENTRY_Z_SCORE")
	setFloat64(&cfg.Statistical.ExitZScore, "DEXMON_STATISTICAL_EXIT_Z_SCORE")
	setFloat64(&cfg.Statistical.StopZScore, "DEXMON_STATISTICAL_STOP_Z_SCORE")
	setInt(&cfg.Statistical.WindowSize, "DEXMON_STATISTICAL_WINDOW_SIZE")
	setInt(&cfg.Statistical.MinSamples, "DEXMON_STATISTICAL_MIN_SAMPLES")

	// ── Triangular ──
	setBool(&cfg.Triangular.Enabled, "DEXMON_TRIANGULAR_ENABLED")
	setFloat64(&cfg.Triangular.ProfitThreshold, "DEXMON_TRIANGULAR_PROFIT_THRESHOLD_PERCENT")
	setUint64(&cfg.Triangular.SlotTolerance, "DEXMON_TRIANGULAR_SLOT_TOLERANCE")
	setFloat64(&cfg.Triangular.SizeFraction, "DEXMON_TRIANGULAR_SIZE_FRACTION")

	// ── Fees ──
	setFloat64(&cfg.Fees.DefaultFeePercent, "DEXMON_FEES_DEFAULT_FEE_PERCENT")
	setFloat64(&cfg.Fees.EstimatedSlippagePercent, "DEXMON_FEES_ESTIMATED_SLIPPAGE_PERCENT")
	setFloat64(&cfg.Fees.MaxSlippagePercent, "DEXMON_FEES_MAX_SLIPPAGE_PERCENT")
	setFloat64(&cfg.Fees.GasCostPercent, "DEXMON_FEES_GAS_COST_PERCENT")
	setFloat64(&cfg.Fees.TipCostPercent, "DEXMON_FEES_TIP_COST_PERCENT")

	// ── Feed ──
	setBool(&cfg.Feed.Enabled, "DEXMON_FEED_ENABLED")
	setStr(&cfg.Feed.URL, "DEXMON_FEED_URL")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "DEXMON_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "DEXMON_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "DEXMON_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "DEXMON_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "DEXMON_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "DEXMON_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "DEXMON_REDIS_TLS_ENABLED")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "DEXMON_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "DEXMON_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "DEXMON_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "DEXMON_SERVER_API_KEY")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "DEXMON_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "DEXMON_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "DEXMON_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "DEXMON_NOTIFY_EVENTS")
	setFloat64(&cfg.Notify.MinConfidence, "DEXMON_NOTIFY_MIN_CONFIDENCE")

	// ── Top-level ──
	setStr(&cfg.Mode, "DEXMON_MODE")
	setStr(&cfg.LogLevel, "DEXMON_LOG_LEVEL")
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

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
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
