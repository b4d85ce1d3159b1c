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
// built-in defaults, applies ARBOT_* environment variable overrides, and
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

// applyEnvOverrides reads well-known ARBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Polymarket ──
	setStr(&cfg.Polymarket.GammaHost, "ARBOT_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.ClobHost, "ARBOT_POLYMARKET_CLOB_HOST")
	setStr(&cfg.Polymarket.WsHost, "ARBOT_POLYMARKET_WS_HOST")
	setStr(&cfg.Polymarket.Category, "ARBOT_POLYMARKET_CATEGORY")
	setInt(&cfg.Polymarket.MarketLimit, "ARBOT_POLYMARKET_MARKET_LIMIT")
	setDuration(&cfg.Polymarket.PollInterval, "ARBOT_POLYMARKET_POLL_INTERVAL")
	setStr(&cfg.Polymarket.Address, "ARBOT_POLYMARKET_ADDRESS")
	setStr(&cfg.Polymarket.APIKey, "ARBOT_POLYMARKET_API_KEY")
	setStr(&cfg.Polymarket.APISecret, "ARBOT_POLYMARKET_API_SECRET")
	setStr(&cfg.Polymarket.APIPassphrase, "ARBOT_POLYMARKET_API_PASSPHRASE")

	// ── Polygon ──
	setStr(&cfg.Polygon.RPCURL, "ARBOT_POLYGON_RPC_URL")
	setFloat64(&cfg.Polygon.FallbackGasGwei, "ARBOT_POLYGON_FALLBACK_GAS_GWEI")

	// ── Detection ──
	setStringSlice(&cfg.Detection.Enabled, "ARBOT_DETECTION_ENABLED")
	setFloat64(&cfg.Detection.MinProfitPct, "ARBOT_DETECTION_MIN_PROFIT_PCT")
	setFloat64(&cfg.Detection.ImbalanceThreshold, "ARBOT_DETECTION_IMBALANCE_THRESHOLD")
	setInt(&cfg.Detection.MaxLegs, "ARBOT_DETECTION_MAX_LEGS")
	setFloat64(&cfg.Detection.MinMispricing, "ARBOT_DETECTION_MIN_MISPRICING")
	setFloat64(&cfg.Detection.MinSpreadPct, "ARBOT_DETECTION_MIN_SPREAD_PCT")
	setFloat64(&cfg.Detection.TimeWindowHours, "ARBOT_DETECTION_TIME_WINDOW_HOURS")
	setFloat64(&cfg.Detection.VolatilityThreshold, "ARBOT_DETECTION_VOLATILITY_THRESHOLD")
	setFloat64(&cfg.Detection.MinProfitThreshold, "ARBOT_DETECTION_MIN_PROFIT_THRESHOLD")
	setFloat64(&cfg.Detection.SafetyMargin, "ARBOT_DETECTION_SAFETY_MARGIN")
	setFloat64(&cfg.Detection.GasSafetyBuffer, "ARBOT_DETECTION_GAS_SAFETY_BUFFER")

	// ── Sizing ──
	setStr(&cfg.Sizing.Method, "ARBOT_SIZING_METHOD")
	setFloat64(&cfg.Sizing.KellyFraction, "ARBOT_SIZING_KELLY_FRACTION")
	setFloat64(&cfg.Sizing.MaxPositionSize, "ARBOT_SIZING_MAX_POSITION_SIZE")

	// ── Risk ──
	setFloat64(&cfg.Risk.InitialCapital, "ARBOT_RISK_INITIAL_CAPITAL")
	setFloat64(&cfg.Risk.MaxTotalExposure, "ARBOT_RISK_MAX_TOTAL_EXPOSURE")
	setFloat64(&cfg.Risk.StopLossPct, "ARBOT_RISK_STOP_LOSS_PERCENTAGE")
	setFloat64(&cfg.Risk.MaxPositionAgeHours, "ARBOT_RISK_MAX_POSITION_AGE_HOURS")

	// ── Execution ──
	setStr(&cfg.Execution.Mode, "ARBOT_EXECUTION_MODE")
	setBool(&cfg.Execution.DryRun, "ARBOT_EXECUTION_DRY_RUN")
	setDuration(&cfg.Execution.DedupTTL, "ARBOT_EXECUTION_DEDUP_TTL")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "ARBOT_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "ARBOT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "ARBOT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "ARBOT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "ARBOT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "ARBOT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "ARBOT_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "ARBOT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "ARBOT_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "ARBOT_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "ARBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ARBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ARBOT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ARBOT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ARBOT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ARBOT_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "ARBOT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "ARBOT_S3_REGION")
	setStr(&cfg.S3.Bucket, "ARBOT_S3_BUCKET")
	setStr(&cfg.S3.Prefix, "ARBOT_S3_PREFIX")
	setStr(&cfg.S3.AccessKey, "ARBOT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "ARBOT_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "ARBOT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "ARBOT_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "ARBOT_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "ARBOT_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "ARBOT_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "ARBOT_SERVER_API_KEY")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "ARBOT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ARBOT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "ARBOT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "ARBOT_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "ARBOT_MODE")
	setStr(&cfg.LogLevel, "ARBOT_LOG_LEVEL")
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
