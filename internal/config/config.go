// Package config defines the top-level configuration for the arbitrage bot
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/polyarb/arbot/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by ARBOT_* environment variables.
type Config struct {
	Polymarket PolymarketConfig `toml:"polymarket"`
	Polygon    PolygonConfig    `toml:"polygon"`
	Detection  DetectionConfig  `toml:"detection"`
	Sizing     SizingConfig     `toml:"sizing"`
	Risk       RiskConfig       `toml:"risk"`
	Execution  ExecutionConfig  `toml:"execution"`
	Postgres   PostgresConfig   `toml:"postgres"`
	Redis      RedisConfig      `toml:"redis"`
	S3         S3Config         `toml:"s3"`
	Server     ServerConfig     `toml:"server"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// PolymarketConfig holds Polymarket API endpoints and polling parameters.
type PolymarketConfig struct {
	GammaHost    string   `toml:"gamma_host"`
	ClobHost     string   `toml:"clob_host"`
	WsHost       string   `toml:"ws_host"`
	Category     string   `toml:"category"`
	MarketLimit  int      `toml:"market_limit"`
	PollInterval duration `toml:"poll_interval"`

	// CLOB L2 API credentials, required when auto_trade places live orders.
	Address       string `toml:"address"`
	APIKey        string `toml:"api_key"`
	APISecret     string `toml:"api_secret"`
	APIPassphrase string `toml:"api_passphrase"`
}

// PolygonConfig holds Polygon RPC parameters for live gas pricing.
type PolygonConfig struct {
	RPCURL string `toml:"rpc_url"`
	// FallbackGasGwei is quoted when the RPC is unset or unreachable.
	FallbackGasGwei float64 `toml:"fallback_gas_gwei"`
}

// DetectionConfig selects the enabled strategies and their thresholds, plus
// the post-detection profitability filter.
type DetectionConfig struct {
	Enabled             []string `toml:"enabled"`
	MinProfitPct        float64  `toml:"min_profit_pct"`
	ImbalanceThreshold  float64  `toml:"imbalance_threshold"`
	MaxLegs             int      `toml:"max_legs"`
	MinMispricing       float64  `toml:"min_mispricing"`
	MinSpreadPct        float64  `toml:"min_spread_pct"`
	TimeWindowHours     float64  `toml:"time_window_hours"`
	VolatilityThreshold float64  `toml:"volatility_threshold"`

	// MinProfitThreshold is the minimum net USD profit after gas for an
	// opportunity to survive filtering; SafetyMargin scales it upward.
	MinProfitThreshold float64 `toml:"min_profit_threshold"`
	SafetyMargin       float64 `toml:"safety_margin"`
	GasSafetyBuffer    float64 `toml:"gas_safety_buffer"`
}

// SizingConfig holds position sizing parameters.
type SizingConfig struct {
	Method          string  `toml:"method"`
	KellyFraction   float64 `toml:"kelly_fraction"`
	MaxPositionSize float64 `toml:"max_position_size"`
}

// RiskConfig holds portfolio risk limits.
type RiskConfig struct {
	InitialCapital      float64 `toml:"initial_capital"`
	MaxTotalExposure    float64 `toml:"max_total_exposure"`
	StopLossPct         float64 `toml:"stop_loss_percentage"`
	MaxPositionAgeHours float64 `toml:"max_position_age_hours"`
}

// ExecutionConfig holds order execution parameters.
type ExecutionConfig struct {
	Mode     string   `toml:"mode"`
	DryRun   bool     `toml:"dry_run"`
	DedupTTL duration `toml:"dedup_ttl"`
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

// S3Config holds S3-compatible object storage parameters for the scored
// opportunity archive.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	Prefix         string `toml:"prefix"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"` // empty disables authentication
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
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
		Polymarket: PolymarketConfig{
			GammaHost:    "https://gamma-api.polymarket.com",
			ClobHost:     "https://clob.polymarket.com",
			WsHost:       "wss://ws-subscriptions-clob.polymarket.com",
			Category:     "",
			MarketLimit:  200,
			PollInterval: duration{30 * time.Second},
		},
		Polygon: PolygonConfig{
			RPCURL:          "",
			FallbackGasGwei: 50.0,
		},
		Detection: DetectionConfig{
			Enabled: []string{
				"yes_no_imbalance",
				"cross_market",
				"multi_leg",
				"correlated_events",
				"order_book_spread",
				"time_based",
			},
			MinProfitPct:        0.5,
			ImbalanceThreshold:  0.02,
			MaxLegs:             5,
			MinMispricing:       0.05,
			MinSpreadPct:        2.0,
			TimeWindowHours:     24,
			VolatilityThreshold: 2.0,
			MinProfitThreshold:  1.0,
			SafetyMargin:        1.1,
			GasSafetyBuffer:     1.2,
		},
		Sizing: SizingConfig{
			Method:          "kelly",
			KellyFraction:   0.25,
			MaxPositionSize: 100.0,
		},
		Risk: RiskConfig{
			InitialCapital:      1000.0,
			MaxTotalExposure:    500.0,
			StopLossPct:         0.15,
			MaxPositionAgeHours: 48,
		},
		Execution: ExecutionConfig{
			Mode:     "alert",
			DryRun:   true,
			DedupTTL: duration{5 * time.Minute},
		},
		Postgres: PostgresConfig{
			DSN:           "",
			Host:          "localhost",
			Port:          5432,
			Database:      "arbot",
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
			Bucket:         "arbot-data",
			Prefix:         "opportunities",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Notify: NotifyConfig{
			Events: []string{"opportunity_detected", "order_filled", "stop_loss", "error"},
		},
		Mode:     "alert",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"alert":      true,
	"auto_trade": true,
	"monitor":    true,
	"server":     true,
	"full":       true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validSizingMethods enumerates the accepted values for SizingConfig.Method.
var validSizingMethods = map[string]bool{
	"kelly":      true,
	"fixed":      true,
	"percentage": true,
}

// validStrategies is derived from the closed set of opportunity kinds.
var validStrategies = func() map[string]bool {
	m := make(map[string]bool, len(domain.Kinds()))
	for _, k := range domain.Kinds() {
		m[string(k)] = true
	}
	return m
}()

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: alert, auto_trade, monitor, server, full)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Polymarket endpoints
	if c.Polymarket.GammaHost == "" {
		errs = append(errs, "polymarket: gamma_host must not be empty")
	}
	if c.Polymarket.MarketLimit < 1 {
		errs = append(errs, "polymarket: market_limit must be >= 1")
	}
	if c.Polymarket.PollInterval.Duration <= 0 {
		errs = append(errs, "polymarket: poll_interval must be > 0")
	}

	// Polygon
	if c.Polygon.FallbackGasGwei <= 0 {
		errs = append(errs, "polygon: fallback_gas_gwei must be > 0")
	}

	// Detection
	if len(c.Detection.Enabled) == 0 {
		errs = append(errs, "detection: at least one strategy must be enabled")
	}
	for _, name := range c.Detection.Enabled {
		if !validStrategies[name] {
			errs = append(errs, fmt.Sprintf("detection: unknown strategy %q", name))
		}
	}
	if c.Detection.MinProfitPct <= 0 {
		errs = append(errs, "detection: min_profit_pct must be > 0")
	}
	if c.Detection.ImbalanceThreshold <= 0 {
		errs = append(errs, "detection: imbalance_threshold must be > 0")
	}
	if c.Detection.MaxLegs < 3 {
		errs = append(errs, fmt.Sprintf("detection: max_legs must be >= 3, got %d", c.Detection.MaxLegs))
	}
	if c.Detection.MinMispricing <= 0 {
		errs = append(errs, "detection: min_mispricing must be > 0")
	}
	if c.Detection.MinSpreadPct <= 0 {
		errs = append(errs, "detection: min_spread_pct must be > 0")
	}
	if c.Detection.TimeWindowHours <= 0 {
		errs = append(errs, "detection: time_window_hours must be > 0")
	}
	if c.Detection.VolatilityThreshold <= 0 {
		errs = append(errs, "detection: volatility_threshold must be > 0")
	}
	if c.Detection.MinProfitThreshold <= 0 {
		errs = append(errs, "detection: min_profit_threshold must be > 0")
	}
	if c.Detection.SafetyMargin < 1 {
		errs = append(errs, "detection: safety_margin must be >= 1")
	}
	if c.Detection.GasSafetyBuffer < 1 {
		errs = append(errs, "detection: gas_safety_buffer must be >= 1")
	}

	// Sizing
	if !validSizingMethods[c.Sizing.Method] {
		errs = append(errs, fmt.Sprintf("sizing: unknown method %q (valid: kelly, fixed, percentage)", c.Sizing.Method))
	}
	if c.Sizing.KellyFraction <= 0 || c.Sizing.KellyFraction > 1 {
		errs = append(errs, fmt.Sprintf("sizing: kelly_fraction must be in (0, 1], got %g", c.Sizing.KellyFraction))
	}
	if c.Sizing.MaxPositionSize <= 0 {
		errs = append(errs, "sizing: max_position_size must be > 0")
	}

	// Risk
	if c.Risk.InitialCapital <= 0 {
		errs = append(errs, "risk: initial_capital must be > 0")
	}
	if c.Risk.MaxTotalExposure <= 0 {
		errs = append(errs, "risk: max_total_exposure must be > 0")
	}
	if c.Risk.StopLossPct <= 0 || c.Risk.StopLossPct >= 1 {
		errs = append(errs, fmt.Sprintf("risk: stop_loss_percentage must be in (0, 1), got %g", c.Risk.StopLossPct))
	}
	if c.Risk.MaxPositionAgeHours <= 0 {
		errs = append(errs, "risk: max_position_age_hours must be > 0")
	}

	// Execution
	if c.Execution.Mode != "alert" && c.Execution.Mode != "auto_trade" {
		errs = append(errs, fmt.Sprintf("execution: mode must be alert or auto_trade, got %q", c.Execution.Mode))
	}
	if c.Execution.DedupTTL.Duration <= 0 {
		errs = append(errs, "execution: dedup_ttl must be > 0")
	}
	if c.Execution.Mode == "auto_trade" && !c.Execution.DryRun {
		if c.Polymarket.Address == "" || c.Polymarket.APIKey == "" ||
			c.Polymarket.APISecret == "" || c.Polymarket.APIPassphrase == "" {
			errs = append(errs, "polymarket: address, api_key, api_secret, and api_passphrase are required for live auto_trade")
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

	// S3
	if c.S3.Endpoint == "" {
		errs = append(errs, "s3: endpoint must not be empty")
	}
	if c.S3.Bucket == "" {
		errs = append(errs, "s3: bucket must not be empty")
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	// auto_trade without an exposure cap smaller than capital is almost
	// certainly a typo.
	if c.Execution.Mode == "auto_trade" && c.Risk.MaxTotalExposure > c.Risk.InitialCapital {
		errs = append(errs, "risk: max_total_exposure must not exceed initial_capital in auto_trade mode")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
