package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/polyarb/arbot/internal/blob/s3"
	"github.com/polyarb/arbot/internal/cache/redis"
	"github.com/polyarb/arbot/internal/config"
	"github.com/polyarb/arbot/internal/domain"
	"github.com/polyarb/arbot/internal/notify"
	"github.com/polyarb/arbot/internal/platform/polygon"
	"github.com/polyarb/arbot/internal/platform/polymarket"
	"github.com/polyarb/arbot/internal/store/postgres"
)

// Dependencies bundles everything the application modes need. It is
// constructed by Wire and torn down by the returned cleanup function. Fields
// that a mode does not require may be nil.
type Dependencies struct {
	// Stores (nil without Postgres)
	OpportunityStore domain.OpportunityStore
	PositionStore    domain.PositionStore
	TradeStore       domain.TradeStore
	AuditStore       domain.AuditStore

	// Redis
	SnapshotCache domain.SnapshotCache
	RateLimiter   *redis.RateLimiter
	LockManager   *redis.LockManager
	SignalBus     domain.SignalBus

	// Object storage (nil without S3)
	Archiver *s3blob.Archiver

	// Platform clients
	Gamma *polymarket.GammaClient
	Gas   domain.GasPriceSource

	Notifier *notify.Notifier
}

// needsPostgres reports whether the mode requires a database connection.
// In alert and monitor modes the database is optional: it is wired when
// configured so those modes can still record history.
func needsPostgres(mode string) bool {
	switch mode {
	case "auto_trade", "server", "full":
		return true
	default:
		return false
	}
}

// needsS3 reports whether the mode archives detection output.
func needsS3(mode string) bool {
	switch mode {
	case "alert", "auto_trade", "full":
		return true
	default:
		return false
	}
}

// Wire constructs the concrete dependency implementations from the
// configuration and returns them with a cleanup function to call on shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	wantPostgres := needsPostgres(cfg.Mode) || cfg.Postgres.DSN != "" || cfg.Postgres.Host != ""
	if wantPostgres {
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
			if needsPostgres(cfg.Mode) {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres: %w", err)
			}
			logger.Warn("postgres unavailable, running without persistence",
				slog.String("error", err.Error()),
			)
		} else {
			closers = append(closers, pgClient.Close)

			if cfg.Postgres.RunMigrations {
				if err := pgClient.RunMigrations(ctx); err != nil {
					cleanup()
					return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
				}
			}

			pool := pgClient.Pool()
			deps.OpportunityStore = postgres.NewOpportunityStore(pool)
			deps.PositionStore = postgres.NewPositionStore(pool)
			deps.TradeStore = postgres.NewTradeStore(pool)
			deps.AuditStore = postgres.NewAuditStore(pool)
		}
	}

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

	deps.SnapshotCache = redis.NewSnapshotCache(redisClient)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)
	deps.LockManager = redis.NewLockManager(redisClient)
	deps.SignalBus = redis.NewSignalBus(redisClient)

	// --- S3 opportunity archive ---
	if needsS3(cfg.Mode) {
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

		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client), cfg.S3.Prefix, logger)
	}

	// --- Polymarket Gamma API (throttled through Redis) ---
	deps.Gamma = polymarket.NewGammaClient(cfg.Polymarket.GammaHost, deps.RateLimiter)

	// --- Polygon gas pricing ---
	gas, err := polygon.NewGasSource(cfg.Polygon.RPCURL, cfg.Polygon.FallbackGasGwei, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: polygon: %w", err)
	}
	deps.Gas = gas

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
