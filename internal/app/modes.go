package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/polyarb/arbot/internal/server"
	"github.com/polyarb/arbot/internal/server/handler"
	"github.com/polyarb/arbot/internal/server/ws"
	"github.com/polyarb/arbot/internal/service"
)

// leaderLockTTL bounds how long a crashed auto-trade instance keeps the
// leader lock. A clean shutdown releases it immediately.
const leaderLockTTL = 30 * time.Minute

// AlertMode runs the detection loop and sends notifications for every
// surviving opportunity. No orders are placed.
func (a *App) AlertMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting alert mode")

	eng, err := a.buildEngine(deps, false)
	if err != nil {
		return err
	}
	eng.announce = true

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.runDetection(ctx, deps, eng)
	})
	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, eng)
	}
	return g.Wait()
}

// AutoTradeMode runs detection plus sizing, risk checks, and order execution.
// A Redis leader lock guarantees at most one executing instance per
// deployment.
func (a *App) AutoTradeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting auto-trade mode")

	unlock, err := deps.LockManager.Acquire(ctx, "auto_trade:leader", leaderLockTTL)
	if err != nil {
		return fmt.Errorf("auto-trade leader lock: %w", err)
	}
	defer unlock()

	eng, err := a.buildEngine(deps, true)
	if err != nil {
		return err
	}
	eng.announce = true

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.runDetection(ctx, deps, eng)
	})
	g.Go(func() error {
		return a.runQuoteFeed(ctx, deps, eng)
	})
	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, eng)
	}
	return g.Wait()
}

// MonitorMode runs the detection loop in read-only fashion: opportunities are
// detected, scored, and recorded, but nothing is notified or traded.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting monitor mode")

	eng, err := a.buildEngine(deps, false)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.runDetection(ctx, deps, eng)
	})
	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, eng)
	}
	return g.Wait()
}

// ServerMode serves the HTTP and WebSocket API over recorded data without
// running detection. Useful next to a separate detecting instance sharing the
// same database and Redis.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps, nil)
	return g.Wait()
}

// FullMode runs detection, execution (honoring execution.mode and dry_run),
// and the HTTP API together.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	if a.cfg.Execution.Mode == "auto_trade" {
		unlock, err := deps.LockManager.Acquire(ctx, "auto_trade:leader", leaderLockTTL)
		if err != nil {
			return fmt.Errorf("auto-trade leader lock: %w", err)
		}
		defer unlock()
	}

	eng, err := a.buildEngine(deps, true)
	if err != nil {
		return err
	}
	eng.announce = true

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.runDetection(ctx, deps, eng)
	})
	g.Go(func() error {
		return a.runQuoteFeed(ctx, deps, eng)
	})
	a.startHTTPServer(ctx, g, deps, eng)
	return g.Wait()
}

// startHTTPServer adds the API server and WebSocket hub to the errgroup.
// eng may be nil (server mode); handlers that need live state are then
// backed by the stores alone.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, eng *engine) {
	startedAt := time.Now().UTC()

	var opps *service.OpportunityService
	if eng != nil {
		opps = eng.opps
	} else {
		opps = service.NewOpportunityService(deps.OpportunityStore, nil, nil, a.logger)
	}

	var riskReader handler.RiskReader
	var positionSource handler.PositionSource
	var perfSource handler.PerformanceSource
	if eng != nil && eng.risk != nil {
		riskReader = eng.risk
		positionSource = eng.risk
	}
	if eng != nil && eng.perf != nil {
		perfSource = eng.perf
	}

	handlers := server.Handlers{
		Health: handler.NewHealthHandler(startedAt),
		Status: handler.NewStatusHandler(a.cfg.Mode, a.cfg.Detection.Enabled, startedAt, riskReader),
	}
	if deps.OpportunityStore != nil {
		handlers.Opportunities = handler.NewOpportunityHandler(opps, a.logger)
	}
	if positionSource != nil || deps.PositionStore != nil {
		handlers.Positions = handler.NewPositionHandler(positionSource, deps.PositionStore, a.logger)
	}
	if perfSource != nil {
		handlers.Performance = handler.NewPerformanceHandler(perfSource)
	}

	hub := ws.NewHub(deps.SignalBus, a.cfg.Mode, a.logger)
	g.Go(func() error {
		err := hub.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	srv := server.New(server.Config{
		Port:            a.cfg.Server.Port,
		CORSOrigins:     a.cfg.Server.CORSOrigins,
		APIKey:          a.cfg.Server.APIKey,
		RateLimit:       60,
		RateLimitWindow: time.Minute,
	}, handlers, deps.RateLimiter, hub, a.logger)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}
