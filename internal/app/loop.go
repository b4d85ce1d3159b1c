package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/polyarb/arbot/internal/arbitrage"
	"github.com/polyarb/arbot/internal/domain"
	"github.com/polyarb/arbot/internal/executor"
	"github.com/polyarb/arbot/internal/notify"
	"github.com/polyarb/arbot/internal/platform/polymarket"
	"github.com/polyarb/arbot/internal/service"
)

// maxAlertsPerPass caps how many notifications one detection pass can send so
// a volatile market does not flood the channels.
const maxAlertsPerPass = 5

// engine bundles the detection pipeline built once per run. The execution
// half (risk, sizing, executor) is nil outside auto_trade and full modes.
type engine struct {
	detector *arbitrage.Detector
	scorer   *arbitrage.Scorer
	opps     *service.OpportunityService

	risk      *service.RiskService
	perf      *service.PerformanceTracker
	allocator *executor.CapitalAllocator
	exec      *executor.Executor
	quotes    *quoteTracker

	announce bool // send notifications
}

// buildEngine constructs the detection pipeline from configuration. When
// execute is true it also builds the sizing, risk, and execution components.
func (a *App) buildEngine(deps *Dependencies, execute bool) (*engine, error) {
	strategies, err := arbitrage.BuildStrategies(arbitrage.StrategySetConfig{
		Enabled:             a.cfg.Detection.Enabled,
		MinProfitPct:        a.cfg.Detection.MinProfitPct,
		ImbalanceThreshold:  a.cfg.Detection.ImbalanceThreshold,
		MaxLegs:             a.cfg.Detection.MaxLegs,
		MinMispricing:       a.cfg.Detection.MinMispricing,
		MinSpreadPct:        a.cfg.Detection.MinSpreadPct,
		TimeWindowHours:     a.cfg.Detection.TimeWindowHours,
		VolatilityThreshold: a.cfg.Detection.VolatilityThreshold,
	}, a.logger)
	if err != nil {
		return nil, fmt.Errorf("build strategies: %w", err)
	}

	eng := &engine{
		detector: arbitrage.NewDetector(arbitrage.DetectorConfig{
			MinProfitThreshold: a.cfg.Detection.MinProfitThreshold,
			SafetyMargin:       a.cfg.Detection.SafetyMargin,
			GasSafetyBuffer:    a.cfg.Detection.GasSafetyBuffer,
		}, strategies, a.logger),
		scorer: arbitrage.NewScorer(a.logger),
		opps: service.NewOpportunityService(
			deps.OpportunityStore, deps.SignalBus, deps.AuditStore, a.logger,
		),
	}

	if !execute {
		return eng, nil
	}

	sizer, err := executor.NewPositionSizer(executor.SizerConfig{
		Method:          executor.SizingMethod(a.cfg.Sizing.Method),
		KellyFraction:   a.cfg.Sizing.KellyFraction,
		MaxPositionSize: a.cfg.Sizing.MaxPositionSize,
	}, a.logger)
	if err != nil {
		return nil, fmt.Errorf("build sizer: %w", err)
	}

	eng.allocator = executor.NewCapitalAllocator(executor.AllocatorConfig{
		MaxTotalExposure: a.cfg.Risk.MaxTotalExposure,
	}, sizer, a.logger)

	eng.risk = service.NewRiskService(service.RiskConfig{
		InitialCapital:      a.cfg.Risk.InitialCapital,
		MaxPositionSize:     a.cfg.Sizing.MaxPositionSize,
		MaxTotalExposure:    a.cfg.Risk.MaxTotalExposure,
		StopLossPct:         a.cfg.Risk.StopLossPct,
		MaxPositionAgeHours: a.cfg.Risk.MaxPositionAgeHours,
	}, a.logger)
	eng.perf = service.NewPerformanceTracker(a.cfg.Risk.InitialCapital)

	eng.quotes = newQuoteTracker()

	var placer executor.OrderPlacer
	if !a.cfg.Execution.DryRun {
		clob := polymarket.NewClobClient(a.cfg.Polymarket.ClobHost, &polymarket.HMACAuth{
			Address:    a.cfg.Polymarket.Address,
			Key:        a.cfg.Polymarket.APIKey,
			Secret:     a.cfg.Polymarket.APISecret,
			Passphrase: a.cfg.Polymarket.APIPassphrase,
		})
		// Learn token IDs as the snapshot poll discovers markets.
		deps.Gamma.OnMarket = func(m *polymarket.APIMarket) {
			clob.RegisterMarket(m.ID, m.TokenIDs())
			eng.quotes.observe(m)
		}
		placer = clob
	} else {
		deps.Gamma.OnMarket = eng.quotes.observe
	}

	eng.exec = executor.New(executor.Config{
		Mode:     executor.Mode(a.cfg.Execution.Mode),
		DryRun:   a.cfg.Execution.DryRun,
		DedupTTL: a.cfg.Execution.DedupTTL.Duration,
	}, placer, a.logger)

	return eng, nil
}

// runDetection polls markets on the configured interval and pushes each batch
// through detect, filter, score, record, archive, notify, and (when built)
// execute. Individual pass failures are logged and the loop continues.
func (a *App) runDetection(ctx context.Context, deps *Dependencies, eng *engine) error {
	interval := a.cfg.Polymarket.PollInterval.Duration
	if interval <= 0 {
		interval = 30 * time.Second
	}

	a.logger.InfoContext(ctx, "detection loop started",
		slog.Duration("interval", interval),
		slog.String("category", a.cfg.Polymarket.Category),
		slog.Bool("executing", eng.exec != nil),
	)

	if eng.exec != nil {
		go eng.exec.RunCleanup(ctx, time.Minute)
	}

	a.detectOnce(ctx, deps, eng)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a.detectOnce(ctx, deps, eng)
		}
	}
}

// detectOnce runs a single detection pass.
func (a *App) detectOnce(ctx context.Context, deps *Dependencies, eng *engine) {
	snaps, err := deps.Gamma.Snapshots(ctx, a.cfg.Polymarket.Category, a.cfg.Polymarket.MarketLimit)
	if err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			a.logger.WarnContext(ctx, "snapshot fetch rate limited, skipping pass")
		} else {
			a.logger.ErrorContext(ctx, "snapshot fetch failed", slog.String("error", err.Error()))
		}
		return
	}
	if len(snaps) == 0 {
		a.logger.DebugContext(ctx, "no markets returned")
		return
	}

	if err := deps.SnapshotCache.SetBatch(ctx, snaps); err != nil {
		a.logger.WarnContext(ctx, "snapshot cache write failed", slog.String("error", err.Error()))
	}

	if eng.risk != nil {
		byMarket := make(map[string]domain.Snapshot, len(snaps))
		for _, s := range snaps {
			byMarket[s.MarketID] = s
		}
		eng.risk.UpdatePrices(byMarket)
		a.enforceRiskLimits(ctx, deps, eng)
	}

	opps := eng.detector.Detect(snaps)
	if len(opps) == 0 {
		return
	}

	gasGwei, err := deps.Gas.GasPriceGwei(ctx)
	if err != nil {
		a.logger.WarnContext(ctx, "gas price unavailable", slog.String("error", err.Error()))
	}
	opps = eng.detector.FilterProfitable(opps, gasGwei)
	if len(opps) == 0 {
		return
	}

	scored, err := eng.scorer.Score(opps)
	if err != nil {
		a.logger.ErrorContext(ctx, "scoring failed", slog.String("error", err.Error()))
		return
	}

	records := eng.opps.RecordBatch(ctx, scored)

	if deps.Archiver != nil {
		if err := deps.Archiver.ArchiveBatch(ctx, records); err != nil {
			a.logger.WarnContext(ctx, "archive failed", slog.String("error", err.Error()))
		}
	}

	if eng.announce {
		for i, sc := range scored {
			if i == maxAlertsPerPass {
				break
			}
			title, msg := notify.FormatOpportunity(sc)
			if err := deps.Notifier.Notify(ctx, notify.EventOpportunityDetected, title, msg); err != nil {
				a.logger.WarnContext(ctx, "notification failed", slog.String("error", err.Error()))
			}
		}
	}

	if eng.exec != nil {
		a.executeBatch(ctx, deps, eng, scored)
	}
}

// executeBatch sizes the ranked opportunities against available capital and
// runs each allocation through the executor, persisting the resulting trades
// and positions.
func (a *App) executeBatch(ctx context.Context, deps *Dependencies, eng *engine, scored []domain.ScoredOpportunity) {
	allocation := eng.allocator.Allocate(scored, eng.risk.Capital(), eng.risk.Exposure())

	// scored is already ranked, so walking it by index executes accepted
	// allocations in score order.
	for i, sc := range scored {
		size, ok := allocation[i]
		if !ok {
			continue
		}

		if err := eng.risk.CanOpen(size); err != nil {
			a.logger.InfoContext(ctx, "allocation rejected by risk limits",
				slog.String("kind", string(sc.Opportunity.Kind())),
				slog.Float64("size", size),
				slog.String("reason", err.Error()),
			)
			continue
		}

		trades, err := eng.exec.Execute(ctx, sc, size)
		if err != nil {
			a.logger.ErrorContext(ctx, "execution failed",
				slog.String("kind", string(sc.Opportunity.Kind())),
				slog.String("error", err.Error()),
			)
		}

		for _, trade := range trades {
			a.recordTrade(ctx, deps, eng, trade)
		}
	}
}

// recordTrade persists a fill, opens the corresponding tracked position, and
// announces it.
func (a *App) recordTrade(ctx context.Context, deps *Dependencies, eng *engine, trade domain.Trade) {
	if deps.TradeStore != nil {
		if err := deps.TradeStore.Insert(ctx, trade); err != nil {
			a.logger.WarnContext(ctx, "trade insert failed",
				slog.String("trade_id", trade.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	eng.perf.AddTrade(trade)

	if evt, err := json.Marshal(trade); err == nil {
		if err := deps.SignalBus.Publish(ctx, "trades", evt); err != nil {
			a.logger.WarnContext(ctx, "trade publish failed", slog.String("error", err.Error()))
		}
	}

	// Only buys open a position; sells are the closing side of a leg pair.
	if trade.Side != domain.OrderSideBuy {
		return
	}

	pos := domain.Position{
		ID:         trade.ID,
		MarketID:   trade.MarketID,
		Outcome:    trade.Outcome,
		Size:       trade.Size,
		EntryPrice: trade.Price,
		EntryTime:  trade.Timestamp,
		GasCosts:   trade.GasCost,
		Status:     domain.PositionStatusOpen,
		Strategy:   trade.Strategy,
	}
	pos.CurrentPrice = pos.EntryPrice

	if deps.PositionStore != nil {
		if err := deps.PositionStore.Create(ctx, pos); err != nil {
			a.logger.WarnContext(ctx, "position create failed",
				slog.String("position_id", pos.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	eng.risk.AddPosition(pos)

	title, msg := notify.FormatTrade(trade)
	if err := deps.Notifier.Notify(ctx, notify.EventOrderFilled, title, msg); err != nil {
		a.logger.WarnContext(ctx, "notification failed", slog.String("error", err.Error()))
	}
}

// enforceRiskLimits closes positions that hit the stop loss or the maximum
// holding period. Prices must already be marked via UpdatePrices.
func (a *App) enforceRiskLimits(ctx context.Context, deps *Dependencies, eng *engine) {
	for _, id := range eng.risk.CheckStopLosses() {
		a.closePosition(ctx, deps, eng, id, domain.PositionStatusClosedStopLoss)
	}
	for _, id := range eng.risk.CheckPositionAges() {
		a.closePosition(ctx, deps, eng, id, domain.PositionStatusClosedAgeLimit)
	}
}

func (a *App) closePosition(ctx context.Context, deps *Dependencies, eng *engine, id string, status domain.PositionStatus) {
	var pos domain.Position
	found := false
	for _, p := range eng.risk.OpenPositions() {
		if p.ID == id {
			pos, found = p, true
			break
		}
	}
	if !found {
		return
	}

	exitPrice := pos.CurrentPrice
	if deps.PositionStore != nil {
		if err := deps.PositionStore.Close(ctx, id, exitPrice, status); err != nil {
			a.logger.WarnContext(ctx, "position close failed",
				slog.String("position_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	now := time.Now().UTC()
	pnl := (exitPrice-pos.EntryPrice)*pos.Size - pos.GasCosts
	pos.ExitPrice = &exitPrice
	pos.ExitTime = &now
	pos.RealizedPnL = &pnl
	pos.Status = status

	eng.risk.RemovePosition(id)
	eng.perf.AddClosedPosition(pos)

	if status == domain.PositionStatusClosedStopLoss {
		title, msg := notify.FormatStopLoss(pos)
		if err := deps.Notifier.Notify(ctx, notify.EventStopLoss, title, msg); err != nil {
			a.logger.WarnContext(ctx, "notification failed", slog.String("error", err.Error()))
		}
	}

	a.logger.InfoContext(ctx, "position closed",
		slog.String("position_id", id),
		slog.String("status", string(status)),
		slog.Float64("realized_pnl", pnl),
	)
}
