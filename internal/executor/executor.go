package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/polyarb/arbot/internal/domain"
)

// Mode selects what the executor does with a sized opportunity.
type Mode string

const (
	// ModeAlert logs and records the opportunity without trading.
	ModeAlert Mode = "alert"
	// ModeAutoTrade places real orders.
	ModeAutoTrade Mode = "auto_trade"
)

// OrderRequest is one order to place against the exchange.
type OrderRequest struct {
	MarketID string
	Outcome  domain.Outcome
	Side     domain.OrderSide
	Type     domain.OrderType
	Price    float64
	Size     float64 // USD
	Strategy domain.Kind
}

// OrderPlacer submits orders to the exchange. Implemented by the platform
// layer; a dry-run placer just logs.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req OrderRequest) (domain.Trade, error)
}

// Config configures the executor.
type Config struct {
	Mode     Mode
	DryRun   bool
	DedupTTL time.Duration
}

// Executor turns scored opportunities into orders. In alert mode it only
// announces them; in auto-trade mode it builds the per-variant order legs and
// submits them through the OrderPlacer. Either way a dedup window keeps the
// same mispricing from firing on every polling pass.
type Executor struct {
	cfg    Config
	orders OrderPlacer
	dedup  *Dedup
	logger *slog.Logger
}

func New(cfg Config, orders OrderPlacer, logger *slog.Logger) *Executor {
	if cfg.Mode == "" {
		cfg.Mode = ModeAlert
	}
	if cfg.DedupTTL == 0 {
		cfg.DedupTTL = 5 * time.Minute
	}
	return &Executor{
		cfg:    cfg,
		orders: orders,
		dedup:  NewDedup(cfg.DedupTTL),
		logger: logger.With(slog.String("component", "executor")),
	}
}

// Mode returns the configured execution mode.
func (e *Executor) Mode() Mode { return e.cfg.Mode }

// RunCleanup garbage-collects the dedup map until the context is cancelled.
func (e *Executor) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.dedup.Cleanup()
		}
	}
}

// Execute handles one sized opportunity. It returns the executed trades, or
// nil when the opportunity was deduplicated, alerted-only, or dry-run.
func (e *Executor) Execute(ctx context.Context, sc domain.ScoredOpportunity, size float64) ([]domain.Trade, error) {
	opp := sc.Opportunity
	log := e.logger.With(
		slog.String("kind", string(opp.Kind())),
		slog.Float64("score", sc.Score),
		slog.Float64("size", size),
	)

	if e.dedup.IsDuplicate(OpportunityKey(opp)) {
		log.Debug("opportunity deduplicated, skipping")
		return nil, nil
	}

	if e.cfg.Mode == ModeAlert {
		log.Info("arbitrage opportunity",
			slog.String("detail", opp.Summary()),
			slog.Float64("profit_pct", opp.ProfitPct()),
			slog.Float64("expected_profit_usd", opp.ExpectedProfitUSD()),
			slog.Float64("confidence", sc.ConfidenceScore),
			slog.Float64("risk", sc.RiskScore),
		)
		return nil, nil
	}

	reqs, err := BuildOrders(opp, size)
	if err != nil {
		return nil, fmt.Errorf("build orders: %w", err)
	}

	var trades []domain.Trade
	for _, req := range reqs {
		if e.cfg.DryRun {
			log.Info("dry run: would place order",
				slog.String("market", req.MarketID),
				slog.String("outcome", string(req.Outcome)),
				slog.String("side", string(req.Side)),
				slog.Float64("price", req.Price),
				slog.Float64("order_size", req.Size),
			)
			continue
		}

		trade, err := e.orders.PlaceOrder(ctx, req)
		if err != nil {
			log.Error("order placement failed",
				slog.String("market", req.MarketID),
				slog.String("side", string(req.Side)),
				slog.String("error", err.Error()),
			)
			return trades, fmt.Errorf("place order on %s: %w", req.MarketID, err)
		}
		trades = append(trades, trade)
		log.Info("order placed",
			slog.String("trade_id", trade.ID),
			slog.String("market", trade.MarketID),
			slog.String("side", string(trade.Side)),
			slog.Float64("price", trade.Price),
		)
	}
	return trades, nil
}

// BuildOrders converts an opportunity into the orders that realize it. Every
// variant has an explicit construction; an unknown one is an error so a new
// strategy cannot silently trade a shape the executor does not understand.
func BuildOrders(opp domain.Opportunity, size float64) ([]OrderRequest, error) {
	switch o := opp.(type) {
	case domain.ImbalanceOpportunity:
		side := domain.OrderSideBuy
		if o.Action == domain.ImbalanceSellBoth {
			side = domain.OrderSideSell
		}
		return []OrderRequest{
			{MarketID: o.Market.MarketID, Outcome: domain.OutcomeYes, Side: side,
				Type: domain.OrderTypeLimit, Price: o.YesPrice, Size: size, Strategy: o.Kind()},
			{MarketID: o.Market.MarketID, Outcome: domain.OutcomeNo, Side: side,
				Type: domain.OrderTypeLimit, Price: o.NoPrice, Size: size, Strategy: o.Kind()},
		}, nil

	case domain.CrossMarketOpportunity:
		return []OrderRequest{
			{MarketID: o.BuyMarket.MarketID, Outcome: o.Outcome, Side: domain.OrderSideBuy,
				Type: domain.OrderTypeLimit, Price: o.BuyPrice, Size: size, Strategy: o.Kind()},
			{MarketID: o.SellMarket.MarketID, Outcome: o.Outcome, Side: domain.OrderSideSell,
				Type: domain.OrderTypeLimit, Price: o.SellPrice, Size: size, Strategy: o.Kind()},
		}, nil

	case domain.MultiLegOpportunity:
		if len(o.Legs) == 0 {
			return nil, fmt.Errorf("multi-leg opportunity has no legs")
		}
		perLeg := size / float64(len(o.Legs))
		reqs := make([]OrderRequest, 0, len(o.Legs))
		for _, leg := range o.Legs {
			side := domain.OrderSideBuy
			if leg.Action == domain.LegActionSell {
				side = domain.OrderSideSell
			}
			reqs = append(reqs, OrderRequest{
				MarketID: leg.MarketID, Outcome: leg.Outcome, Side: side,
				Type: domain.OrderTypeLimit, Price: leg.Price, Size: perLeg, Strategy: o.Kind(),
			})
		}
		return reqs, nil

	case domain.CorrelatedOpportunity:
		// buy the underpriced correlated side only
		return []OrderRequest{
			{MarketID: o.Correlated.MarketID, Outcome: o.CorrelatedOutcome, Side: domain.OrderSideBuy,
				Type: domain.OrderTypeLimit, Price: o.ActualProbability, Size: size, Strategy: o.Kind()},
		}, nil

	case domain.SpreadOpportunity:
		// quote both sides inside the spread
		return []OrderRequest{
			{MarketID: o.Market.MarketID, Outcome: o.Outcome, Side: domain.OrderSideBuy,
				Type: domain.OrderTypeLimit, Price: o.BidPrice, Size: size, Strategy: o.Kind()},
			{MarketID: o.Market.MarketID, Outcome: o.Outcome, Side: domain.OrderSideSell,
				Type: domain.OrderTypeLimit, Price: o.AskPrice, Size: size, Strategy: o.Kind()},
		}, nil

	case domain.TimeBasedOpportunity:
		// trade toward the expected reversion, quickly
		side := domain.OrderSideBuy
		if o.CurrentPrice > o.HistoricalAvg {
			side = domain.OrderSideSell
		}
		return []OrderRequest{
			{MarketID: o.Market.MarketID, Outcome: o.Outcome, Side: side,
				Type: domain.OrderTypeMarket, Price: o.CurrentPrice, Size: size, Strategy: o.Kind()},
		}, nil

	default:
		return nil, fmt.Errorf("%w: %T", domain.ErrUnknownKind, opp)
	}
}
