package arbitrage

import (
	"fmt"
	"log/slog"

	"github.com/polyarb/arbot/internal/domain"
)

const (
	defaultGasSafetyBuffer    = 1.2
	defaultMinProfitThreshold = 1.0
	defaultSafetyMargin       = 1.1

	// maticPriceUSD is the assumed MATIC/USD rate for converting gas costs.
	maticPriceUSD = 0.80
)

// DetectorConfig configures the detection coordinator.
type DetectorConfig struct {
	// MinProfitThreshold is the minimum net profit in USD.
	MinProfitThreshold float64
	// SafetyMargin scales the threshold to absorb estimation error.
	SafetyMargin float64
	// GasSafetyBuffer scales the per-variant gas unit estimate.
	GasSafetyBuffer float64
}

// Detector runs every registered strategy over a snapshot batch and filters
// the combined result down to opportunities that remain profitable after
// estimated transaction costs. A failing strategy, whether by error or by
// panic, is logged and skipped; it never takes down the pass.
type Detector struct {
	cfg        DetectorConfig
	strategies []Strategy
	logger     *slog.Logger
}

// NewDetector creates a detector over the given strategies.
func NewDetector(cfg DetectorConfig, strategies []Strategy, logger *slog.Logger) *Detector {
	if cfg.MinProfitThreshold == 0 {
		cfg.MinProfitThreshold = defaultMinProfitThreshold
	}
	if cfg.SafetyMargin == 0 {
		cfg.SafetyMargin = defaultSafetyMargin
	}
	if cfg.GasSafetyBuffer == 0 {
		cfg.GasSafetyBuffer = defaultGasSafetyBuffer
	}
	return &Detector{
		cfg:        cfg,
		strategies: strategies,
		logger:     logger.With(slog.String("component", "detector")),
	}
}

// Strategies returns the registered strategies.
func (d *Detector) Strategies() []Strategy { return d.strategies }

// Detect runs every strategy and concatenates the results in registration
// order.
func (d *Detector) Detect(snapshots []domain.Snapshot) []domain.Opportunity {
	var all []domain.Opportunity

	for _, strat := range d.strategies {
		opps, err := d.runStrategy(strat, snapshots)
		if err != nil {
			d.logger.Error("strategy failed",
				slog.String("strategy", strat.Name()),
				slog.String("error", err.Error()),
			)
			continue
		}
		all = append(all, opps...)
	}

	d.logger.Info("detection pass complete",
		slog.Int("markets", len(snapshots)),
		slog.Int("opportunities", len(all)),
	)
	return all
}

// runStrategy isolates a single strategy invocation, converting panics into
// errors.
func (d *Detector) runStrategy(strat Strategy, snapshots []domain.Snapshot) (opps []domain.Opportunity, err error) {
	defer func() {
		if r := recover(); r != nil {
			opps = nil
			err = fmt.Errorf("strategy panicked: %v", r)
		}
	}()
	return strat.Detect(snapshots)
}

// FilterProfitable keeps only the opportunities whose expected profit, net of
// the estimated gas cost at the given gwei price, clears the configured
// threshold times the safety margin.
func (d *Detector) FilterProfitable(opps []domain.Opportunity, gasPriceGwei float64) []domain.Opportunity {
	var kept []domain.Opportunity

	for _, opp := range opps {
		gasCost, err := d.EstimateGasCost(opp, gasPriceGwei)
		if err != nil {
			d.logger.Error("cannot estimate gas cost",
				slog.String("kind", string(opp.Kind())),
				slog.String("error", err.Error()),
			)
			continue
		}
		net := opp.ExpectedProfitUSD() - gasCost
		if net > d.cfg.MinProfitThreshold*d.cfg.SafetyMargin {
			kept = append(kept, opp)
		}
	}

	d.logger.Info("profitability filter applied",
		slog.Int("in", len(opps)),
		slog.Int("out", len(kept)),
		slog.Float64("gas_price_gwei", gasPriceGwei),
	)
	return kept
}

// EstimateGasCost converts a per-variant gas unit estimate into USD at the
// given gwei price, assuming Polygon-level fees. Unknown variants are an
// error, not a default.
func (d *Detector) EstimateGasCost(opp domain.Opportunity, gasPriceGwei float64) (float64, error) {
	var gasUnits float64
	switch o := opp.(type) {
	case domain.ImbalanceOpportunity:
		gasUnits = 200_000 // two transactions
	case domain.CrossMarketOpportunity:
		gasUnits = 200_000 // buy and sell
	case domain.MultiLegOpportunity:
		gasUnits = 100_000 * float64(len(o.Legs))
	case domain.CorrelatedOpportunity:
		gasUnits = 200_000 // two related transactions
	case domain.SpreadOpportunity:
		gasUnits = 100_000 // single limit order
	case domain.TimeBasedOpportunity:
		gasUnits = 150_000 // quick market order
	default:
		return 0, fmt.Errorf("%w: %T", domain.ErrUnknownKind, opp)
	}

	gasUnits *= d.cfg.GasSafetyBuffer
	gasCostMatic := gasUnits * gasPriceGwei / 1e9
	return gasCostMatic * maticPriceUSD, nil
}
