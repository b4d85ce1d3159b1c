package arbitrage

import (
	"log/slog"

	"github.com/polyarb/arbot/internal/domain"
)

const (
	defaultImbalanceThreshold = 0.02
	defaultMinProfitPct       = 0.5

	// referencePosition is the canonical $100 position used for comparable
	// profit estimates before actual sizing.
	referencePosition = 100.0
)

// ImbalanceConfig configures the YES/NO imbalance strategy.
type ImbalanceConfig struct {
	MinProfitPct       float64
	ImbalanceThreshold float64
}

// Imbalance detects markets where YES + NO prices deviate from 1.00. When the
// ask sum is below 1.0 buying both sides locks in the difference at
// resolution; when the bid sum is above 1.0 selling both sides captures it
// immediately. Both checks are evaluated independently, so a single market
// can emit a buy_both and a sell_both in the same pass.
type Imbalance struct {
	cfg    ImbalanceConfig
	logger *slog.Logger
}

// NewImbalance creates the strategy. Zero config fields fall back to the
// defaults (0.5% minimum profit, 0.02 imbalance threshold).
func NewImbalance(cfg ImbalanceConfig, logger *slog.Logger) *Imbalance {
	if cfg.MinProfitPct == 0 {
		cfg.MinProfitPct = defaultMinProfitPct
	}
	if cfg.ImbalanceThreshold == 0 {
		cfg.ImbalanceThreshold = defaultImbalanceThreshold
	}
	return &Imbalance{cfg: cfg, logger: logger.With(slog.String("strategy", "yes_no_imbalance"))}
}

// Name returns the strategy identifier.
func (s *Imbalance) Name() string { return string(domain.KindYesNoImbalance) }

// Detect evaluates every snapshot's ask and bid sums against the imbalance
// threshold.
func (s *Imbalance) Detect(snapshots []domain.Snapshot) ([]domain.Opportunity, error) {
	var opps []domain.Opportunity

	for _, m := range snapshots {
		// Buying costs the ask on both sides.
		buySum := m.YesAsk + m.NoAsk
		buyImbalance := 1.0 - buySum

		if buyImbalance > s.cfg.ImbalanceThreshold && buySum > 0 {
			profitPct := buyImbalance / buySum * 100
			if profitPct >= s.cfg.MinProfitPct {
				opps = append(opps, domain.ImbalanceOpportunity{
					Market:           m,
					YesPrice:         m.YesAsk,
					NoPrice:          m.NoAsk,
					PriceSum:         buySum,
					Imbalance:        buyImbalance,
					Action:           domain.ImbalanceBuyBoth,
					ProfitPercentage: profitPct,
					ExpectedProfit:   buyImbalance * referencePosition,
				})
			}
		}

		// Selling receives the bid on both sides.
		sellSum := m.YesBid + m.NoBid
		sellImbalance := sellSum - 1.0

		if sellImbalance > s.cfg.ImbalanceThreshold {
			profitPct := sellImbalance / 1.0 * 100
			if profitPct >= s.cfg.MinProfitPct {
				opps = append(opps, domain.ImbalanceOpportunity{
					Market:           m,
					YesPrice:         m.YesBid,
					NoPrice:          m.NoBid,
					PriceSum:         sellSum,
					Imbalance:        sellImbalance,
					Action:           domain.ImbalanceSellBoth,
					ProfitPercentage: profitPct,
					ExpectedProfit:   sellImbalance * referencePosition,
				})
			}
		}
	}

	s.logger.Debug("imbalance scan complete",
		slog.Int("markets", len(snapshots)),
		slog.Int("opportunities", len(opps)),
	)
	return opps, nil
}
