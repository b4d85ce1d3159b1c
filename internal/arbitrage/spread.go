package arbitrage

import (
	"log/slog"

	"github.com/polyarb/arbot/internal/domain"
)

const (
	defaultMinSpreadPct = 2.0

	// spreadLiquidityFraction caps the assumed fill size at a tenth of the
	// market's liquidity so the estimate stays realistic in thin books.
	spreadLiquidityFraction = 0.1
)

// SpreadConfig configures the order-book spread strategy.
type SpreadConfig struct {
	MinProfitPct float64
	MinSpreadPct float64
}

// Spread flags wide bid-ask spreads where quoting inside the book can earn
// roughly half the spread per fill. Unlike the structural strategies the
// profit here is probabilistic: it needs both sides to trade.
type Spread struct {
	cfg    SpreadConfig
	logger *slog.Logger
}

func NewSpread(cfg SpreadConfig, logger *slog.Logger) *Spread {
	if cfg.MinProfitPct == 0 {
		cfg.MinProfitPct = defaultMinProfitPct
	}
	if cfg.MinSpreadPct == 0 {
		cfg.MinSpreadPct = defaultMinSpreadPct
	}
	return &Spread{cfg: cfg, logger: logger.With(slog.String("strategy", "order_book_spread"))}
}

func (s *Spread) Name() string { return string(domain.KindOrderBookSpread) }

// Detect evaluates each outcome side of each snapshot independently.
func (s *Spread) Detect(snapshots []domain.Snapshot) ([]domain.Opportunity, error) {
	var opps []domain.Opportunity

	for _, m := range snapshots {
		for _, outcome := range []domain.Outcome{domain.OutcomeYes, domain.OutcomeNo} {
			bid := m.Bid(outcome)
			ask := m.Ask(outcome)
			mid := m.Mid(outcome)
			if bid <= 0 || ask <= bid || mid <= 0 {
				continue
			}

			spreadPct := (ask - bid) / mid * 100
			if spreadPct < s.cfg.MinSpreadPct {
				continue
			}

			size := m.Liquidity * spreadLiquidityFraction
			if size > referencePosition {
				size = referencePosition
			}
			// Quoting inside the book earns about half the spread per
			// round trip, on size/mid units of the outcome token.
			profit := (ask - bid) / 2 * (size / mid)
			profitPct := profit / (mid * referencePosition) * 100
			if profitPct < s.cfg.MinProfitPct {
				continue
			}

			opps = append(opps, domain.SpreadOpportunity{
				Market:           m,
				Outcome:          outcome,
				BidPrice:         bid,
				AskPrice:         ask,
				SpreadPct:        spreadPct,
				MidPrice:         mid,
				Liquidity:        m.Liquidity,
				ProfitPercentage: profitPct,
				ExpectedProfit:   profit,
			})
		}
	}

	s.logger.Debug("spread scan complete",
		slog.Int("markets", len(snapshots)),
		slog.Int("opportunities", len(opps)),
	)
	return opps, nil
}
