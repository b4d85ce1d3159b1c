package arbitrage

import (
	"log/slog"
	"strings"

	"github.com/polyarb/arbot/internal/domain"
)

// CrossMarketConfig configures the cross-market strategy.
type CrossMarketConfig struct {
	MinProfitPct float64
}

// CrossMarket finds the same event listed on more than one market and trades
// the price gap: buy the outcome where it is cheap, sell where it is rich.
// Grouping is a heuristic on the normalized question text, so downstream
// scoring should treat these as lower confidence than a pure imbalance.
type CrossMarket struct {
	cfg    CrossMarketConfig
	logger *slog.Logger
}

func NewCrossMarket(cfg CrossMarketConfig, logger *slog.Logger) *CrossMarket {
	if cfg.MinProfitPct == 0 {
		cfg.MinProfitPct = defaultMinProfitPct
	}
	return &CrossMarket{cfg: cfg, logger: logger.With(slog.String("strategy", "cross_market"))}
}

func (s *CrossMarket) Name() string { return string(domain.KindCrossMarket) }

// normalizeQuestion reduces a question to a blunt grouping key: lowercase,
// punctuation stripped, first 50 characters. Coarse on purpose; near-identical
// listings of the same event collide, unrelated ones rarely do.
func normalizeQuestion(q string) string {
	q = strings.ToLower(q)
	q = strings.ReplaceAll(q, "?", "")
	q = strings.ReplaceAll(q, "!", "")
	q = strings.TrimSpace(q)
	if len(q) > 50 {
		q = q[:50]
	}
	return q
}

// Detect groups snapshots by normalized question and compares every ordered
// pair within each group on both outcomes.
func (s *CrossMarket) Detect(snapshots []domain.Snapshot) ([]domain.Opportunity, error) {
	groups := make(map[string][]domain.Snapshot)
	for _, m := range snapshots {
		key := normalizeQuestion(m.Question)
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], m)
	}

	var opps []domain.Opportunity
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		for i, buy := range group {
			for j, sell := range group {
				if i == j {
					continue
				}
				for _, outcome := range []domain.Outcome{domain.OutcomeYes, domain.OutcomeNo} {
					buyPrice := buy.Ask(outcome)
					sellPrice := sell.Bid(outcome)
					if buyPrice <= 0 || sellPrice <= buyPrice {
						continue
					}
					profitPct := (sellPrice - buyPrice) / buyPrice * 100
					if profitPct < s.cfg.MinProfitPct {
						continue
					}
					opps = append(opps, domain.CrossMarketOpportunity{
						BuyMarket:        buy,
						SellMarket:       sell,
						Outcome:          outcome,
						BuyPrice:         buyPrice,
						SellPrice:        sellPrice,
						ProfitPercentage: profitPct,
						ExpectedProfit:   (sellPrice - buyPrice) * referencePosition,
					})
				}
			}
		}
	}

	s.logger.Debug("cross-market scan complete",
		slog.Int("markets", len(snapshots)),
		slog.Int("groups", len(groups)),
		slog.Int("opportunities", len(opps)),
	)
	return opps, nil
}
