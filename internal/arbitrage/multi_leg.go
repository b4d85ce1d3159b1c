package arbitrage

import (
	"log/slog"

	"github.com/polyarb/arbot/internal/domain"
)

const defaultMaxLegs = 5

// MultiLegConfig configures the combinatorial multi-leg strategy.
type MultiLegConfig struct {
	MinProfitPct float64
	MaxLegs      int
}

// MultiLeg searches combinations of three or more markets in the same
// category whose combined entry cost is below the combination's maximum
// payout. Legs alternate outcome sides so the basket is hedged across the
// group rather than stacked on one side.
type MultiLeg struct {
	cfg    MultiLegConfig
	logger *slog.Logger
}

func NewMultiLeg(cfg MultiLegConfig, logger *slog.Logger) *MultiLeg {
	if cfg.MinProfitPct == 0 {
		cfg.MinProfitPct = defaultMinProfitPct
	}
	if cfg.MaxLegs == 0 {
		cfg.MaxLegs = defaultMaxLegs
	}
	return &MultiLeg{cfg: cfg, logger: logger.With(slog.String("strategy", "multi_leg"))}
}

func (s *MultiLeg) Name() string { return string(domain.KindMultiLeg) }

// Detect groups snapshots by category and enumerates every combination of
// size 3 up to MaxLegs within each group.
func (s *MultiLeg) Detect(snapshots []domain.Snapshot) ([]domain.Opportunity, error) {
	groups := make(map[string][]domain.Snapshot)
	for _, m := range snapshots {
		groups[m.Category] = append(groups[m.Category], m)
	}

	var opps []domain.Opportunity
	for _, group := range groups {
		if len(group) < 3 {
			continue
		}
		limit := s.cfg.MaxLegs
		if len(group) < limit {
			limit = len(group)
		}
		for size := 3; size <= limit; size++ {
			forEachCombination(len(group), size, func(idx []int) {
				if opp, ok := s.evaluate(group, idx); ok {
					opps = append(opps, opp)
				}
			})
		}
	}

	s.logger.Debug("multi-leg scan complete",
		slog.Int("markets", len(snapshots)),
		slog.Int("opportunities", len(opps)),
	)
	return opps, nil
}

// evaluate prices one combination. Legs alternate YES on even positions and
// NO on odd; a non-positive ask on any leg voids the whole combination.
func (s *MultiLeg) evaluate(group []domain.Snapshot, idx []int) (domain.MultiLegOpportunity, bool) {
	legs := make([]domain.Leg, 0, len(idx))
	cost := 0.0
	for pos, i := range idx {
		m := group[i]
		outcome := domain.OutcomeYes
		if pos%2 == 1 {
			outcome = domain.OutcomeNo
		}
		price := m.Ask(outcome)
		if price <= 0 {
			return domain.MultiLegOpportunity{}, false
		}
		cost += price
		legs = append(legs, domain.Leg{
			MarketID: m.MarketID,
			Action:   domain.LegActionBuy,
			Outcome:  outcome,
			Price:    price,
			Question: m.Question,
		})
	}

	maxPayout := float64(len(legs))
	if cost >= maxPayout {
		return domain.MultiLegOpportunity{}, false
	}
	profitPct := (maxPayout - cost) / cost * 100
	if profitPct < s.cfg.MinProfitPct {
		return domain.MultiLegOpportunity{}, false
	}
	return domain.MultiLegOpportunity{
		Legs:             legs,
		ProfitPercentage: profitPct,
		ExpectedProfit:   (maxPayout - cost) * referencePosition,
		Complexity:       len(legs),
	}, true
}

// forEachCombination invokes fn with every k-subset of [0, n), in
// lexicographic order. The index slice is reused between calls.
func forEachCombination(n, k int, fn func([]int)) {
	if k > n || k <= 0 {
		return
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		fn(idx)
		// advance to the next combination
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}
