package arbitrage

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/polyarb/arbot/internal/domain"
)

// Scoring weights. Risk and execution difficulty are penalties, so they enter
// the composite inverted.
const (
	weightProfit       = 0.35
	weightCapitalEff   = 0.25
	weightConfidence   = 0.20
	weightRisk         = 0.15
	weightExecutionDif = 0.05
)

// Scorer ranks opportunities by a weighted composite of profit, capital
// efficiency, confidence, risk and execution difficulty. All component scores
// live on a 0-100 scale.
type Scorer struct {
	logger *slog.Logger
}

func NewScorer(logger *slog.Logger) *Scorer {
	return &Scorer{logger: logger.With(slog.String("component", "scorer"))}
}

// Score computes the composite for every opportunity and returns them in
// descending score order. The sort is stable: equal scores keep their
// detection order. An opportunity of unknown kind fails the whole batch,
// since it means a variant was added without teaching the scorer about it.
func (s *Scorer) Score(opps []domain.Opportunity) ([]domain.ScoredOpportunity, error) {
	scored := make([]domain.ScoredOpportunity, 0, len(opps))

	for _, opp := range opps {
		sc, err := s.scoreOne(opp)
		if err != nil {
			return nil, err
		}
		scored = append(scored, sc)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	s.logger.Info("opportunities ranked", slog.Int("count", len(scored)))
	return scored, nil
}

func (s *Scorer) scoreOne(opp domain.Opportunity) (domain.ScoredOpportunity, error) {
	confidence, risk, difficulty, capital, err := variantProfile(opp)
	if err != nil {
		return domain.ScoredOpportunity{}, err
	}

	profit := scoreProfit(opp)
	capEff := scoreCapitalEfficiency(opp, capital)

	total := profit*weightProfit +
		capEff*weightCapitalEff +
		confidence*weightConfidence +
		(100-risk)*weightRisk +
		(100-difficulty)*weightExecutionDif

	return domain.ScoredOpportunity{
		Opportunity:            opp,
		Score:                  total,
		ProfitScore:            profit,
		CapitalEfficiencyScore: capEff,
		ConfidenceScore:        confidence,
		RiskScore:              risk,
		ExecutionDifficulty:    difficulty,
	}, nil
}

// scoreProfit blends the absolute profit estimate ($10 saturates) with the
// percentage estimate (10% saturates).
func scoreProfit(opp domain.Opportunity) float64 {
	absolute := math.Min(opp.ExpectedProfitUSD()/10*100, 100)
	percentage := math.Min(opp.ProfitPct()*10, 100)
	return (absolute + percentage) / 2
}

// scoreCapitalEfficiency scores return on the estimated capital outlay; 10%
// ROI saturates.
func scoreCapitalEfficiency(opp domain.Opportunity, capital float64) float64 {
	if capital == 0 {
		return 0
	}
	roi := opp.ExpectedProfitUSD() / capital * 100
	return math.Min(roi*10, 100)
}

// variantProfile returns the per-variant confidence, risk, execution
// difficulty and estimated capital outlay. Structural arbitrage (imbalance,
// cross-market) scores as high confidence and low risk; heuristic variants
// sit lower, and multi-leg scales both with its leg count.
func variantProfile(opp domain.Opportunity) (confidence, risk, difficulty, capital float64, err error) {
	switch o := opp.(type) {
	case domain.ImbalanceOpportunity:
		capital = (o.YesPrice + o.NoPrice) * referencePosition
		return 90, 10, 20, capital, nil
	case domain.CrossMarketOpportunity:
		capital = o.BuyPrice * referencePosition
		return 80, 20, 30, capital, nil
	case domain.CorrelatedOpportunity:
		capital = (o.ImpliedProbability + o.ActualProbability) / 2 * referencePosition
		return 70, 40, 50, capital, nil
	case domain.MultiLegOpportunity:
		for _, leg := range o.Legs {
			capital += leg.Price
		}
		capital *= referencePosition
		risk = math.Min(30+float64(o.Complexity)*5, 100)
		difficulty = math.Min(40+float64(o.Complexity)*10, 100)
		return 60, risk, difficulty, capital, nil
	case domain.SpreadOpportunity:
		return 75, 50, 50, referencePosition, nil
	case domain.TimeBasedOpportunity:
		return 75, 50, 50, referencePosition, nil
	default:
		return 0, 0, 0, 0, fmt.Errorf("%w: %T", domain.ErrUnknownKind, opp)
	}
}
