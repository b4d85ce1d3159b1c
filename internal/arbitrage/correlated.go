package arbitrage

import (
	"log/slog"
	"strings"

	"github.com/polyarb/arbot/internal/domain"
)

const defaultMinMispricing = 0.05

// CorrelatedConfig configures the correlated-events strategy.
type CorrelatedConfig struct {
	MinProfitPct  float64
	MinMispricing float64
}

// Correlated compares markets whose underlying events are assumed related:
// if two questions concern the same election, one market's YES price implies
// a bound on the other's. The relation is inferred from question keywords, a
// deliberately cheap heuristic, so these rank below structural arbitrage in
// confidence.
type Correlated struct {
	cfg    CorrelatedConfig
	logger *slog.Logger
}

func NewCorrelated(cfg CorrelatedConfig, logger *slog.Logger) *Correlated {
	if cfg.MinProfitPct == 0 {
		cfg.MinProfitPct = defaultMinProfitPct
	}
	if cfg.MinMispricing == 0 {
		cfg.MinMispricing = defaultMinMispricing
	}
	return &Correlated{cfg: cfg, logger: logger.With(slog.String("strategy", "correlated_events"))}
}

func (s *Correlated) Name() string { return string(domain.KindCorrelated) }

// eventBucket maps a market to a coarse event family. Markets in the same
// bucket are candidates for correlation.
func eventBucket(m domain.Snapshot) string {
	q := strings.ToLower(m.Question)
	switch {
	case strings.Contains(q, "election") || strings.Contains(q, "president"):
		return "election"
	case strings.Contains(q, "win") || strings.Contains(q, "championship"):
		return "sports"
	case strings.Contains(q, "pass") || strings.Contains(q, "vote"):
		return "legislation"
	default:
		return m.Category
	}
}

var negationWords = []string{"not", "won't", "fail", "lose", "against"}

// correlationOf classifies an ordered pair. A negation word in the second
// question flags the pair as negatively correlated.
func correlationOf(correlated domain.Snapshot) domain.CorrelationType {
	q := strings.ToLower(correlated.Question)
	for _, w := range negationWords {
		if strings.Contains(q, w) {
			return domain.CorrelationNegative
		}
	}
	return domain.CorrelationPositive
}

// Detect buckets snapshots by event family and checks every ordered pair in
// each bucket for a mispricing between the primary's YES price and the
// correlated market's implied price.
func (s *Correlated) Detect(snapshots []domain.Snapshot) ([]domain.Opportunity, error) {
	buckets := make(map[string][]domain.Snapshot)
	for _, m := range snapshots {
		b := eventBucket(m)
		if b == "" {
			continue
		}
		buckets[b] = append(buckets[b], m)
	}

	var opps []domain.Opportunity
	for _, bucket := range buckets {
		if len(bucket) < 2 {
			continue
		}
		for i, primary := range bucket {
			for j, correlated := range bucket {
				if i == j {
					continue
				}
				if opp, ok := s.evaluate(primary, correlated); ok {
					opps = append(opps, opp)
				}
			}
		}
	}

	s.logger.Debug("correlated scan complete",
		slog.Int("markets", len(snapshots)),
		slog.Int("buckets", len(buckets)),
		slog.Int("opportunities", len(opps)),
	)
	return opps, nil
}

func (s *Correlated) evaluate(primary, correlated domain.Snapshot) (domain.CorrelatedOpportunity, bool) {
	corr := correlationOf(correlated)

	implied := primary.YesPrice
	corrOutcome := domain.OutcomeYes
	if corr == domain.CorrelationNegative {
		corrOutcome = domain.OutcomeNo
	}
	actual := correlated.Mid(corrOutcome)

	mispricing := implied - actual
	if mispricing <= s.cfg.MinMispricing || actual <= 0 {
		return domain.CorrelatedOpportunity{}, false
	}
	profitPct := mispricing / actual * 100
	if profitPct < s.cfg.MinProfitPct {
		return domain.CorrelatedOpportunity{}, false
	}
	return domain.CorrelatedOpportunity{
		Primary:            primary,
		Correlated:         correlated,
		Correlation:        corr,
		PrimaryOutcome:     domain.OutcomeYes,
		CorrelatedOutcome:  corrOutcome,
		ImpliedProbability: implied,
		ActualProbability:  actual,
		Mispricing:         mispricing,
		ProfitPercentage:   profitPct,
		ExpectedProfit:     mispricing * referencePosition,
	}, true
}
