package arbitrage

import (
	"log/slog"
	"math"
	"time"

	"github.com/polyarb/arbot/internal/domain"
)

const (
	defaultTimeWindowHours     = 24.0
	defaultVolatilityThreshold = 2.0
	defaultTimeBasedMinProfit  = 0.6

	// minHistorySamples is the smallest history that gives a usable mean.
	minHistorySamples = 3
)

// TimeBasedConfig configures the time-based strategy.
type TimeBasedConfig struct {
	MinProfitPct        float64
	TimeWindowHours     float64
	VolatilityThreshold float64
}

// TimeBased watches markets close to resolution for prices that diverge
// sharply from their recent average: panic selling, last-minute mispricing
// and volatility spikes. It is the only stateful strategy; it accumulates a
// rolling price history across Detect passes and must therefore be called
// from a single goroutine.
type TimeBased struct {
	cfg     TimeBasedConfig
	history *PriceHistory
	logger  *slog.Logger
	now     func() time.Time
}

func NewTimeBased(cfg TimeBasedConfig, logger *slog.Logger) *TimeBased {
	if cfg.MinProfitPct == 0 {
		cfg.MinProfitPct = defaultTimeBasedMinProfit
	}
	if cfg.TimeWindowHours == 0 {
		cfg.TimeWindowHours = defaultTimeWindowHours
	}
	if cfg.VolatilityThreshold == 0 {
		cfg.VolatilityThreshold = defaultVolatilityThreshold
	}
	return &TimeBased{
		cfg:     cfg,
		history: NewPriceHistory(24 * time.Hour),
		logger:  logger.With(slog.String("strategy", "time_based")),
		now:     time.Now,
	}
}

func (s *TimeBased) Name() string { return string(domain.KindTimeBased) }

// ResetHistory discards the accumulated price history.
func (s *TimeBased) ResetHistory() { s.history.Reset() }

// History exposes retained points for a market. Used by the status handler
// and tests.
func (s *TimeBased) History(marketID string) []PricePoint {
	return s.history.Points(marketID)
}

// Detect records the current prices of every market inside the monitoring
// window and evaluates both outcome sides against the accumulated history.
func (s *TimeBased) Detect(snapshots []domain.Snapshot) ([]domain.Opportunity, error) {
	now := s.now()
	var opps []domain.Opportunity

	for _, m := range snapshots {
		ttr := m.HoursToResolution(now)
		if ttr > s.cfg.TimeWindowHours || ttr < 0 {
			continue
		}

		s.history.Record(m.MarketID, PricePoint{At: now, Yes: m.YesPrice, No: m.NoPrice})

		if opp, ok := s.analyze(m, domain.OutcomeYes, m.YesPrice, ttr); ok {
			opps = append(opps, opp)
		}
		if opp, ok := s.analyze(m, domain.OutcomeNo, m.NoPrice, ttr); ok {
			opps = append(opps, opp)
		}
	}

	if len(opps) > 0 {
		s.logger.Debug("time-based patterns found", slog.Int("opportunities", len(opps)))
	}
	return opps, nil
}

func (s *TimeBased) analyze(m domain.Snapshot, outcome domain.Outcome, current, ttr float64) (domain.TimeBasedOpportunity, bool) {
	// A collapsed quote would make the reversion estimate blow up.
	if current <= 0 {
		return domain.TimeBasedOpportunity{}, false
	}

	pts := s.history.Points(m.MarketID)
	if len(pts) < minHistorySamples {
		return domain.TimeBasedOpportunity{}, false
	}

	prices := make([]float64, 0, len(pts))
	for _, p := range pts {
		v := p.Yes
		if outcome == domain.OutcomeNo {
			v = p.No
		}
		if v > 0 {
			prices = append(prices, v)
		}
	}
	if len(prices) < minHistorySamples {
		return domain.TimeBasedOpportunity{}, false
	}

	mean, std := meanStd(prices)
	if mean <= 0 {
		return domain.TimeBasedOpportunity{}, false
	}
	changePct := (current - mean) / mean * 100
	volatility := std / mean

	var pattern domain.TimePattern
	var confidence float64
	switch {
	case changePct < -5.0 && ttr < 12 && volatility > s.cfg.VolatilityThreshold:
		pattern = domain.PatternPanicSelling
		confidence = math.Min(0.85, 0.65+math.Abs(changePct)/100)
	case math.Abs(changePct) > 10.0 && ttr < 6 && volatility > s.cfg.VolatilityThreshold*1.5:
		pattern = domain.PatternLastMinute
		confidence = math.Min(0.90, 0.70+math.Abs(changePct)/200)
	case volatility > s.cfg.VolatilityThreshold*2 && math.Abs(changePct) > 8.0:
		pattern = domain.PatternVolatilitySpike
		confidence = math.Min(0.80, 0.60+volatility/20)
	default:
		return domain.TimeBasedOpportunity{}, false
	}

	// Assume the price reverts to its historical average.
	reversionPct := (mean - current) / current * 100
	expectedProfit := referencePosition * math.Abs(reversionPct) / 100
	if expectedProfit < referencePosition*s.cfg.MinProfitPct/100 {
		return domain.TimeBasedOpportunity{}, false
	}

	return domain.TimeBasedOpportunity{
		Market:            m,
		Outcome:           outcome,
		CurrentPrice:      current,
		HistoricalAvg:     mean,
		PriceChangePct:    changePct,
		HoursToResolution: ttr,
		VolatilityScore:   volatility,
		Pattern:           pattern,
		ProfitPercentage:  math.Abs(reversionPct),
		ExpectedProfit:    expectedProfit,
		Confidence:        confidence,
	}, true
}
