package arbitrage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyarb/arbot/internal/domain"
)

func TestPriceHistoryEvictsOldPoints(t *testing.T) {
	h := NewPriceHistory(24 * time.Hour)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	h.Record("mkt", PricePoint{At: base, Yes: 0.5, No: 0.5})
	h.Record("mkt", PricePoint{At: base.Add(1 * time.Hour), Yes: 0.6, No: 0.4})
	assert.Equal(t, 2, h.Len("mkt"))

	h.Record("mkt", PricePoint{At: base.Add(25 * time.Hour), Yes: 0.7, No: 0.3})
	require.Equal(t, 2, h.Len("mkt"), "point at t=0 is older than the window")
	assert.InDelta(t, 0.6, h.Points("mkt")[0].Yes, 1e-9)

	h.Reset()
	assert.Zero(t, h.Len("mkt"))
}

func TestMeanStd(t *testing.T) {
	mean, std := meanStd([]float64{0.6, 0.6, 0.6, 0.4})
	assert.InDelta(t, 0.55, mean, 1e-9)
	assert.InDelta(t, 0.0866, std, 1e-3)

	mean, std = meanStd(nil)
	assert.Zero(t, mean)
	assert.Zero(t, std)
}

// driveTimeBased runs a Detect pass per tick, advancing the injected clock by
// one hour each time, and returns the last pass's result.
func driveTimeBased(t *testing.T, s *TimeBased, base time.Time, ticks []domain.Snapshot) []domain.Opportunity {
	t.Helper()
	var last []domain.Opportunity
	for i, m := range ticks {
		now := base.Add(time.Duration(i) * time.Hour)
		s.now = func() time.Time { return now }
		opps, err := s.Detect([]domain.Snapshot{m})
		require.NoError(t, err)
		last = opps
	}
	return last
}

func TestTimeBasedDetectsPanicSelling(t *testing.T) {
	s := NewTimeBased(TimeBasedConfig{
		MinProfitPct:        0.6,
		TimeWindowHours:     24,
		VolatilityThreshold: 0.05,
	}, testLogger())

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := makeSnapshot("mkt-1", "Resolving soon", 0.60, 0.40)
	m.EndDate = base.Add(8 * time.Hour)

	crashed := m
	crashed.YesPrice, crashed.NoPrice = 0.40, 0.60

	last := driveTimeBased(t, s, base, []domain.Snapshot{m, m, m, crashed})
	require.NotEmpty(t, last)

	var panicOpp domain.TimeBasedOpportunity
	var found bool
	for _, o := range last {
		opp := o.(domain.TimeBasedOpportunity)
		if opp.Outcome == domain.OutcomeYes {
			panicOpp, found = opp, true
		}
	}
	require.True(t, found)

	assert.Equal(t, domain.PatternPanicSelling, panicOpp.Pattern)
	assert.InDelta(t, 0.40, panicOpp.CurrentPrice, 1e-9)
	assert.InDelta(t, 0.55, panicOpp.HistoricalAvg, 1e-9)
	assert.InDelta(t, (0.40-0.55)/0.55*100, panicOpp.PriceChangePct, 1e-6)
	assert.InDelta(t, 5.0, panicOpp.HoursToResolution, 1e-9)
	// confidence saturates at 0.85 for a 27% drop
	assert.InDelta(t, 0.85, panicOpp.Confidence, 1e-9)
	// profit assumes reversion to the mean on a $100 position
	assert.InDelta(t, (0.55-0.40)/0.40*100, panicOpp.ProfitPercentage, 1e-6)
	assert.InDelta(t, 37.5, panicOpp.ExpectedProfit, 1e-6)
}

func TestTimeBasedFlagsLastMinuteMispricingOnNoSide(t *testing.T) {
	s := NewTimeBased(TimeBasedConfig{
		MinProfitPct:        0.6,
		TimeWindowHours:     24,
		VolatilityThreshold: 0.05,
	}, testLogger())

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := makeSnapshot("mkt-1", "Resolving soon", 0.60, 0.40)
	m.EndDate = base.Add(8 * time.Hour)

	crashed := m
	crashed.YesPrice, crashed.NoPrice = 0.40, 0.60

	last := driveTimeBased(t, s, base, []domain.Snapshot{m, m, m, crashed})

	// the NO side jumped rather than dropped; with under six hours left that
	// reads as last-minute mispricing
	var found bool
	for _, o := range last {
		opp := o.(domain.TimeBasedOpportunity)
		if opp.Outcome == domain.OutcomeNo {
			found = true
			assert.Equal(t, domain.PatternLastMinute, opp.Pattern)
			assert.Positive(t, opp.PriceChangePct)
		}
	}
	assert.True(t, found)
}

func TestTimeBasedIgnoresMarketsOutsideWindow(t *testing.T) {
	s := NewTimeBased(TimeBasedConfig{TimeWindowHours: 24}, testLogger())

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	far := makeSnapshot("mkt-far", "Resolves next month", 0.60, 0.40)
	far.EndDate = base.Add(30 * 24 * time.Hour)
	past := makeSnapshot("mkt-past", "Already resolved", 0.60, 0.40)
	past.EndDate = base.Add(-1 * time.Hour)

	opps, err := s.Detect([]domain.Snapshot{far, past})
	require.NoError(t, err)
	assert.Empty(t, opps)
	assert.Zero(t, s.history.Len("mkt-far"), "out-of-window markets are not recorded")
	assert.Zero(t, s.history.Len("mkt-past"))
}

func TestTimeBasedNeedsHistory(t *testing.T) {
	s := NewTimeBased(TimeBasedConfig{
		TimeWindowHours:     24,
		VolatilityThreshold: 0.01,
	}, testLogger())

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := makeSnapshot("mkt-1", "Resolving soon", 0.60, 0.40)
	m.EndDate = base.Add(8 * time.Hour)
	crashed := m
	crashed.YesPrice, crashed.NoPrice = 0.40, 0.60

	// two samples are not enough to form a baseline
	last := driveTimeBased(t, s, base, []domain.Snapshot{m, crashed})
	assert.Empty(t, last)
}

func TestTimeBasedSkipsCollapsedQuote(t *testing.T) {
	s := NewTimeBased(TimeBasedConfig{
		MinProfitPct:        0.6,
		TimeWindowHours:     24,
		VolatilityThreshold: 0.05,
	}, testLogger())

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := makeSnapshot("mkt-1", "Resolving soon", 0.60, 0.40)
	m.EndDate = base.Add(8 * time.Hour)

	// The YES quote drops to zero on one tick while the history is
	// positive; reverting "to the mean" from zero is not a tradeable
	// signal, so the side must be skipped instead of pricing it infinite.
	collapsed := m
	collapsed.YesPrice = 0

	last := driveTimeBased(t, s, base, []domain.Snapshot{m, m, m, collapsed})
	assert.Empty(t, last)
}

func TestTimeBasedResetHistory(t *testing.T) {
	s := NewTimeBased(TimeBasedConfig{TimeWindowHours: 24}, testLogger())

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	m := makeSnapshot("mkt-1", "Resolving soon", 0.60, 0.40)
	m.EndDate = base.Add(8 * time.Hour)

	_, err := s.Detect([]domain.Snapshot{m})
	require.NoError(t, err)
	require.Equal(t, 1, s.history.Len("mkt-1"))

	s.ResetHistory()
	assert.Zero(t, s.history.Len("mkt-1"))
}
