package arbitrage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyarb/arbot/internal/domain"
)

func TestEventBucket(t *testing.T) {
	cases := []struct {
		question string
		category string
		want     string
	}{
		{"Will the president be re-elected?", "politics", "election"},
		{"2028 election called by midnight?", "politics", "election"},
		{"Will the Lakers win the title?", "sports", "sports"},
		{"Championship decided in game 7?", "nba", "sports"},
		{"Will the bill pass the senate?", "politics", "legislation"},
		{"Senate vote before recess?", "politics", "legislation"},
		{"Will it snow in March?", "weather", "weather"},
	}
	for _, tc := range cases {
		m := makeSnapshot("id", tc.question, 0.5, 0.5)
		m.Category = tc.category
		assert.Equal(t, tc.want, eventBucket(m), tc.question)
	}
}

func TestCorrelationOf(t *testing.T) {
	neg := makeSnapshot("id", "Will the incumbent lose the race?", 0.5, 0.5)
	assert.Equal(t, domain.CorrelationNegative, correlationOf(neg))

	pos := makeSnapshot("id", "Will the incumbent win the race?", 0.5, 0.5)
	assert.Equal(t, domain.CorrelationPositive, correlationOf(pos))
}

func TestCorrelatedPositivePair(t *testing.T) {
	s := NewCorrelated(CorrelatedConfig{MinProfitPct: 1.0, MinMispricing: 0.05}, testLogger())

	primary := makeSnapshot("mkt-1", "Will candidate A win the election?", 0.70, 0.30)
	related := makeSnapshot("mkt-2", "Will candidate A's party win the election?", 0.55, 0.45)

	opps, err := s.Detect([]domain.Snapshot{primary, related})
	require.NoError(t, err)
	require.NotEmpty(t, opps)

	opp := opps[0].(domain.CorrelatedOpportunity)
	assert.Equal(t, domain.CorrelationPositive, opp.Correlation)
	assert.Equal(t, domain.OutcomeYes, opp.CorrelatedOutcome)
	assert.InDelta(t, 0.70, opp.ImpliedProbability, 1e-9)
	assert.InDelta(t, 0.55, opp.ActualProbability, 1e-9)
	assert.InDelta(t, 0.15, opp.Mispricing, 1e-9)
	assert.InDelta(t, 0.15/0.55*100, opp.ProfitPercentage, 1e-9)
}

func TestCorrelatedNegativePairUsesNoSide(t *testing.T) {
	s := NewCorrelated(CorrelatedConfig{MinProfitPct: 1.0, MinMispricing: 0.05}, testLogger())

	primary := makeSnapshot("mkt-1", "Will candidate A win the election?", 0.70, 0.30)
	negated := makeSnapshot("mkt-2", "Will candidate A lose the election?", 0.45, 0.55)

	opps, err := s.Detect([]domain.Snapshot{primary, negated})
	require.NoError(t, err)
	require.NotEmpty(t, opps)

	var found bool
	for _, o := range opps {
		opp := o.(domain.CorrelatedOpportunity)
		if opp.Primary.MarketID == "mkt-1" {
			found = true
			assert.Equal(t, domain.CorrelationNegative, opp.Correlation)
			assert.Equal(t, domain.OutcomeNo, opp.CorrelatedOutcome)
			assert.InDelta(t, 0.55, opp.ActualProbability, 1e-9)
			assert.InDelta(t, 0.15, opp.Mispricing, 1e-9)
		}
	}
	assert.True(t, found)
}

func TestCorrelatedMispricingThresholdIsStrict(t *testing.T) {
	s := NewCorrelated(CorrelatedConfig{MinProfitPct: 0.1, MinMispricing: 0.05}, testLogger())

	primary := makeSnapshot("mkt-1", "Will candidate A win the election?", 0.60, 0.40)
	related := makeSnapshot("mkt-2", "Will candidate B win the election?", 0.55, 0.45)

	// mispricing of exactly 0.05 does not clear the strict threshold
	opps, err := s.Detect([]domain.Snapshot{primary, related})
	require.NoError(t, err)
	assert.Empty(t, opps)
}

func TestCorrelatedRequiresSharedBucket(t *testing.T) {
	s := NewCorrelated(CorrelatedConfig{MinProfitPct: 0.1, MinMispricing: 0.01}, testLogger())

	a := makeSnapshot("mkt-1", "Will candidate A win the election?", 0.80, 0.20)
	b := makeSnapshot("mkt-2", "Will the Lakers win the title?", 0.40, 0.60)

	opps, err := s.Detect([]domain.Snapshot{a, b})
	require.NoError(t, err)
	assert.Empty(t, opps)
}
