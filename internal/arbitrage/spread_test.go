package arbitrage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyarb/arbot/internal/domain"
)

func TestSpreadDetectsWideBook(t *testing.T) {
	s := NewSpread(SpreadConfig{MinProfitPct: 0.5, MinSpreadPct: 2.0}, testLogger())

	m := makeSnapshot("mkt-1", "Wide market", 0.50, 0.50)
	m.YesBid, m.YesAsk = 0.45, 0.55
	// keep the NO side tight so only one side triggers
	m.NoBid, m.NoAsk = 0.498, 0.502

	opps, err := s.Detect([]domain.Snapshot{m})
	require.NoError(t, err)
	require.Len(t, opps, 1)

	opp := opps[0].(domain.SpreadOpportunity)
	assert.Equal(t, domain.OutcomeYes, opp.Outcome)
	assert.InDelta(t, 20.0, opp.SpreadPct, 1e-9) // 0.10 / 0.50
	// fill size capped at $100 notional (10% of 10k liquidity is above the
	// cap), which buys 200 units at the 0.50 mid; half the spread per unit
	assert.InDelta(t, 0.05*200, opp.ExpectedProfit, 1e-9)
	assert.InDelta(t, 10.0/(0.50*100)*100, opp.ProfitPercentage, 1e-9)
}

func TestSpreadSizeScalesWithThinLiquidity(t *testing.T) {
	s := NewSpread(SpreadConfig{MinProfitPct: 0.5, MinSpreadPct: 2.0}, testLogger())

	m := makeSnapshot("mkt-1", "Thin market", 0.50, 0.50)
	m.YesBid, m.YesAsk = 0.45, 0.55
	m.NoBid, m.NoAsk = 0.498, 0.502
	m.Liquidity = 400 // 10% = $40 notional, 80 units at the 0.50 mid

	opps, err := s.Detect([]domain.Snapshot{m})
	require.NoError(t, err)
	require.Len(t, opps, 1)
	assert.InDelta(t, 0.05*80, opps[0].(domain.SpreadOpportunity).ExpectedProfit, 1e-9)
}

func TestSpreadLowPricedMarketClearsThreshold(t *testing.T) {
	s := NewSpread(SpreadConfig{MinProfitPct: 0.5, MinSpreadPct: 2.0}, testLogger())

	// A cheap outcome buys many units per dollar, so even a thin book
	// clears the profit floor once the notional is converted to units.
	m := makeSnapshot("mkt-1", "Long shot", 0.10, 0.90)
	m.YesBid, m.YesAsk = 0.09, 0.11
	m.NoBid, m.NoAsk = 0.898, 0.902
	m.Liquidity = 20 // 10% = $2 notional, 20 units at the 0.10 mid

	opps, err := s.Detect([]domain.Snapshot{m})
	require.NoError(t, err)
	require.Len(t, opps, 1)

	opp := opps[0].(domain.SpreadOpportunity)
	assert.Equal(t, domain.OutcomeYes, opp.Outcome)
	assert.InDelta(t, 0.20, opp.ExpectedProfit, 1e-9)
	assert.InDelta(t, 2.0, opp.ProfitPercentage, 1e-9)
}

func TestSpreadIgnoresTightBook(t *testing.T) {
	s := NewSpread(SpreadConfig{MinProfitPct: 0.5, MinSpreadPct: 2.0}, testLogger())

	m := makeSnapshot("mkt-1", "Tight market", 0.50, 0.50)
	m.YesBid, m.YesAsk = 0.497, 0.503
	m.NoBid, m.NoAsk = 0.497, 0.503

	opps, err := s.Detect([]domain.Snapshot{m})
	require.NoError(t, err)
	assert.Empty(t, opps)
}

func TestSpreadSkipsDegenerateQuotes(t *testing.T) {
	s := NewSpread(SpreadConfig{MinProfitPct: 0.5, MinSpreadPct: 2.0}, testLogger())

	m := makeSnapshot("mkt-1", "No bids", 0.50, 0.50)
	m.YesBid, m.NoBid = 0, 0

	opps, err := s.Detect([]domain.Snapshot{m})
	require.NoError(t, err)
	assert.Empty(t, opps)
}

func TestSpreadEvaluatesBothSides(t *testing.T) {
	s := NewSpread(SpreadConfig{MinProfitPct: 0.5, MinSpreadPct: 2.0}, testLogger())

	m := makeSnapshot("mkt-1", "Both sides wide", 0.50, 0.50)
	m.YesBid, m.YesAsk = 0.45, 0.55
	m.NoBid, m.NoAsk = 0.44, 0.56

	opps, err := s.Detect([]domain.Snapshot{m})
	require.NoError(t, err)
	require.Len(t, opps, 2)
	assert.Equal(t, domain.OutcomeYes, opps[0].(domain.SpreadOpportunity).Outcome)
	assert.Equal(t, domain.OutcomeNo, opps[1].(domain.SpreadOpportunity).Outcome)
}
