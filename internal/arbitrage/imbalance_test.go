package arbitrage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyarb/arbot/internal/domain"
)

func TestImbalanceBuyBoth(t *testing.T) {
	s := NewImbalance(ImbalanceConfig{MinProfitPct: 0.5}, testLogger())

	m := makeSnapshot("mkt-1", "Will it rain tomorrow?", 0.49, 0.47)
	m.YesAsk = 0.48
	m.NoAsk = 0.48

	opps, err := s.Detect([]domain.Snapshot{m})
	require.NoError(t, err)
	require.Len(t, opps, 1)

	opp, ok := opps[0].(domain.ImbalanceOpportunity)
	require.True(t, ok)
	assert.Equal(t, domain.ImbalanceBuyBoth, opp.Action)
	assert.InDelta(t, 0.96, opp.PriceSum, 1e-9)
	assert.InDelta(t, 0.04, opp.Imbalance, 1e-9)
	// 0.04 / 0.96 * 100
	assert.InDelta(t, 4.1667, opp.ProfitPercentage, 1e-3)
	assert.InDelta(t, 4.0, opp.ExpectedProfit, 1e-9)
}

func TestImbalanceSellBoth(t *testing.T) {
	s := NewImbalance(ImbalanceConfig{MinProfitPct: 0.5}, testLogger())

	m := makeSnapshot("mkt-1", "Will it rain tomorrow?", 0.54, 0.53)
	m.YesBid = 0.53
	m.NoBid = 0.52
	// asks sum above 1.0, no buy-side opportunity
	m.YesAsk = 0.55
	m.NoAsk = 0.54

	opps, err := s.Detect([]domain.Snapshot{m})
	require.NoError(t, err)
	require.Len(t, opps, 1)

	opp := opps[0].(domain.ImbalanceOpportunity)
	assert.Equal(t, domain.ImbalanceSellBoth, opp.Action)
	assert.InDelta(t, 1.05, opp.PriceSum, 1e-9)
	// sell-side profit is imbalance over par, 0.05 * 100
	assert.InDelta(t, 5.0, opp.ProfitPercentage, 1e-9)
	assert.InDelta(t, 5.0, opp.ExpectedProfit, 1e-9)
}

func TestImbalanceBothSidesSameMarket(t *testing.T) {
	s := NewImbalance(ImbalanceConfig{MinProfitPct: 0.5}, testLogger())

	// crossed book: asks sum below 1.0 and bids sum above it
	m := makeSnapshot("mkt-1", "Crossed quotes", 0.50, 0.50)
	m.YesAsk, m.NoAsk = 0.46, 0.46
	m.YesBid, m.NoBid = 0.53, 0.52

	opps, err := s.Detect([]domain.Snapshot{m})
	require.NoError(t, err)
	require.Len(t, opps, 2)
	assert.Equal(t, domain.ImbalanceBuyBoth, opps[0].(domain.ImbalanceOpportunity).Action)
	assert.Equal(t, domain.ImbalanceSellBoth, opps[1].(domain.ImbalanceOpportunity).Action)
}

func TestImbalanceBelowThreshold(t *testing.T) {
	s := NewImbalance(ImbalanceConfig{MinProfitPct: 0.5, ImbalanceThreshold: 0.02}, testLogger())

	// imbalance of exactly 0.02 must not trigger, the threshold is strict
	m := makeSnapshot("mkt-1", "Tight market", 0.49, 0.49)
	m.YesAsk, m.NoAsk = 0.49, 0.49

	opps, err := s.Detect([]domain.Snapshot{m})
	require.NoError(t, err)
	assert.Empty(t, opps)
}

func TestImbalanceMinProfitFilter(t *testing.T) {
	// a detectable imbalance still drops out when profit% is below the floor
	s := NewImbalance(ImbalanceConfig{MinProfitPct: 10}, testLogger())

	m := makeSnapshot("mkt-1", "Small edge", 0.48, 0.48)
	m.YesAsk, m.NoAsk = 0.48, 0.48

	opps, err := s.Detect([]domain.Snapshot{m})
	require.NoError(t, err)
	assert.Empty(t, opps)
}

func TestImbalanceEmptyInput(t *testing.T) {
	s := NewImbalance(ImbalanceConfig{}, testLogger())
	opps, err := s.Detect(nil)
	require.NoError(t, err)
	assert.Empty(t, opps)
}
