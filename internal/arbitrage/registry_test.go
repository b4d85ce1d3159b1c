package arbitrage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildStrategiesAllKnown(t *testing.T) {
	cfg := StrategySetConfig{
		Enabled: []string{
			"yes_no_imbalance", "cross_market", "multi_leg",
			"correlated_events", "order_book_spread", "time_based",
		},
		MinProfitPct: 1.0,
	}
	strategies, err := BuildStrategies(cfg, testLogger())
	require.NoError(t, err)
	require.Len(t, strategies, 6)

	names := make([]string, len(strategies))
	for i, s := range strategies {
		names[i] = s.Name()
	}
	assert.Equal(t, cfg.Enabled, names, "registration preserves order")
}

func TestBuildStrategiesRejectsUnknown(t *testing.T) {
	_, err := BuildStrategies(StrategySetConfig{Enabled: []string{"martingale"}}, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "martingale")
}

func TestBuildStrategiesMultiLegDoublesThreshold(t *testing.T) {
	strategies, err := BuildStrategies(StrategySetConfig{
		Enabled:      []string{"multi_leg"},
		MinProfitPct: 1.5,
	}, testLogger())
	require.NoError(t, err)
	require.Len(t, strategies, 1)

	ml, ok := strategies[0].(*MultiLeg)
	require.True(t, ok)
	assert.InDelta(t, 3.0, ml.cfg.MinProfitPct, 1e-9)
}
