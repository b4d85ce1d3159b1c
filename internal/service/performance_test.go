package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyarb/arbot/internal/domain"
)

func closedPosition(market string, pnl float64) domain.Position {
	return domain.Position{
		ID:          market + "-pos",
		MarketID:    market,
		Size:        100,
		EntryPrice:  0.5,
		EntryTime:   time.Now().Add(-time.Hour),
		RealizedPnL: &pnl,
		Status:      domain.PositionStatusClosedNormal,
	}
}

func TestMetricsEmptyTracker(t *testing.T) {
	tr := NewPerformanceTracker(1000)
	assert.Equal(t, PerformanceMetrics{}, tr.Metrics())
}

func TestMetricsWinsLossesAndPnL(t *testing.T) {
	tr := NewPerformanceTracker(1000)

	tr.AddClosedPosition(closedPosition("mkt-1", 20))
	tr.AddClosedPosition(closedPosition("mkt-2", -5))
	tr.AddClosedPosition(closedPosition("mkt-3", 10))

	tr.AddTrade(domain.Trade{MarketID: "mkt-1", Price: 0.5, Size: 100, GasCost: 1})
	tr.AddTrade(domain.Trade{MarketID: "mkt-2", Price: 0.4, Size: 50, GasCost: 1})

	m := tr.Metrics()
	assert.Equal(t, 3, m.TotalTrades)
	assert.Equal(t, 2, m.WinningTrades)
	assert.Equal(t, 1, m.LosingTrades)
	assert.InDelta(t, 66.67, m.WinRate, 0.01)
	assert.InDelta(t, 25, m.TotalPnL, 1e-9)
	assert.InDelta(t, 2, m.TotalGasCosts, 1e-9)
	assert.InDelta(t, 23, m.NetPnL, 1e-9)
	assert.InDelta(t, 23.0/3, m.AvgProfitPerTrade, 1e-9)
	assert.InDelta(t, 2.3, m.ROI, 1e-9)
	assert.InDelta(t, 70, m.TotalVolume, 1e-9) // 0.5*100 + 0.4*50
}

func TestMaxDrawdown(t *testing.T) {
	tr := NewPerformanceTracker(1000)

	// up to 1100, down to 880: drawdown 20% from the peak
	tr.AddClosedPosition(closedPosition("mkt-1", 100))
	tr.AddClosedPosition(closedPosition("mkt-2", -220))

	m := tr.Metrics()
	assert.InDelta(t, 20, m.MaxDrawdown, 1e-9)
}

func TestSharpeNeedsTwoReturns(t *testing.T) {
	tr := NewPerformanceTracker(1000)
	tr.AddClosedPosition(closedPosition("mkt-1", 10))
	assert.Zero(t, tr.Metrics().SharpeRatio)

	tr.AddClosedPosition(closedPosition("mkt-2", 20))
	// two unequal returns give a finite, positive Sharpe
	assert.Greater(t, tr.Metrics().SharpeRatio, 0.0)
}

func TestIgnoresPositionsWithoutRealizedPnL(t *testing.T) {
	tr := NewPerformanceTracker(1000)
	tr.AddClosedPosition(domain.Position{ID: "p1", MarketID: "mkt-1"})
	assert.Equal(t, PerformanceMetrics{}, tr.Metrics())
}

func TestMarketPnL(t *testing.T) {
	tr := NewPerformanceTracker(1000)
	tr.AddClosedPosition(closedPosition("mkt-1", 20))
	tr.AddClosedPosition(closedPosition("mkt-1", -5))
	tr.AddClosedPosition(closedPosition("mkt-2", 3))

	byMarket := tr.MarketPnL()
	require.Len(t, byMarket, 2)
	assert.InDelta(t, 15, byMarket["mkt-1"], 1e-9)
	assert.InDelta(t, 3, byMarket["mkt-2"], 1e-9)
}
