package service

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyarb/arbot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRiskConfig() RiskConfig {
	return RiskConfig{
		InitialCapital:      1000,
		MaxPositionSize:     100,
		MaxTotalExposure:    500,
		StopLossPct:         0.15,
		MaxPositionAgeHours: 24,
	}
}

func openPosition(id, market string, entry, size float64, entryTime time.Time) domain.Position {
	return domain.Position{
		ID:           id,
		MarketID:     market,
		Outcome:      domain.OutcomeYes,
		Size:         size,
		EntryPrice:   entry,
		EntryTime:    entryTime,
		CurrentPrice: entry,
		Status:       domain.PositionStatusOpen,
		Strategy:     domain.KindYesNoImbalance,
	}
}

func TestCanOpenLimits(t *testing.T) {
	s := NewRiskService(testRiskConfig(), testLogger())

	assert.NoError(t, s.CanOpen(50))

	err := s.CanOpen(150)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPositionLimit)

	// exposure cap: fill up to 450, a 100 position would breach 500
	for i := 0; i < 9; i++ {
		s.AddPosition(openPosition(string(rune('a'+i)), "mkt", 0.5, 100, time.Now()))
	}
	require.InDelta(t, 450, s.Exposure(), 1e-9)
	err = s.CanOpen(100)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExposureLimit)
}

func TestCanOpenInsufficientCapital(t *testing.T) {
	cfg := testRiskConfig()
	cfg.InitialCapital = 40
	cfg.MaxTotalExposure = 10_000
	s := NewRiskService(cfg, testLogger())

	err := s.CanOpen(50)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientCap)
}

func TestAddRemovePositionBookkeeping(t *testing.T) {
	s := NewRiskService(testRiskConfig(), testLogger())

	pos := openPosition("p1", "mkt-1", 0.50, 200, time.Now())
	s.AddPosition(pos)
	assert.InDelta(t, 100, s.Exposure(), 1e-9)

	pnl := 12.5
	pos.RealizedPnL = &pnl
	s.positions["p1"] = pos

	s.RemovePosition("p1")
	assert.Zero(t, s.Exposure())
	assert.InDelta(t, 1012.5, s.Capital(), 1e-9, "realized PnL folded into capital")

	// removing an unknown id is a no-op
	s.RemovePosition("ghost")
	assert.Zero(t, s.Exposure())
}

func TestStopLossTriggers(t *testing.T) {
	s := NewRiskService(testRiskConfig(), testLogger())

	s.AddPosition(openPosition("losing", "mkt-1", 0.50, 100, time.Now()))
	s.AddPosition(openPosition("steady", "mkt-2", 0.50, 100, time.Now()))

	s.UpdatePrices(map[string]domain.Snapshot{
		"mkt-1": {MarketID: "mkt-1", YesPrice: 0.40}, // 20% down
		"mkt-2": {MarketID: "mkt-2", YesPrice: 0.48}, // 4% down
	})

	toClose := s.CheckStopLosses()
	require.Len(t, toClose, 1)
	assert.Equal(t, "losing", toClose[0])
}

func TestStopLossIgnoresUnmarkedPositions(t *testing.T) {
	s := NewRiskService(testRiskConfig(), testLogger())

	pos := openPosition("p1", "mkt-1", 0.50, 100, time.Now())
	pos.CurrentPrice = 0
	s.AddPosition(pos)

	assert.Empty(t, s.CheckStopLosses())
}

func TestPositionAgeEviction(t *testing.T) {
	s := NewRiskService(testRiskConfig(), testLogger())
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	s.AddPosition(openPosition("old", "mkt-1", 0.50, 100, base.Add(-25*time.Hour)))
	s.AddPosition(openPosition("fresh", "mkt-2", 0.50, 100, base.Add(-1*time.Hour)))

	toClose := s.CheckPositionAges()
	require.Len(t, toClose, 1)
	assert.Equal(t, "old", toClose[0])
}

func TestRiskMetrics(t *testing.T) {
	s := NewRiskService(testRiskConfig(), testLogger())

	s.AddPosition(openPosition("p1", "mkt-1", 0.50, 200, time.Now()))
	s.UpdatePrices(map[string]domain.Snapshot{
		"mkt-1": {MarketID: "mkt-1", YesPrice: 0.55},
	})

	m := s.Metrics()
	assert.InDelta(t, 1000, m.TotalCapital, 1e-9)
	assert.InDelta(t, 100, m.CurrentExposure, 1e-9)
	assert.InDelta(t, 10, m.ExposurePct, 1e-9)
	assert.Equal(t, 1, m.OpenPositions)
	assert.InDelta(t, 10, m.TotalUnrealizedPnL, 1e-9) // (0.55-0.50)*200
	assert.InDelta(t, 900, m.AvailableCapital, 1e-9)
	assert.InDelta(t, 10, m.Diversification, 1e-9) // one market of ten
}

func TestDiversificationEmptyBookIsPerfect(t *testing.T) {
	s := NewRiskService(testRiskConfig(), testLogger())
	assert.InDelta(t, 100, s.Metrics().Diversification, 1e-9)
}
