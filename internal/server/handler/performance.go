package handler

import (
	"net/http"

	"github.com/polyarb/arbot/internal/service"
)

// PerformanceSource provides aggregate trading performance numbers.
type PerformanceSource interface {
	Metrics() service.PerformanceMetrics
	MarketPnL() map[string]float64
}

// PerformanceHandler serves the trading performance endpoint.
type PerformanceHandler struct {
	perf PerformanceSource
}

// NewPerformanceHandler creates a PerformanceHandler.
func NewPerformanceHandler(perf PerformanceSource) *PerformanceHandler {
	return &PerformanceHandler{perf: perf}
}

// GetPerformance returns aggregate PnL, win rate, Sharpe ratio, drawdown, and
// a per-market PnL breakdown.
// GET /api/performance
func (h *PerformanceHandler) GetPerformance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"metrics":       h.perf.Metrics(),
		"pnl_by_market": h.perf.MarketPnL(),
	})
}
