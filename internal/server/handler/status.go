package handler

import (
	"net/http"
	"time"

	"github.com/polyarb/arbot/internal/service"
)

// RiskReader provides the portfolio risk view for status responses.
type RiskReader interface {
	Metrics() service.RiskMetrics
}

// StatusHandler serves the bot's runtime status for dashboards.
type StatusHandler struct {
	mode       string
	strategies []string
	startedAt  time.Time
	risk       RiskReader
}

// NewStatusHandler creates a StatusHandler. risk may be nil when no risk
// service is running (server-only mode).
func NewStatusHandler(mode string, strategies []string, startedAt time.Time, risk RiskReader) *StatusHandler {
	return &StatusHandler{
		mode:       mode,
		strategies: strategies,
		startedAt:  startedAt,
		risk:       risk,
	}
}

// GetStatus responds with the current mode, enabled strategies, uptime, and a
// risk snapshot.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"mode":           h.mode,
		"strategies":     h.strategies,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	}
	if h.risk != nil {
		resp["risk"] = h.risk.Metrics()
	}
	writeJSON(w, http.StatusOK, resp)
}
