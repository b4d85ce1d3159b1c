package handler

import (
	"log/slog"
	"net/http"

	"github.com/polyarb/arbot/internal/domain"
	"github.com/polyarb/arbot/internal/service"
)

// PositionSource provides the live portfolio view: open positions and the
// risk metrics derived from them.
type PositionSource interface {
	OpenPositions() []domain.Position
	Metrics() service.RiskMetrics
}

// PositionHandler serves position-related HTTP endpoints. live may be nil
// (server-only mode); open positions are then read from the store instead.
type PositionHandler struct {
	live   PositionSource
	store  domain.PositionStore // nil when no database is configured
	logger *slog.Logger
}

// NewPositionHandler creates a PositionHandler.
func NewPositionHandler(live PositionSource, store domain.PositionStore, logger *slog.Logger) *PositionHandler {
	return &PositionHandler{
		live:   live,
		store:  store,
		logger: logHandler(logger, "position"),
	}
}

type listPositionsResponse struct {
	Positions []domain.Position    `json:"positions"`
	Risk      *service.RiskMetrics `json:"risk,omitempty"`
}

// ListOpen returns all currently open positions. When a live risk tracker is
// attached the response includes a risk snapshot.
// GET /api/positions
func (h *PositionHandler) ListOpen(w http.ResponseWriter, r *http.Request) {
	var (
		positions []domain.Position
		risk      *service.RiskMetrics
	)

	switch {
	case h.live != nil:
		positions = h.live.OpenPositions()
		m := h.live.Metrics()
		risk = &m
	case h.store != nil:
		var err error
		positions, err = h.store.ListOpen(r.Context())
		if err != nil {
			h.logger.ErrorContext(r.Context(), "list open positions failed",
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "failed to list positions")
			return
		}
	default:
		writeError(w, http.StatusNotImplemented, "no position source configured")
		return
	}

	if positions == nil {
		positions = []domain.Position{}
	}
	writeJSON(w, http.StatusOK, listPositionsResponse{Positions: positions, Risk: risk})
}

// ListHistory returns closed positions from the database, newest first.
// GET /api/positions/history?limit=50&offset=0
func (h *PositionHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotImplemented, "position history requires a database")
		return
	}

	positions, err := h.store.ListHistory(r.Context(), parseListOpts(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list position history failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list position history")
		return
	}

	if positions == nil {
		positions = []domain.Position{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"positions": positions})
}
