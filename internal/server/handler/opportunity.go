package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/polyarb/arbot/internal/domain"
)

// OpportunityLister defines the read side of the opportunity history that the
// handler requires.
type OpportunityLister interface {
	ListRecent(ctx context.Context, limit int) ([]domain.OpportunityRecord, error)
	CountByKind(ctx context.Context, since time.Time) (map[domain.Kind]int64, error)
}

// OpportunityHandler serves the detected-opportunity history endpoints.
type OpportunityHandler struct {
	opps   OpportunityLister
	logger *slog.Logger
}

// NewOpportunityHandler creates an OpportunityHandler.
func NewOpportunityHandler(opps OpportunityLister, logger *slog.Logger) *OpportunityHandler {
	return &OpportunityHandler{
		opps:   opps,
		logger: logHandler(logger, "opportunity"),
	}
}

type listOpportunitiesResponse struct {
	Opportunities []domain.OpportunityRecord `json:"opportunities"`
}

// ListRecent returns the most recently detected opportunities, newest first.
// GET /api/opportunities?limit=50
func (h *OpportunityHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	recs, err := h.opps.ListRecent(r.Context(), opts.Limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list opportunities failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list opportunities")
		return
	}

	if recs == nil {
		recs = []domain.OpportunityRecord{}
	}
	writeJSON(w, http.StatusOK, listOpportunitiesResponse{Opportunities: recs})
}

// Stats returns per-kind detection counts over a trailing window.
// GET /api/opportunities/stats?hours=24
func (h *OpportunityHandler) Stats(w http.ResponseWriter, r *http.Request) {
	hours := queryInt(r, "hours", 24)
	if hours <= 0 {
		hours = 24
	}
	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)

	counts, err := h.opps.CountByKind(r.Context(), since)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "opportunity stats failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	byKind := make(map[string]int64, len(counts))
	var total int64
	for k, n := range counts {
		byKind[string(k)] = n
		total += n
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"since":   since.Format(time.RFC3339),
		"total":   total,
		"by_kind": byKind,
	})
}
