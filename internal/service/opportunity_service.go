package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/polyarb/arbot/internal/domain"
)

// OpportunityService records scored opportunities and fans them out to the
// signal bus and audit log. Store and bus failures are deliberately
// non-fatal: recording is best-effort and must never abort a detection pass.
type OpportunityService struct {
	store  domain.OpportunityStore
	bus    domain.SignalBus
	audit  domain.AuditStore
	logger *slog.Logger
	now    func() time.Time
}

// NewOpportunityService creates an OpportunityService. Any dependency may be
// nil; the corresponding sink is skipped.
func NewOpportunityService(
	store domain.OpportunityStore,
	bus domain.SignalBus,
	audit domain.AuditStore,
	logger *slog.Logger,
) *OpportunityService {
	return &OpportunityService{
		store:  store,
		bus:    bus,
		audit:  audit,
		logger: logger.With(slog.String("component", "opportunity_service")),
		now:    time.Now,
	}
}

// RecordBatch flattens and persists every scored opportunity, publishes a
// detection event per record, and writes one audit entry for the batch. The
// returned records carry their assigned ids.
func (s *OpportunityService) RecordBatch(ctx context.Context, scored []domain.ScoredOpportunity) []domain.OpportunityRecord {
	records := make([]domain.OpportunityRecord, 0, len(scored))
	detectedAt := s.now().UTC()

	for _, sc := range scored {
		rec := sc.Record(uuid.New().String(), detectedAt)
		records = append(records, rec)

		if s.store != nil {
			if err := s.store.Insert(ctx, rec); err != nil {
				s.logger.Warn("opportunity insert failed",
					slog.String("opp_id", rec.ID),
					slog.String("error", err.Error()),
				)
			}
		}

		if s.bus != nil {
			evt, _ := json.Marshal(map[string]any{
				"event":          "opportunity_detected",
				"opp_id":         rec.ID,
				"kind":           rec.Kind,
				"market_ids":     rec.MarketIDs,
				"profit_pct":     rec.ProfitPct,
				"expected_usd":   rec.ExpectedProfitUSD,
				"score":          rec.Score,
				"detail":         rec.Detail,
			})
			if err := s.bus.Publish(ctx, "opportunities", evt); err != nil {
				s.logger.Warn("publish event failed",
					slog.String("opp_id", rec.ID),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	if s.audit != nil && len(records) > 0 {
		if err := s.audit.Log(ctx, "opportunities_detected", map[string]any{
			"count":       len(records),
			"detected_at": detectedAt,
			"top_score":   records[0].Score,
		}); err != nil {
			s.logger.Warn("audit log failed", slog.String("error", err.Error()))
		}
	}

	return records
}

// ListRecent returns the most recent recorded opportunities.
func (s *OpportunityService) ListRecent(ctx context.Context, limit int) ([]domain.OpportunityRecord, error) {
	if s.store == nil {
		return nil, nil
	}
	recs, err := s.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent opportunities: %w", err)
	}
	return recs, nil
}

// CountByKind returns per-kind detection counts since the given time.
func (s *OpportunityService) CountByKind(ctx context.Context, since time.Time) (map[domain.Kind]int64, error) {
	if s.store == nil {
		return map[domain.Kind]int64{}, nil
	}
	counts, err := s.store.CountByKind(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("count opportunities by kind: %w", err)
	}
	return counts, nil
}
