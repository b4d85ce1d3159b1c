package executor

import (
	"log/slog"
	"math"

	"github.com/polyarb/arbot/internal/domain"
)

// AllocatorConfig configures cross-opportunity capital allocation.
type AllocatorConfig struct {
	MaxTotalExposure float64
}

// CapitalAllocator distributes capital across a ranked opportunity list
// greedily, best score first, until capital runs out or the total exposure
// cap is hit. The returned map is keyed by index into the input slice.
type CapitalAllocator struct {
	cfg    AllocatorConfig
	sizer  *PositionSizer
	logger *slog.Logger
}

func NewCapitalAllocator(cfg AllocatorConfig, sizer *PositionSizer, logger *slog.Logger) *CapitalAllocator {
	return &CapitalAllocator{
		cfg:    cfg,
		sizer:  sizer,
		logger: logger.With(slog.String("component", "allocator")),
	}
}

// Allocate sizes each opportunity in ranking order against the capital that
// remains after earlier allocations. currentExposure is capital already
// committed to open positions; it counts against the exposure cap.
func (a *CapitalAllocator) Allocate(ranked []domain.ScoredOpportunity, totalCapital, currentExposure float64) map[int]float64 {
	allocation := make(map[int]float64)
	remaining := totalCapital - currentExposure

	if currentExposure >= a.cfg.MaxTotalExposure {
		a.logger.Warn("maximum total exposure reached, no new positions",
			slog.Float64("exposure", currentExposure),
		)
		return allocation
	}

	for i, sc := range ranked {
		if remaining <= 0 {
			break
		}

		size := a.sizer.Size(sc.ProfitScore, sc.ConfidenceScore/100, remaining)

		maxAllowed := math.Min(remaining, a.cfg.MaxTotalExposure-currentExposure)
		size = math.Min(size, maxAllowed)

		if size > 0 {
			allocation[i] = size
			remaining -= size
			currentExposure += size
		}
	}

	var total float64
	for _, v := range allocation {
		total += v
	}
	a.logger.Info("capital allocated",
		slog.Int("positions", len(allocation)),
		slog.Float64("total", total),
	)
	return allocation
}
