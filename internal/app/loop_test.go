package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyarb/arbot/internal/config"
	"github.com/polyarb/arbot/internal/domain"
	"github.com/polyarb/arbot/internal/executor"
	"github.com/polyarb/arbot/internal/notify"
	"github.com/polyarb/arbot/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// orderRecorder captures the markets orders are placed on, in call order.
type orderRecorder struct {
	markets []string
	seq     int
}

func (r *orderRecorder) PlaceOrder(_ context.Context, req executor.OrderRequest) (domain.Trade, error) {
	r.markets = append(r.markets, req.MarketID)
	r.seq++
	return domain.Trade{
		ID:        fmt.Sprintf("trade-%d", r.seq),
		MarketID:  req.MarketID,
		Outcome:   req.Outcome,
		Side:      req.Side,
		Price:     req.Price,
		Size:      req.Size,
		Timestamp: time.Now().UTC(),
		Strategy:  req.Strategy,
	}, nil
}

type nopBus struct{}

func (nopBus) Publish(context.Context, string, []byte) error { return nil }
func (nopBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}
func (nopBus) Close() error { return nil }

func imbalanceScored(marketID string, score float64) domain.ScoredOpportunity {
	return domain.ScoredOpportunity{
		Opportunity: domain.ImbalanceOpportunity{
			Market:           domain.Snapshot{MarketID: marketID, Question: marketID},
			YesPrice:         0.47,
			NoPrice:          0.47,
			PriceSum:         0.94,
			Imbalance:        0.06,
			Action:           domain.ImbalanceBuyBoth,
			ProfitPercentage: 6.38,
			ExpectedProfit:   6.0,
		},
		Score:           score,
		ProfitScore:     score,
		ConfidenceScore: 90,
	}
}

func TestExecuteBatchRunsInScoreOrder(t *testing.T) {
	logger := testLogger()

	sizer, err := executor.NewPositionSizer(executor.SizerConfig{
		Method:          executor.SizingFixed,
		MaxPositionSize: 50,
	}, logger)
	require.NoError(t, err)

	recorder := &orderRecorder{}
	eng := &engine{
		allocator: executor.NewCapitalAllocator(executor.AllocatorConfig{
			MaxTotalExposure: 10_000,
		}, sizer, logger),
		risk: service.NewRiskService(service.RiskConfig{
			InitialCapital:      10_000,
			MaxPositionSize:     100,
			MaxTotalExposure:    10_000,
			StopLossPct:         0.15,
			MaxPositionAgeHours: 48,
		}, logger),
		perf: service.NewPerformanceTracker(10_000),
		exec: executor.New(executor.Config{
			Mode:     executor.ModeAutoTrade,
			DedupTTL: time.Minute,
		}, recorder, logger),
	}

	a := &App{cfg: &config.Config{}, logger: logger}
	deps := &Dependencies{
		SignalBus: nopBus{},
		Notifier:  notify.NewNotifier(nil, nil, logger),
	}

	// ranked best-first; a buy-both opportunity places two orders per market
	var scored []domain.ScoredOpportunity
	var want []string
	for i := 0; i < 6; i++ {
		id := fmt.Sprintf("mkt-%d", i)
		scored = append(scored, imbalanceScored(id, float64(90-i*10)))
		want = append(want, id, id)
	}

	a.executeBatch(context.Background(), deps, eng, scored)

	assert.Equal(t, want, recorder.markets)
	assert.Len(t, eng.risk.OpenPositions(), 12)
}
