package arbitrage

import (
	"io"
	"log/slog"
	"time"

	"github.com/polyarb/arbot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// makeSnapshot builds an active market with symmetric quotes around the given
// mids and a small fixed spread.
func makeSnapshot(id, question string, yesMid, noMid float64) domain.Snapshot {
	return domain.Snapshot{
		MarketID:  id,
		Question:  question,
		Category:  "politics",
		EndDate:   time.Now().Add(72 * time.Hour),
		Status:    domain.MarketStatusActive,
		YesPrice:  yesMid,
		NoPrice:   noMid,
		YesBid:    yesMid - 0.01,
		YesAsk:    yesMid + 0.01,
		NoBid:     noMid - 0.01,
		NoAsk:     noMid + 0.01,
		Volume24h: 50_000,
		Liquidity: 10_000,
		FetchedAt: time.Now(),
	}
}
