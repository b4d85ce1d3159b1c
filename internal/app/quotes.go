package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/polyarb/arbot/internal/domain"
	"github.com/polyarb/arbot/internal/platform/polymarket"
)

// maxWatchedAssets bounds the websocket subscription size.
const maxWatchedAssets = 100

// quoteTarget maps a CLOB asset back to the market side it prices.
type quoteTarget struct {
	marketID string
	outcome  domain.Outcome
}

// quoteTracker accumulates the asset IDs discovered during snapshot polls so
// the quote feed knows what to subscribe to.
type quoteTracker struct {
	mu     sync.Mutex
	assets map[string]quoteTarget
}

func newQuoteTracker() *quoteTracker {
	return &quoteTracker{assets: make(map[string]quoteTarget)}
}

// observe records the YES and NO token IDs of a market.
func (t *quoteTracker) observe(m *polymarket.APIMarket) {
	ids := m.TokenIDs()
	if len(ids) != 2 {
		return
	}
	t.mu.Lock()
	t.assets[ids[0]] = quoteTarget{marketID: m.ID, outcome: domain.OutcomeYes}
	t.assets[ids[1]] = quoteTarget{marketID: m.ID, outcome: domain.OutcomeNo}
	t.mu.Unlock()
}

// assetIDs returns up to limit known asset IDs.
func (t *quoteTracker) assetIDs(limit int) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]string, 0, len(t.assets))
	for id := range t.assets {
		ids = append(ids, id)
		if len(ids) == limit {
			break
		}
	}
	return ids
}

func (t *quoteTracker) target(assetID string) (quoteTarget, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	tg, ok := t.assets[assetID]
	return tg, ok
}

// runQuoteFeed streams live top-of-book updates over the CLOB websocket and
// marks tracked positions to them between polls. It waits for the first
// snapshot pass to discover asset IDs before connecting.
func (a *App) runQuoteFeed(ctx context.Context, deps *Dependencies, eng *engine) error {
	if a.cfg.Polymarket.WsHost == "" || eng.quotes == nil {
		return nil
	}

	var ids []string
	waitTicker := time.NewTicker(5 * time.Second)
	defer waitTicker.Stop()
	for len(ids) == 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-waitTicker.C:
			ids = eng.quotes.assetIDs(maxWatchedAssets)
		}
	}

	onQuote := func(q polymarket.Quote) {
		tg, ok := eng.quotes.target(q.AssetID)
		if !ok {
			return
		}

		snap, err := deps.SnapshotCache.Get(ctx, tg.marketID)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				a.logger.Debug("quote: snapshot lookup failed",
					slog.String("market_id", tg.marketID),
					slog.String("error", err.Error()),
				)
			}
			return
		}

		mid := (q.Bid + q.Ask) / 2
		if tg.outcome == domain.OutcomeYes {
			snap.YesBid, snap.YesAsk, snap.YesPrice = q.Bid, q.Ask, mid
		} else {
			snap.NoBid, snap.NoAsk, snap.NoPrice = q.Bid, q.Ask, mid
		}
		snap.FetchedAt = time.Now().UTC()

		if err := deps.SnapshotCache.Set(ctx, snap); err != nil {
			a.logger.Debug("quote: snapshot cache write failed",
				slog.String("market_id", tg.marketID),
				slog.String("error", err.Error()),
			)
		}
		if eng.risk != nil {
			eng.risk.UpdatePrices(map[string]domain.Snapshot{tg.marketID: snap})
		}
	}

	wsURL := strings.TrimRight(a.cfg.Polymarket.WsHost, "/") + "/ws/market"
	feed := polymarket.NewQuoteFeed(wsURL, ids, onQuote, a.logger)
	return feed.Run(ctx)
}
