package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/polyarb/arbot/internal/domain"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// pingPeriod sends pings to the peer at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// reconnectDelay is the base delay before attempting to reconnect.
	reconnectDelay = 2 * time.Second

	// maxReconnectDelay caps the exponential backoff for reconnection.
	maxReconnectDelay = 60 * time.Second
)

// QuoteHandler is called for every top-of-book update.
type QuoteHandler func(Quote)

// QuoteFeed streams top-of-book quotes for a set of CLOB assets over the
// Polymarket WebSocket API. Between REST polling passes it keeps the quote
// picture fresh for whoever registered the handler. The feed reconnects with
// exponential backoff until the context is cancelled.
type QuoteFeed struct {
	wsURL    string
	assetIDs []string
	onQuote  QuoteHandler
	logger   *slog.Logger
}

// NewQuoteFeed creates a feed that subscribes to book updates for the given
// asset IDs.
//
// wsURL is the CLOB WebSocket endpoint,
// e.g. "wss://ws-subscriptions-clob.polymarket.com/ws/market".
func NewQuoteFeed(wsURL string, assetIDs []string, onQuote QuoteHandler, logger *slog.Logger) *QuoteFeed {
	return &QuoteFeed{
		wsURL:    wsURL,
		assetIDs: assetIDs,
		onQuote:  onQuote,
		logger:   logger.With(slog.String("component", "quote_feed")),
	}
}

// Run connects, subscribes, and consumes the feed until ctx is cancelled.
// Transient disconnects are retried; the only non-nil return is ctx.Err().
func (f *QuoteFeed) Run(ctx context.Context) error {
	if len(f.assetIDs) == 0 {
		f.logger.Info("no assets to subscribe, quote feed idle")
		<-ctx.Done()
		return ctx.Err()
	}

	var delay time.Duration
	for {
		connectedAt := time.Now()
		err := f.runConnection(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		delay = nextReconnectDelay(delay, time.Since(connectedAt))
		f.logger.Warn("websocket disconnected, reconnecting",
			slog.String("error", err.Error()),
			slog.Duration("delay", delay))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// nextReconnectDelay doubles the backoff up to maxReconnectDelay. A
// connection that held longer than the cap means the endpoint recovered, so
// the backoff starts over at the base delay instead of staying pinned at the
// maximum.
func nextReconnectDelay(prev, connected time.Duration) time.Duration {
	if prev == 0 || connected > maxReconnectDelay {
		return reconnectDelay
	}
	next := prev * 2
	if next > maxReconnectDelay {
		next = maxReconnectDelay
	}
	return next
}

// runConnection performs one connect/subscribe/read cycle. It returns when
// the connection drops or the context is cancelled.
func (f *QuoteFeed) runConnection(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}

	conn, _, err := dialer.DialContext(ctx, f.wsURL, nil)
	if err != nil {
		return fmt.Errorf("polymarket/ws: connect: %w", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	cmd := WSCommand{Type: "subscribe", Channel: "book", Assets: f.assetIDs}
	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("polymarket/ws: marshal subscribe: %w", err)
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("polymarket/ws: subscribe: %w", err)
	}

	f.logger.Info("subscribed", slog.Int("assets", len(f.assetIDs)))

	// Close the connection when ctx ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			conn.Close()
		case <-done:
		}
	}()

	go f.pingLoop(conn, done)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("polymarket/ws: read: %w (%w)", err, domain.ErrWSDisconnect)
		}
		f.handleMessage(message)
	}
}

// pingLoop sends periodic ping messages to keep the WebSocket alive.
func (f *QuoteFeed) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage parses a raw frame and dispatches book snapshots. Frames may
// arrive as a single message or a JSON array of messages.
func (f *QuoteFeed) handleMessage(raw []byte) {
	if len(raw) > 0 && raw[0] == '[' {
		var books []BookMessage
		if err := json.Unmarshal(raw, &books); err != nil {
			return
		}
		for i := range books {
			f.dispatchBook(&books[i])
		}
		return
	}

	var envelope struct {
		EventType string `json:"event_type"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return // silently drop unparseable frames
	}
	if envelope.EventType != "book" {
		return
	}

	var book BookMessage
	if err := json.Unmarshal(raw, &book); err != nil {
		return
	}
	f.dispatchBook(&book)
}

func (f *QuoteFeed) dispatchBook(book *BookMessage) {
	if book.AssetID == "" || f.onQuote == nil {
		return
	}
	f.onQuote(book.TopOfBook())
}
