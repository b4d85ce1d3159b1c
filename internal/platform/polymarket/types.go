package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/polyarb/arbot/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// flexFloat unmarshals from a JSON number or a numeric string, both of which
// the Gamma API emits depending on the field.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*f = flexFloat(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// APIMarket represents a market as returned by the Polymarket Gamma API.
// Only the fields the snapshot pipeline consumes are mapped.
type APIMarket struct {
	ID            string    `json:"id"`
	Question      string    `json:"question"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	Active        flexBool  `json:"active"`
	Closed        bool      `json:"closed"`
	EndDate       string    `json:"endDate"`
	Outcomes      string    `json:"outcomes"`      // JSON-encoded: e.g. "[\"Yes\",\"No\"]"
	OutcomePrices string    `json:"outcomePrices"` // JSON-encoded: e.g. "[\"0.55\",\"0.45\"]"
	BestBid       flexFloat `json:"bestBid"`
	BestAsk       flexFloat `json:"bestAsk"`
	Volume24hr    flexFloat `json:"volume24hr"`
	Liquidity     flexFloat `json:"liquidityNum"`
	ClobTokenIDs  string    `json:"clobTokenIds"` // JSON-encoded: e.g. "[\"123\",\"456\"]"
}

// Binary reports whether this is a two-outcome Yes/No market. Multi-outcome
// markets are skipped; the detection strategies assume binary pricing.
func (m *APIMarket) Binary() bool {
	var outcomes []string
	if err := json.Unmarshal([]byte(m.Outcomes), &outcomes); err != nil {
		return false
	}
	return len(outcomes) == 2
}

// TokenIDs returns the decoded CLOB token IDs, YES first.
func (m *APIMarket) TokenIDs() []string {
	var ids []string
	if err := json.Unmarshal([]byte(m.ClobTokenIDs), &ids); err != nil {
		return nil
	}
	return ids
}

// ToSnapshot converts the API market to a domain snapshot taken at
// fetchedAt. YES quotes come from the top-of-book fields; NO quotes are the
// complement of the YES side, which is how a binary CLOB book is quoted.
// When the API omits top-of-book data the mids stand in for both sides.
func (m *APIMarket) ToSnapshot(fetchedAt time.Time) domain.Snapshot {
	snap := domain.Snapshot{
		MarketID:    m.ID,
		Question:    m.Question,
		Description: m.Description,
		Category:    m.Category,
		Volume24h:   float64(m.Volume24hr),
		Liquidity:   float64(m.Liquidity),
		FetchedAt:   fetchedAt,
	}

	switch {
	case m.Closed:
		snap.Status = domain.MarketStatusClosed
	case bool(m.Active):
		snap.Status = domain.MarketStatusActive
	default:
		snap.Status = domain.MarketStatusSuspended
	}

	if t, err := time.Parse(time.RFC3339, m.EndDate); err == nil {
		snap.EndDate = t
	}

	var prices []string
	if err := json.Unmarshal([]byte(m.OutcomePrices), &prices); err == nil && len(prices) == 2 {
		snap.YesPrice, _ = strconv.ParseFloat(prices[0], 64)
		snap.NoPrice, _ = strconv.ParseFloat(prices[1], 64)
	}

	bid, ask := float64(m.BestBid), float64(m.BestAsk)
	if bid <= 0 && ask <= 0 {
		bid, ask = snap.YesPrice, snap.YesPrice
	}
	snap.YesBid, snap.YesAsk = bid, ask
	snap.NoBid, snap.NoAsk = 1-ask, 1-bid

	return snap
}

// --------------------------------------------------------------------------
// CLOB API DTOs
// --------------------------------------------------------------------------

// APIOrderResult is the response from placing an order via the CLOB API.
type APIOrderResult struct {
	Success     bool   `json:"success"`
	ErrorMsg    string `json:"errorMsg,omitempty"`
	OrderID     string `json:"orderID,omitempty"`
	Status      string `json:"status,omitempty"`
	TransactID  string `json:"transactID,omitempty"`
	ShouldRetry bool   `json:"shouldRetry,omitempty"`
}

// --------------------------------------------------------------------------
// WebSocket DTOs
// --------------------------------------------------------------------------

// WSCommand is a subscribe/unsubscribe frame sent to the CLOB WebSocket.
type WSCommand struct {
	Type    string   `json:"type"`
	Channel string   `json:"channel"`
	Assets  []string `json:"assets_ids"`
}

// BookMessage represents a full orderbook snapshot delivered over WebSocket.
type BookMessage struct {
	AssetID   string         `json:"asset_id"`
	Market    string         `json:"market"`
	Bids      []WSPriceLevel `json:"bids"`
	Asks      []WSPriceLevel `json:"asks"`
	Timestamp string         `json:"timestamp"`
}

// WSPriceLevel is a single bid/ask level in the WebSocket orderbook data.
type WSPriceLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// Quote is the top-of-book for one asset, extracted from a BookMessage.
type Quote struct {
	AssetID string
	Market  string
	Bid     float64
	Ask     float64
}

// TopOfBook extracts the best bid and ask from a book snapshot. Levels come
// sorted from the API but the scan does not rely on it.
func (b *BookMessage) TopOfBook() Quote {
	q := Quote{AssetID: b.AssetID, Market: b.Market}
	for _, lvl := range b.Bids {
		if p, err := strconv.ParseFloat(lvl.Price, 64); err == nil && p > q.Bid {
			q.Bid = p
		}
	}
	for _, lvl := range b.Asks {
		p, err := strconv.ParseFloat(lvl.Price, 64)
		if err != nil || p <= 0 {
			continue
		}
		if q.Ask == 0 || p < q.Ask {
			q.Ask = p
		}
	}
	return q
}
