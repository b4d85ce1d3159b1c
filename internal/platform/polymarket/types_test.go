package polymarket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyarb/arbot/internal/domain"
)

func TestAPIMarketToSnapshot(t *testing.T) {
	raw := `{
		"id": "m1",
		"question": "Will X happen?",
		"category": "politics",
		"active": "true",
		"closed": false,
		"endDate": "2026-12-31T12:00:00Z",
		"outcomes": "[\"Yes\",\"No\"]",
		"outcomePrices": "[\"0.55\",\"0.45\"]",
		"bestBid": "0.54",
		"bestAsk": 0.56,
		"volume24hr": "12345.5",
		"liquidityNum": 50000,
		"clobTokenIds": "[\"tok-yes\",\"tok-no\"]"
	}`

	var m APIMarket
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	require.True(t, m.Binary())

	at := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	snap := m.ToSnapshot(at)

	assert.Equal(t, "m1", snap.MarketID)
	assert.Equal(t, domain.MarketStatusActive, snap.Status)
	assert.Equal(t, 0.55, snap.YesPrice)
	assert.Equal(t, 0.45, snap.NoPrice)
	assert.Equal(t, 0.54, snap.YesBid)
	assert.Equal(t, 0.56, snap.YesAsk)
	// NO side is the complement of the YES book.
	assert.InDelta(t, 0.44, snap.NoBid, 1e-9)
	assert.InDelta(t, 0.46, snap.NoAsk, 1e-9)
	assert.Equal(t, 12345.5, snap.Volume24h)
	assert.Equal(t, 50000.0, snap.Liquidity)
	assert.Equal(t, 2026, snap.EndDate.Year())
	assert.Equal(t, at, snap.FetchedAt)
	assert.Equal(t, []string{"tok-yes", "tok-no"}, m.TokenIDs())
}

func TestAPIMarketMissingBookFallsBackToMid(t *testing.T) {
	m := APIMarket{
		ID:            "m2",
		Active:        true,
		Outcomes:      `["Yes","No"]`,
		OutcomePrices: `["0.30","0.70"]`,
	}

	snap := m.ToSnapshot(time.Now())
	assert.Equal(t, 0.30, snap.YesBid)
	assert.Equal(t, 0.30, snap.YesAsk)
	assert.InDelta(t, 0.70, snap.NoBid, 1e-9)
	assert.InDelta(t, 0.70, snap.NoAsk, 1e-9)
}

func TestAPIMarketNonBinary(t *testing.T) {
	m := APIMarket{Outcomes: `["A","B","C"]`}
	assert.False(t, m.Binary())

	m.Outcomes = "not json"
	assert.False(t, m.Binary())
}

func TestBookMessageTopOfBook(t *testing.T) {
	book := BookMessage{
		AssetID: "tok-yes",
		Market:  "m1",
		Bids: []WSPriceLevel{
			{Price: "0.50", Size: "100"},
			{Price: "0.52", Size: "40"},
			{Price: "0.48", Size: "900"},
		},
		Asks: []WSPriceLevel{
			{Price: "0.55", Size: "10"},
			{Price: "0.53", Size: "25"},
		},
	}

	q := book.TopOfBook()
	assert.Equal(t, "tok-yes", q.AssetID)
	assert.Equal(t, 0.52, q.Bid)
	assert.Equal(t, 0.53, q.Ask)
}

func TestHMACHeadersDeterministic(t *testing.T) {
	auth := &HMACAuth{
		Address:    "0xabc",
		Key:        "key-1",
		Secret:     "c2VjcmV0", // base64 "secret"
		Passphrase: "pass",
	}

	h1 := auth.HeadersAt("POST", "/order", `{"a":1}`, 1700000000)
	h2 := auth.HeadersAt("POST", "/order", `{"a":1}`, 1700000000)

	assert.Equal(t, h1, h2)
	assert.Equal(t, "0xabc", h1["POLY_ADDRESS"])
	assert.Equal(t, "key-1", h1["POLY_API_KEY"])
	assert.Equal(t, "1700000000", h1["POLY_TIMESTAMP"])
	assert.NotEmpty(t, h1["POLY_SIGNATURE"])

	// A different body must change the signature.
	h3 := auth.HeadersAt("POST", "/order", `{"a":2}`, 1700000000)
	assert.NotEqual(t, h1["POLY_SIGNATURE"], h3["POLY_SIGNATURE"])
}
