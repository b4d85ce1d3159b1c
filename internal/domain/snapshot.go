package domain

import "time"

// MarketStatus represents the lifecycle state of a market.
type MarketStatus string

const (
	MarketStatusActive    MarketStatus = "active"
	MarketStatusClosed    MarketStatus = "closed"
	MarketStatusResolved  MarketStatus = "resolved"
	MarketStatusSuspended MarketStatus = "suspended"
)

// Outcome identifies one side of a binary market.
type Outcome string

const (
	OutcomeYes Outcome = "YES"
	OutcomeNo  Outcome = "NO"
)

// Snapshot is a point-in-time view of one market's quotes and metadata.
// It is constructed fresh on every polling or websocket tick and is never
// mutated afterwards; a newer tick supersedes it.
type Snapshot struct {
	MarketID    string
	Question    string
	Description string
	Category    string
	EndDate     time.Time
	Status      MarketStatus
	YesPrice    float64 // mid
	NoPrice     float64 // mid
	YesBid      float64
	YesAsk      float64
	NoBid       float64
	NoAsk       float64
	Volume24h   float64
	Liquidity   float64 // USD notional
	FetchedAt   time.Time
}

// PriceSum returns the sum of the YES and NO mid prices. In an efficient
// market it sits near 1.0.
func (s Snapshot) PriceSum() float64 {
	return s.YesPrice + s.NoPrice
}

// Spread returns the combined bid-ask spread across both outcome sides.
func (s Snapshot) Spread() float64 {
	return (s.YesAsk - s.YesBid) + (s.NoAsk - s.NoBid)
}

// Mid returns the mid price for the given outcome side.
func (s Snapshot) Mid(side Outcome) float64 {
	if side == OutcomeYes {
		return s.YesPrice
	}
	return s.NoPrice
}

// Bid returns the best bid for the given outcome side.
func (s Snapshot) Bid(side Outcome) float64 {
	if side == OutcomeYes {
		return s.YesBid
	}
	return s.NoBid
}

// Ask returns the best ask for the given outcome side.
func (s Snapshot) Ask(side Outcome) float64 {
	if side == OutcomeYes {
		return s.YesAsk
	}
	return s.NoAsk
}

// HoursToResolution returns the number of hours until the market's end date
// relative to now. Negative values mean the end date has passed.
func (s Snapshot) HoursToResolution(now time.Time) float64 {
	return s.EndDate.Sub(now).Hours()
}
