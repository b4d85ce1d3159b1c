package domain

import "time"

// OrderSide indicates whether a trade is a buy or a sell.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderType indicates how an order rests on the book.
type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

// Trade represents one executed fill.
type Trade struct {
	ID        string
	MarketID  string
	Outcome   Outcome
	Side      OrderSide
	Price     float64
	Size      float64
	Timestamp time.Time
	GasCost   float64
	Strategy  Kind
}

// TotalCost is the notional plus gas.
func (t Trade) TotalCost() float64 {
	return t.Price*t.Size + t.GasCost
}

// NetAmount is the signed cash flow: negative for buys, positive for sells.
func (t Trade) NetAmount() float64 {
	if t.Side == OrderSideBuy {
		return -t.TotalCost()
	}
	return t.Price * t.Size
}
