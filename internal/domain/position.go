package domain

import "time"

// PositionStatus tracks the position lifecycle:
// proposed -> open -> one of the closed states.
type PositionStatus string

const (
	PositionStatusProposed       PositionStatus = "proposed"
	PositionStatusOpen           PositionStatus = "open"
	PositionStatusClosedNormal   PositionStatus = "closed_normal"
	PositionStatusClosedStopLoss PositionStatus = "closed_stop_loss"
	PositionStatusClosedAgeLimit PositionStatus = "closed_age_limit"
)

// Closed reports whether the status is one of the terminal states.
func (s PositionStatus) Closed() bool {
	switch s {
	case PositionStatusClosedNormal, PositionStatusClosedStopLoss, PositionStatusClosedAgeLimit:
		return true
	default:
		return false
	}
}

// Position represents an open or historical trading position.
type Position struct {
	ID           string
	MarketID     string
	Outcome      Outcome
	Size         float64
	EntryPrice   float64
	EntryTime    time.Time
	CurrentPrice float64
	ExitPrice    *float64
	ExitTime     *time.Time
	RealizedPnL  *float64
	GasCosts     float64
	Status       PositionStatus
	Strategy     Kind
}

// IsOpen reports whether the position has not been exited yet.
func (p Position) IsOpen() bool {
	return p.ExitPrice == nil
}

// UnrealizedPnL returns the mark-to-market PnL for an open position, net of
// gas. Closed positions return 0.
func (p Position) UnrealizedPnL() float64 {
	if p.ExitPrice != nil {
		return 0
	}
	return (p.CurrentPrice-p.EntryPrice)*p.Size - p.GasCosts
}

// ReturnPct returns the percentage return relative to the entry price, using
// the exit price for closed positions and the current price otherwise.
func (p Position) ReturnPct() float64 {
	if p.EntryPrice == 0 {
		return 0
	}
	px := p.CurrentPrice
	if p.ExitPrice != nil {
		px = *p.ExitPrice
	}
	return (px - p.EntryPrice) / p.EntryPrice * 100
}
