// Package arbitrage implements the opportunity detection and scoring core: a
// set of independent pattern matchers over a snapshot list, a coordinator
// that runs them and filters by net-of-cost profitability, and a multi-factor
// scorer that ranks candidates for capital allocation.
//
// The core is synchronous and side-effect free: given the same snapshot list
// every matcher returns the same opportunities, in the same order. The one
// exception is the time-based strategy, which owns a per-market rolling price
// history; it is safe under sequential single-writer access only.
package arbitrage

import (
	"github.com/polyarb/arbot/internal/domain"
)

// Strategy detects opportunities of a single kind from a snapshot list.
// Implementations must tolerate malformed snapshots (missing or non-positive
// prices) by skipping the offending market or combination rather than
// returning an error; errors are reserved for genuine matcher failure, which
// the detector isolates per strategy.
type Strategy interface {
	Name() string
	Detect(snapshots []domain.Snapshot) ([]domain.Opportunity, error)
}
