package arbitrage

import (
	"math"
	"time"
)

// PricePoint is one observed (yes, no) mid pair.
type PricePoint struct {
	At  time.Time
	Yes float64
	No  float64
}

// PriceHistory keeps a rolling window of price points per market. It is the
// only mutable state in the detection core and has a single writer: the
// time-based strategy records during its own Detect pass.
type PriceHistory struct {
	window time.Duration
	series map[string][]PricePoint
}

// NewPriceHistory creates a history with the given retention window.
func NewPriceHistory(window time.Duration) *PriceHistory {
	return &PriceHistory{
		window: window,
		series: make(map[string][]PricePoint),
	}
}

// Record appends a point for the market and evicts points older than the
// retention window relative to the new point.
func (h *PriceHistory) Record(marketID string, p PricePoint) {
	pts := append(h.series[marketID], p)
	cutoff := p.At.Add(-h.window)
	// points arrive in time order, so eviction only trims the front
	start := 0
	for start < len(pts) && pts[start].At.Before(cutoff) {
		start++
	}
	h.series[marketID] = pts[start:]
}

// Points returns the retained points for a market, oldest first. The slice
// is shared; callers must not modify it.
func (h *PriceHistory) Points(marketID string) []PricePoint {
	return h.series[marketID]
}

// Len returns the number of retained points for a market.
func (h *PriceHistory) Len(marketID string) int {
	return len(h.series[marketID])
}

// Reset discards all history for all markets.
func (h *PriceHistory) Reset() {
	h.series = make(map[string][]PricePoint)
}

// meanStd returns the arithmetic mean and population standard deviation.
func meanStd(vals []float64) (mean, std float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	for _, v := range vals {
		d := v - mean
		std += d * d
	}
	std = math.Sqrt(std / float64(len(vals)))
	return mean, std
}
