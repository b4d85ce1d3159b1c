package service

import (
	"math"
	"sync"
	"time"

	"github.com/polyarb/arbot/internal/domain"
)

// riskFreeRate is the annual risk-free rate assumed by the Sharpe
// calculation, spread over 252 trading days.
const riskFreeRate = 0.02

// PerformanceMetrics summarizes realized trading performance.
type PerformanceMetrics struct {
	TotalPnL          float64 `json:"total_pnl"`
	TotalTrades       int     `json:"total_trades"`
	WinningTrades     int     `json:"winning_trades"`
	LosingTrades      int     `json:"losing_trades"`
	WinRate           float64 `json:"win_rate"`
	AvgProfitPerTrade float64 `json:"avg_profit_per_trade"`
	TotalGasCosts     float64 `json:"total_gas_costs"`
	NetPnL            float64 `json:"net_pnl"`
	ROI               float64 `json:"roi"`
	SharpeRatio       float64 `json:"sharpe_ratio"`
	MaxDrawdown       float64 `json:"max_drawdown"`
	TotalVolume       float64 `json:"total_volume"`
}

type equityPoint struct {
	at    time.Time
	value float64
}

// PerformanceTracker accumulates closed positions and fills into realized
// performance metrics and an equity curve. Safe for concurrent use.
type PerformanceTracker struct {
	mu              sync.Mutex
	initialCapital  float64
	currentCapital  float64
	trades          []domain.Trade
	closedPositions []domain.Position
	returns         []float64
	equity          []equityPoint
	now             func() time.Time
}

// NewPerformanceTracker seeds the equity curve with the initial capital.
func NewPerformanceTracker(initialCapital float64) *PerformanceTracker {
	t := &PerformanceTracker{
		initialCapital: initialCapital,
		currentCapital: initialCapital,
		now:            time.Now,
	}
	t.equity = []equityPoint{{at: t.now(), value: initialCapital}}
	return t
}

// AddTrade records an executed fill.
func (t *PerformanceTracker) AddTrade(trade domain.Trade) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.trades = append(t.trades, trade)
}

// AddClosedPosition records a closed position and advances the equity curve.
// Positions without realized PnL are ignored.
func (t *PerformanceTracker) AddClosedPosition(pos domain.Position) {
	if pos.RealizedPnL == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closedPositions = append(t.closedPositions, pos)
	prev := t.currentCapital
	t.currentCapital += *pos.RealizedPnL
	t.equity = append(t.equity, equityPoint{at: t.now(), value: t.currentCapital})
	if prev != 0 {
		t.returns = append(t.returns, (t.currentCapital-prev)/prev)
	}
}

// Metrics computes the full metrics summary over everything recorded so far.
func (t *PerformanceTracker) Metrics() PerformanceMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := len(t.closedPositions)
	if total == 0 {
		return PerformanceMetrics{}
	}

	var m PerformanceMetrics
	m.TotalTrades = total
	for _, pos := range t.closedPositions {
		pnl := *pos.RealizedPnL
		m.TotalPnL += pnl
		if pnl > 0 {
			m.WinningTrades++
		} else if pnl < 0 {
			m.LosingTrades++
		}
	}
	m.WinRate = float64(m.WinningTrades) / float64(total) * 100

	for _, tr := range t.trades {
		m.TotalGasCosts += tr.GasCost
		m.TotalVolume += tr.Price * tr.Size
	}
	m.NetPnL = m.TotalPnL - m.TotalGasCosts
	m.AvgProfitPerTrade = m.NetPnL / float64(total)
	if t.initialCapital > 0 {
		m.ROI = m.NetPnL / t.initialCapital * 100
	}
	m.SharpeRatio = t.sharpeLocked()
	m.MaxDrawdown = t.maxDrawdownLocked()
	return m
}

// MarketPnL returns realized PnL grouped by market.
func (t *PerformanceTracker) MarketPnL() map[string]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]float64)
	for _, pos := range t.closedPositions {
		out[pos.MarketID] += *pos.RealizedPnL
	}
	return out
}

// sharpeLocked annualizes the mean excess return over its standard
// deviation. Caller must hold mu.
func (t *PerformanceTracker) sharpeLocked() float64 {
	if len(t.returns) < 2 {
		return 0
	}
	dailyRF := riskFreeRate / 252

	var mean float64
	for _, r := range t.returns {
		mean += r - dailyRF
	}
	mean /= float64(len(t.returns))

	var variance float64
	for _, r := range t.returns {
		d := (r - dailyRF) - mean
		variance += d * d
	}
	std := math.Sqrt(variance / float64(len(t.returns)))
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(252)
}

// maxDrawdownLocked returns the largest peak-to-trough equity decline as a
// percentage. Caller must hold mu.
func (t *PerformanceTracker) maxDrawdownLocked() float64 {
	if len(t.equity) < 2 {
		return 0
	}
	peak := t.equity[0].value
	var maxDD float64
	for _, p := range t.equity {
		if p.value > peak {
			peak = p.value
		}
		if peak > 0 {
			dd := (peak - p.value) / peak * 100
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}
