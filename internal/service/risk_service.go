package service

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/polyarb/arbot/internal/domain"
)

// RiskConfig holds the tunable parameters for position risk management.
type RiskConfig struct {
	InitialCapital      float64
	MaxPositionSize     float64
	MaxTotalExposure    float64
	StopLossPct         float64 // fraction, e.g. 0.15 for 15%
	MaxPositionAgeHours float64
}

// RiskMetrics is a point-in-time view of portfolio risk.
type RiskMetrics struct {
	TotalCapital       float64 `json:"total_capital"`
	CurrentExposure    float64 `json:"current_exposure"`
	ExposurePct        float64 `json:"exposure_percentage"`
	OpenPositions      int     `json:"open_positions"`
	TotalUnrealizedPnL float64 `json:"total_unrealized_pnl"`
	AvailableCapital   float64 `json:"available_capital"`
	Diversification    float64 `json:"diversification_score"`
}

// RiskService tracks open positions and enforces capital limits. It owns the
// in-memory position map; stores persist, this decides. Safe for concurrent
// use.
type RiskService struct {
	cfg    RiskConfig
	logger *slog.Logger

	mu              sync.Mutex
	positions       map[string]domain.Position
	totalCapital    float64
	currentExposure float64
	now             func() time.Time
}

// NewRiskService creates a RiskService seeded with the initial capital.
func NewRiskService(cfg RiskConfig, logger *slog.Logger) *RiskService {
	return &RiskService{
		cfg:          cfg,
		logger:       logger.With(slog.String("component", "risk")),
		positions:    make(map[string]domain.Position),
		totalCapital: cfg.InitialCapital,
		now:          time.Now,
	}
}

// CanOpen reports whether a position of the given size may be opened. The
// returned error wraps a sentinel identifying the violated limit.
func (s *RiskService) CanOpen(size float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if size > s.cfg.MaxPositionSize {
		return fmt.Errorf("%w: size %.2f exceeds max %.2f",
			domain.ErrPositionLimit, size, s.cfg.MaxPositionSize)
	}
	if s.currentExposure+size > s.cfg.MaxTotalExposure {
		return fmt.Errorf("%w: %.2f + %.2f would exceed max %.2f",
			domain.ErrExposureLimit, s.currentExposure, size, s.cfg.MaxTotalExposure)
	}
	if size > s.totalCapital {
		return fmt.Errorf("%w: need %.2f, have %.2f",
			domain.ErrInsufficientCap, size, s.totalCapital)
	}
	return nil
}

// AddPosition starts tracking a position and books its notional against the
// exposure counter.
func (s *RiskService) AddPosition(pos domain.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.positions[pos.ID] = pos
	s.currentExposure += pos.EntryPrice * pos.Size

	s.logger.Info("position added",
		slog.String("position_id", pos.ID),
		slog.String("market", pos.MarketID),
		slog.Float64("entry", pos.EntryPrice),
		slog.Float64("exposure", s.currentExposure),
	)
}

// RemovePosition stops tracking a position, releases its exposure and applies
// its realized PnL to the capital base.
func (s *RiskService) RemovePosition(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.positions[id]
	if !ok {
		return
	}
	s.currentExposure -= pos.EntryPrice * pos.Size
	if pos.RealizedPnL != nil {
		s.totalCapital += *pos.RealizedPnL
	}
	delete(s.positions, id)

	s.logger.Info("position removed",
		slog.String("position_id", id),
		slog.Float64("exposure", s.currentExposure),
	)
}

// UpdatePrices marks every tracked position to the latest snapshot of its
// market. Markets absent from the map keep their previous mark.
func (s *RiskService) UpdatePrices(snapshots map[string]domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, pos := range s.positions {
		snap, ok := snapshots[pos.MarketID]
		if !ok {
			continue
		}
		pos.CurrentPrice = snap.Mid(pos.Outcome)
		s.positions[id] = pos
	}
}

// CheckStopLosses returns the ids of positions whose loss from entry exceeds
// the stop-loss fraction.
func (s *RiskService) CheckStopLosses() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var toClose []string
	for id, pos := range s.positions {
		if pos.CurrentPrice <= 0 {
			continue
		}
		lossPct := (pos.EntryPrice - pos.CurrentPrice) / pos.EntryPrice
		if lossPct > s.cfg.StopLossPct {
			s.logger.Warn("stop loss triggered",
				slog.String("position_id", id),
				slog.Float64("loss_pct", lossPct*100),
			)
			toClose = append(toClose, id)
		}
	}
	return toClose
}

// CheckPositionAges returns the ids of positions older than the maximum
// holding period.
func (s *RiskService) CheckPositionAges() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	maxAge := time.Duration(s.cfg.MaxPositionAgeHours * float64(time.Hour))
	now := s.now()

	var toClose []string
	for id, pos := range s.positions {
		age := now.Sub(pos.EntryTime)
		if age > maxAge {
			s.logger.Warn("position exceeded max age",
				slog.String("position_id", id),
				slog.Float64("age_hours", age.Hours()),
			)
			toClose = append(toClose, id)
		}
	}
	return toClose
}

// OpenPositions returns a copy of the tracked positions.
func (s *RiskService) OpenPositions() []domain.Position {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Position, 0, len(s.positions))
	for _, pos := range s.positions {
		out = append(out, pos)
	}
	return out
}

// Exposure returns the current committed notional.
func (s *RiskService) Exposure() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentExposure
}

// Capital returns the current capital base including realized PnL.
func (s *RiskService) Capital() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalCapital
}

// Metrics computes the current risk metrics snapshot.
func (s *RiskService) Metrics() RiskMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()

	var unrealized float64
	for _, pos := range s.positions {
		unrealized += pos.UnrealizedPnL()
	}
	var exposurePct float64
	if s.totalCapital > 0 {
		exposurePct = s.currentExposure / s.totalCapital * 100
	}
	return RiskMetrics{
		TotalCapital:       s.totalCapital,
		CurrentExposure:    s.currentExposure,
		ExposurePct:        exposurePct,
		OpenPositions:      len(s.positions),
		TotalUnrealizedPnL: unrealized,
		AvailableCapital:   s.totalCapital - s.currentExposure,
		Diversification:    s.diversificationLocked(),
	}
}

// diversificationLocked scores market spread across open positions on a
// 0-100 scale; ten distinct markets saturate it. Caller must hold mu.
func (s *RiskService) diversificationLocked() float64 {
	if len(s.positions) == 0 {
		return 100
	}
	markets := make(map[string]struct{})
	for _, pos := range s.positions {
		markets[pos.MarketID] = struct{}{}
	}
	return math.Min(float64(len(markets))/10*100, 100)
}
