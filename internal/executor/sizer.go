package executor

import (
	"fmt"
	"log/slog"
	"math"
)

// SizingMethod selects the position sizing policy.
type SizingMethod string

const (
	SizingKelly      SizingMethod = "kelly"
	SizingFixed      SizingMethod = "fixed"
	SizingPercentage SizingMethod = "percentage"
)

const (
	defaultKellyFraction = 0.25

	// kellyConservatism halves the raw Kelly fraction to absorb model
	// uncertainty and execution slippage.
	kellyConservatism = 0.5

	// kellyLossRatio assumes the downside of a failed arbitrage is a fifth
	// of the upside: losses come from slippage and fees, not a full payout
	// miss.
	kellyLossRatio = 0.2

	fixedCapitalFraction      = 0.1
	percentageCapitalFraction = 0.05
)

// KellyFraction computes the classic Kelly bet fraction (p*b - q*|l|) / b,
// clamped to [0, 1]. Degenerate inputs (probability outside (0,1), a
// non-positive win return) yield zero.
func KellyFraction(winProbability, winReturn, lossReturn float64) float64 {
	if winProbability <= 0 || winProbability >= 1 {
		return 0
	}
	if winReturn <= 0 {
		return 0
	}
	lossProbability := 1 - winProbability
	f := (winProbability*winReturn - lossProbability*math.Abs(lossReturn)) / winReturn
	return math.Max(0, math.Min(1, f))
}

// SizerConfig configures position sizing.
type SizerConfig struct {
	Method          SizingMethod
	KellyFraction   float64
	MaxPositionSize float64
}

// PositionSizer converts an opportunity's profit and confidence estimates
// into a dollar position size. Every policy is capped by MaxPositionSize and
// never returns a negative size.
type PositionSizer struct {
	cfg    SizerConfig
	logger *slog.Logger
}

// NewPositionSizer validates the configured method; an unknown one is a
// configuration error rather than a silent fallback.
func NewPositionSizer(cfg SizerConfig, logger *slog.Logger) (*PositionSizer, error) {
	switch cfg.Method {
	case SizingKelly, SizingFixed, SizingPercentage:
	case "":
		cfg.Method = SizingKelly
	default:
		return nil, fmt.Errorf("unknown sizing method %q", cfg.Method)
	}
	if cfg.KellyFraction == 0 {
		cfg.KellyFraction = defaultKellyFraction
	}
	return &PositionSizer{cfg: cfg, logger: logger.With(slog.String("component", "sizer"))}, nil
}

// Size returns the position size in USD for an opportunity with the given
// profit percentage and confidence (0-1) against the available capital.
func (s *PositionSizer) Size(profitPct, confidence, capital float64) float64 {
	if capital <= 0 {
		return 0
	}

	var size float64
	switch s.cfg.Method {
	case SizingKelly:
		size = s.kellySize(profitPct, confidence, capital)
	case SizingFixed:
		size = math.Min(s.cfg.MaxPositionSize, capital*fixedCapitalFraction)
	case SizingPercentage:
		size = capital * percentageCapitalFraction
	}

	size = math.Min(size, s.cfg.MaxPositionSize)
	if size < 0 {
		size = 0
	}

	s.logger.Debug("position sized",
		slog.String("method", string(s.cfg.Method)),
		slog.Float64("profit_pct", profitPct),
		slog.Float64("confidence", confidence),
		slog.Float64("size", size),
	)
	return size
}

func (s *PositionSizer) kellySize(profitPct, confidence, capital float64) float64 {
	winReturn := profitPct / 100
	lossReturn := -winReturn * kellyLossRatio

	f := KellyFraction(confidence, winReturn, lossReturn)
	f *= kellyConservatism
	f *= s.cfg.KellyFraction

	return capital * f
}
