package executor

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestKellyFraction(t *testing.T) {
	cases := []struct {
		name string
		p, b float64
		loss float64
		want float64
	}{
		{"fair coin double-or-nothing", 0.5, 1.0, -1.0, 0},
		{"strong edge", 0.85, 1.0, -1.0, 0.70},
		{"zero probability", 0, 1.0, -1.0, 0},
		{"certain win is degenerate", 1.0, 1.0, -1.0, 0},
		{"negative return", 0.9, -0.5, -1.0, 0},
		{"small loss magnifies fraction", 0.85, 0.04, -0.008, 0.82},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, KellyFraction(tc.p, tc.b, tc.loss), 1e-2)
		})
	}

	// clamping: extreme edge can exceed 1 before the clamp
	f := KellyFraction(0.99, 0.01, 0)
	assert.LessOrEqual(t, f, 1.0)
	assert.GreaterOrEqual(t, f, 0.0)
}

func TestSizerRejectsUnknownMethod(t *testing.T) {
	_, err := NewPositionSizer(SizerConfig{Method: "martingale"}, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "martingale")
}

func TestSizerDefaultsToKelly(t *testing.T) {
	s, err := NewPositionSizer(SizerConfig{MaxPositionSize: 100}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, SizingKelly, s.cfg.Method)
	assert.InDelta(t, defaultKellyFraction, s.cfg.KellyFraction, 1e-9)
}

func TestKellySizingMonotonicInFraction(t *testing.T) {
	full, err := NewPositionSizer(SizerConfig{
		Method: SizingKelly, KellyFraction: 1.0, MaxPositionSize: 10_000,
	}, testLogger())
	require.NoError(t, err)
	quarter, err := NewPositionSizer(SizerConfig{
		Method: SizingKelly, KellyFraction: 0.25, MaxPositionSize: 10_000,
	}, testLogger())
	require.NoError(t, err)

	for _, profitPct := range []float64{0.5, 2, 5, 20} {
		for _, conf := range []float64{0.1, 0.6, 0.9} {
			a := full.Size(profitPct, conf, 1000)
			b := quarter.Size(profitPct, conf, 1000)
			assert.GreaterOrEqual(t, a, b,
				"profit=%v conf=%v", profitPct, conf)
		}
	}
}

func TestSizerDegenerateInputsYieldZero(t *testing.T) {
	s, err := NewPositionSizer(SizerConfig{Method: SizingKelly, MaxPositionSize: 100}, testLogger())
	require.NoError(t, err)

	assert.Zero(t, s.Size(-5, 0.9, 1000), "negative profit")
	assert.Zero(t, s.Size(5, 0, 1000), "zero confidence")
	assert.Zero(t, s.Size(5, 0.9, 0), "zero capital")
	assert.Zero(t, s.Size(5, 0.9, -100), "negative capital")
}

func TestFixedSizing(t *testing.T) {
	s, err := NewPositionSizer(SizerConfig{Method: SizingFixed, MaxPositionSize: 50}, testLogger())
	require.NoError(t, err)

	// 10% of capital, capped by max position size
	assert.InDelta(t, 30, s.Size(5, 0.9, 300), 1e-9)
	assert.InDelta(t, 50, s.Size(5, 0.9, 10_000), 1e-9)
}

func TestPercentageSizing(t *testing.T) {
	s, err := NewPositionSizer(SizerConfig{Method: SizingPercentage, MaxPositionSize: 500}, testLogger())
	require.NoError(t, err)

	assert.InDelta(t, 50, s.Size(5, 0.9, 1000), 1e-9)
}

func TestSizerNeverExceedsMaxPositionSize(t *testing.T) {
	for _, method := range []SizingMethod{SizingKelly, SizingFixed, SizingPercentage} {
		s, err := NewPositionSizer(SizerConfig{
			Method: method, KellyFraction: 1.0, MaxPositionSize: 75,
		}, testLogger())
		require.NoError(t, err)
		assert.LessOrEqual(t, s.Size(50, 0.95, 1_000_000), 75.0, string(method))
	}
}
