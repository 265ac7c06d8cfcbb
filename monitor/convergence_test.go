package monitor_test

import (
	"math"
	"testing"

	"github.com/absmach/fldash/monitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entries(losses ...float64) []monitor.HistoryEntry {
	h := make([]monitor.HistoryEntry, 0, len(losses))
	for i, l := range losses {
		h = append(h, monitor.HistoryEntry{Epoch: i + 1, GlobalLoss: l})
	}

	return h
}

func TestRate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc    string
		history []monitor.HistoryEntry
		check   func(t *testing.T, rate float64)
	}{
		{
			desc:    "empty history",
			history: nil,
			check:   func(t *testing.T, rate float64) { assert.Zero(t, rate) },
		},
		{
			desc:    "single entry",
			history: entries(3),
			check:   func(t *testing.T, rate float64) { assert.Zero(t, rate) },
		},
		{
			desc:    "strictly decreasing",
			history: entries(10, 8, 6.4),
			check: func(t *testing.T, rate float64) {
				assert.Greater(t, rate, 0.0)
				assert.InDelta(t, 0.2, rate, 1e-9)
			},
		},
		{
			desc:    "strictly increasing",
			history: entries(1, 2, 4),
			check:   func(t *testing.T, rate float64) { assert.Less(t, rate, 0.0) },
		},
		{
			desc:    "constant",
			history: entries(2, 2, 2),
			check:   func(t *testing.T, rate float64) { assert.Zero(t, rate) },
		},
		{
			desc:    "loss through zero",
			history: entries(5, 0, 3),
			check:   func(t *testing.T, rate float64) { assert.InDelta(t, 0.0, rate, 1e-12) },
		},
		{
			desc:    "zero to zero",
			history: entries(0, 0),
			check:   func(t *testing.T, rate float64) { assert.Zero(t, rate) },
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			tc.check(t, monitor.Rate(tc.history))
		})
	}
}

func TestStabilityOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, monitor.Stable, monitor.StabilityOf(0.1))
	assert.Equal(t, monitor.Unstable, monitor.StabilityOf(-0.1))
	assert.Equal(t, monitor.Initializing, monitor.StabilityOf(0))
}

func TestFormatDelta(t *testing.T) {
	t.Parallel()

	cases := []struct {
		rate float64
		want string
		ok   bool
	}{
		{rate: 0.2, want: "+20.00%", ok: true},
		{rate: -0.05, want: "-5.00%", ok: true},
		{rate: 0, want: "+0.00%", ok: true},
		{rate: 0.123456, want: "+12.35%", ok: true},
		{rate: math.NaN(), ok: false},
		{rate: math.Inf(1), ok: false},
		{rate: math.Inf(-1), ok: false},
	}

	for _, tc := range cases {
		got, ok := monitor.FormatDelta(tc.rate)
		assert.Equal(t, tc.ok, ok, "rate %v", tc.rate)
		assert.Equal(t, tc.want, got, "rate %v", tc.rate)
	}
}

func TestFitTrend(t *testing.T) {
	t.Parallel()

	_, ok := monitor.FitTrend(entries(3, 2))
	assert.False(t, ok, "two entries are not enough")

	same := []monitor.HistoryEntry{{Epoch: 4, GlobalLoss: 1}, {Epoch: 4, GlobalLoss: 2}, {Epoch: 4, GlobalLoss: 3}}
	_, ok = monitor.FitTrend(same)
	assert.False(t, ok, "a single epoch has no slope")

	trend, ok := monitor.FitTrend(entries(9, 7, 5, 3))
	require.True(t, ok)
	assert.InDelta(t, -2.0, trend.Slope, 1e-9)
	assert.InDelta(t, 11.0, trend.Intercept, 1e-9)
	assert.InDelta(t, 1.0, trend.At(5), 1e-9)
}
