package monitor

import (
	"fmt"
	"math"
)

type Stability string

const (
	Stable       Stability = "Stable"
	Unstable     Stability = "Unstable"
	Initializing Stability = "Initializing"
)

type ConvergencePoint struct {
	Epoch int     `json:"epoch"`
	Rate  float64 `json:"rate"`
}

type ConvergenceSummary struct {
	Rate        float64            `json:"rate"`
	RateDisplay string             `json:"rate_display,omitempty"`
	Stability   Stability          `json:"stability"`
	Trend       *Trend             `json:"trend,omitempty"`
	Points      []ConvergencePoint `json:"points"`
}

// Rate is the mean relative loss reduction between consecutive entries.
// Positive means improving. A step away from a zero loss counts as -1 when the
// loss grows and 0 otherwise. Fewer than two entries yield 0.
func Rate(history []HistoryEntry) float64 {
	if len(history) < 2 {
		return 0
	}

	var sum float64
	for i := 0; i < len(history)-1; i++ {
		cur, next := history[i].GlobalLoss, history[i+1].GlobalLoss
		switch {
		case cur != 0:
			sum += (cur - next) / cur
		case next > 0:
			sum += -1
		}
	}

	return sum / float64(len(history)-1)
}

func StabilityOf(rate float64) Stability {
	switch {
	case rate > 0:
		return Stable
	case rate < 0:
		return Unstable
	default:
		return Initializing
	}
}

// FormatDelta renders a rate as a signed percentage with two decimals.
// Values that are not finite have no rendering.
func FormatDelta(rate float64) (string, bool) {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return "", false
	}

	return fmt.Sprintf("%+.2f%%", rate*100), true
}

// Trend is the least-squares line of global loss against epoch.
type Trend struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

func (t Trend) At(epoch int) float64 {
	return t.Intercept + t.Slope*float64(epoch)
}

// FitTrend needs more than two entries spread over at least two epochs.
func FitTrend(history []HistoryEntry) (Trend, bool) {
	if len(history) <= 2 {
		return Trend{}, false
	}

	n := float64(len(history))
	var meanX, meanY float64
	for _, e := range history {
		meanX += float64(e.Epoch)
		meanY += e.GlobalLoss
	}
	meanX /= n
	meanY /= n

	var sxx, sxy float64
	for _, e := range history {
		dx := float64(e.Epoch) - meanX
		sxx += dx * dx
		sxy += dx * (e.GlobalLoss - meanY)
	}
	if sxx == 0 {
		return Trend{}, false
	}

	slope := sxy / sxx

	return Trend{Slope: slope, Intercept: meanY - slope*meanX}, true
}

func summarize(history []HistoryEntry, points []ConvergencePoint) ConvergenceSummary {
	if points == nil {
		points = []ConvergencePoint{}
	}

	rate := Rate(history)
	cs := ConvergenceSummary{
		Rate:      rate,
		Stability: StabilityOf(rate),
		Points:    points,
	}
	if len(history) >= 2 {
		if d, ok := FormatDelta(rate); ok {
			cs.RateDisplay = d
		}
	}
	if t, ok := FitTrend(history); ok {
		cs.Trend = &t
	}

	return cs
}
