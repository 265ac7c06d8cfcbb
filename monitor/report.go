package monitor

import (
	"time"

	"github.com/absmach/fldash/pkg/fl"
)

// WorkerDetail describes one active worker. Loss and Samples stay nil until
// the coordinator reports them.
type WorkerDetail struct {
	WorkerID string   `json:"worker_id"`
	Loss     *float64 `json:"loss,omitempty"`
	Samples  *int     `json:"samples,omitempty"`
}

type WorkerOverview struct {
	Workers    []WorkerDetail `json:"workers"`
	Comparison Comparison     `json:"comparison"`
}

// Report is everything derived from one refresh cycle.
type Report struct {
	Epoch         int      `json:"epoch"`
	GlobalLoss    *float64 `json:"global_loss,omitempty"`
	LossDelta     string   `json:"loss_delta,omitempty"`
	ActiveWorkers int      `json:"active_workers"`
	TotalSamples  int      `json:"total_samples"`
	GlobalUpdates int      `json:"global_updates"`

	Convergence ConvergenceSummary `json:"convergence"`
	HistoryLen  int                `json:"history_len"`

	WorkerOverview

	UpdatedAt time.Time `json:"updated_at"`
}

func buildReport(s fl.Status, history []HistoryEntry, points []ConvergencePoint, now time.Time) Report {
	r := Report{
		Epoch:         s.CurrentEpoch,
		ActiveWorkers: len(s.ActiveWorkers),
		GlobalUpdates: s.CurrentEpoch * len(s.ActiveWorkers),
		Convergence:   summarize(history, points),
		HistoryLen:    len(history),
		WorkerOverview: WorkerOverview{
			Workers:    workerDetails(s),
			Comparison: Compare(s.WorkerLosses),
		},
		UpdatedAt: now,
	}

	if s.GlobalLoss != nil {
		gl := *s.GlobalLoss
		r.GlobalLoss = &gl
		// A falling loss shows as a negative delta.
		if rate := r.Convergence.Rate; rate != 0 {
			if d, ok := FormatDelta(-rate); ok {
				r.LossDelta = d
			}
		}
	}

	for _, n := range s.WorkerSamples {
		r.TotalSamples += n
	}

	return r
}

func workerDetails(s fl.Status) []WorkerDetail {
	details := make([]WorkerDetail, 0, len(s.ActiveWorkers))
	for _, id := range s.ActiveWorkers {
		d := WorkerDetail{WorkerID: id}
		if loss, ok := s.WorkerLosses.Get(id); ok {
			d.Loss = &loss
		}
		if n, ok := s.WorkerSamples[id]; ok {
			d.Samples = &n
		}
		details = append(details, d)
	}

	return details
}
