package monitor

import (
	"cmp"
	"slices"

	"github.com/absmach/fldash/pkg/fl"
)

// Comparison ranks workers by their latest loss. Best is nil until at least
// one worker has reported.
type Comparison struct {
	Ranking []fl.WorkerLoss `json:"ranking"`
	Best    *fl.WorkerLoss  `json:"best,omitempty"`
}

// Compare picks the worker with the lowest loss. Ties go to whichever worker
// comes first in losses. The ranking is ascending by loss and keeps that same
// order among equal losses.
func Compare(losses fl.WorkerLosses) Comparison {
	c := Comparison{Ranking: make([]fl.WorkerLoss, len(losses))}
	if len(losses) == 0 {
		return c
	}

	best := losses[0]
	for _, l := range losses[1:] {
		if l.Loss < best.Loss {
			best = l
		}
	}
	c.Best = &best

	copy(c.Ranking, losses)
	slices.SortStableFunc(c.Ranking, func(a, b fl.WorkerLoss) int {
		return cmp.Compare(a.Loss, b.Loss)
	})

	return c
}
