package monitor

import (
	"context"
	"errors"
	"fmt"

	pkgerrors "github.com/absmach/fldash/pkg/errors"
)

var (
	ErrStatusUnavailable = fmt.Errorf("%w: no status available this cycle", pkgerrors.ErrUnavailable)
	ErrNoReport          = fmt.Errorf("%w: no report yet", pkgerrors.ErrNotFound)
	errNilClient         = errors.New("status client is required")
)

// Service watches one training run for the life of the process.
type Service interface {
	// Poll runs one fetch, filter and analyze cycle and returns the fresh
	// report. When the coordinator cannot be read the session state is left
	// untouched and ErrStatusUnavailable is returned.
	Poll(ctx context.Context) (Report, error)

	// Report returns the report built by the last successful poll.
	Report(ctx context.Context) (Report, error)

	History(ctx context.Context, offset, limit uint64) (HistoryPage, error)

	Convergence(ctx context.Context) (ConvergenceSummary, error)

	Workers(ctx context.Context) (WorkerOverview, error)
}

// Publisher receives every report derived from an accepted sample.
type Publisher interface {
	Publish(ctx context.Context, r Report) error
}
