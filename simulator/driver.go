package simulator

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

const (
	DefRounds    = 10
	DefStepDelay = time.Second
)

var ErrNoWorkers = errors.New("no registered workers")

// Driver registers its workers and then steps them one after another for a
// fixed number of rounds.
type Driver struct {
	workers []*Worker
	rounds  int
	delay   time.Duration
	logger  *slog.Logger
}

func NewDriver(workers []*Worker, rounds int, delay time.Duration, logger *slog.Logger) *Driver {
	if rounds <= 0 {
		rounds = DefRounds
	}
	if delay < 0 {
		delay = 0
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Driver{
		workers: workers,
		rounds:  rounds,
		delay:   delay,
		logger:  logger,
	}
}

// Run returns every step result in submission order. Workers that fail to
// register are left out. It stops early, without error, when ctx is done.
func (d *Driver) Run(ctx context.Context) ([]StepResult, error) {
	var active []*Worker
	for _, w := range d.workers {
		if _, err := w.Register(ctx); err != nil || w.State() != Registered {
			d.logger.WarnContext(ctx, "Skipping worker", slog.String("worker_id", w.ID()))

			continue
		}
		active = append(active, w)
	}
	if len(active) == 0 {
		return nil, ErrNoWorkers
	}

	results := make([]StepResult, 0, d.rounds*len(active))
	for round := range d.rounds {
		d.logger.InfoContext(ctx, "Starting round", slog.Int("round", round), slog.Int("workers", len(active)))

		for _, w := range active {
			res, err := w.TrainStep(ctx)
			if err != nil {
				return results, err
			}
			results = append(results, res)

			args := []any{
				slog.Int("round", round),
				slog.String("worker_id", res.WorkerID),
				slog.Float64("loss", res.Loss),
				slog.String("status", res.Ack.Status),
			}
			if res.Ack.Message != "" {
				args = append(args, slog.String("message", res.Ack.Message))
			}
			d.logger.InfoContext(ctx, "Submitted update", args...)

			if !sleep(ctx, d.delay) {
				return results, nil
			}
		}
	}

	return results, nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d == 0 {
		return ctx.Err() == nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
