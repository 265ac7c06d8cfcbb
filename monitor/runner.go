package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	pkgerrors "github.com/absmach/fldash/pkg/errors"
)

const (
	MinRefreshInterval = 1 * time.Second
	MaxRefreshInterval = 10 * time.Second
	DefRefreshInterval = 2 * time.Second
)

// Runner drives a Service at a fixed refresh interval. There is a single
// poller per Service.
type Runner struct {
	svc      Service
	interval time.Duration
	onReport func(Report)
	logger   *slog.Logger
}

func NewRunner(svc Service, interval time.Duration, logger *slog.Logger) (*Runner, error) {
	if interval < MinRefreshInterval || interval > MaxRefreshInterval {
		return nil, fmt.Errorf("%w: refresh interval %s outside [%s, %s]",
			pkgerrors.ErrValidation, interval, MinRefreshInterval, MaxRefreshInterval)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		svc:      svc,
		interval: interval,
		logger:   logger,
	}, nil
}

// OnReport registers a callback run after every successful poll.
func (r *Runner) OnReport(fn func(Report)) {
	r.onReport = fn
}

// Run polls once immediately and then every interval until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	report, err := r.svc.Poll(ctx)
	if err != nil {
		r.logger.WarnContext(ctx, "Skipping refresh cycle", slog.Any("error", err))

		return
	}

	r.logger.DebugContext(ctx, "Refreshed training report",
		slog.Int("epoch", report.Epoch),
		slog.Int("history_len", report.HistoryLen),
		slog.String("stability", string(report.Convergence.Stability)))

	if r.onReport != nil {
		r.onReport(report)
	}
}
