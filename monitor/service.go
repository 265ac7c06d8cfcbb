package monitor

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/absmach/fldash/pkg/sdk"
)

var _ Service = (*service)(nil)

type service struct {
	mu      sync.RWMutex
	client  sdk.SDK
	history *HistoryLog
	points  []ConvergencePoint
	latest  *Report

	publisher Publisher
	clock     func() time.Time
	logger    *slog.Logger
}

type Option func(*service)

// WithPublisher hands every report derived from an accepted sample to
// publisher.
func WithPublisher(publisher Publisher) Option {
	return func(svc *service) {
		svc.publisher = publisher
	}
}

func WithClock(clock func() time.Time) Option {
	return func(svc *service) {
		svc.clock = clock
	}
}

func NewService(client sdk.SDK, history *HistoryLog, logger *slog.Logger, opts ...Option) (Service, error) {
	if client == nil {
		return nil, errNilClient
	}
	if history == nil {
		history = NewHistoryLog(DefMinInterval)
	}
	if logger == nil {
		logger = slog.Default()
	}

	svc := &service{
		client:  client,
		history: history,
		clock:   time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

func (svc *service) Poll(ctx context.Context) (Report, error) {
	status, err := svc.client.Status(ctx)
	if err != nil {
		return Report{}, errors.Join(ErrStatusUnavailable, err)
	}

	now := svc.clock()

	svc.mu.Lock()
	accepted := svc.history.Accept(status, now)
	entries := svc.history.Entries()
	if accepted && len(entries) >= 2 {
		svc.points = append(svc.points, ConvergencePoint{
			Epoch: status.CurrentEpoch,
			Rate:  Rate(entries),
		})
	}
	report := buildReport(status, entries, slices.Clone(svc.points), now)
	svc.latest = &report
	svc.mu.Unlock()

	if accepted {
		svc.publish(ctx, report)
	}

	return report, nil
}

func (svc *service) Report(_ context.Context) (Report, error) {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	if svc.latest == nil {
		return Report{}, ErrNoReport
	}

	return *svc.latest, nil
}

func (svc *service) History(_ context.Context, offset, limit uint64) (HistoryPage, error) {
	svc.mu.RLock()
	entries := svc.history.Entries()
	svc.mu.RUnlock()

	total := uint64(len(entries))
	page := HistoryPage{
		Offset:  offset,
		Limit:   limit,
		Total:   total,
		Entries: []HistoryEntry{},
	}
	if offset >= total {
		return page, nil
	}

	end := offset + limit
	if limit == 0 || end > total {
		end = total
	}
	page.Entries = entries[offset:end]

	return page, nil
}

func (svc *service) Convergence(_ context.Context) (ConvergenceSummary, error) {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	return summarize(svc.history.Entries(), slices.Clone(svc.points)), nil
}

func (svc *service) Workers(ctx context.Context) (WorkerOverview, error) {
	r, err := svc.Report(ctx)
	if err != nil {
		return WorkerOverview{}, err
	}

	return r.WorkerOverview, nil
}

func (svc *service) publish(ctx context.Context, r Report) {
	if svc.publisher == nil {
		return
	}

	if err := svc.publisher.Publish(ctx, r); err != nil {
		svc.logger.WarnContext(ctx, "Failed to publish report",
			slog.Int("epoch", r.Epoch),
			slog.Any("error", err))
	}
}
