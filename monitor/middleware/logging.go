package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/absmach/fldash/monitor"
)

var _ monitor.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    monitor.Service
}

func Logging(logger *slog.Logger, svc monitor.Service) monitor.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

// Poll runs on every refresh, so success is logged at debug level.
func (lm *loggingMiddleware) Poll(ctx context.Context) (resp monitor.Report, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Poll coordinator status failed", args...)

			return
		}
		args = append(args,
			slog.Group("report",
				slog.Int("epoch", resp.Epoch),
				slog.Int("active_workers", resp.ActiveWorkers),
				slog.Int("history_len", resp.HistoryLen),
				slog.String("stability", string(resp.Convergence.Stability)),
			),
		)
		lm.logger.Debug("Poll coordinator status completed successfully", args...)
	}(time.Now())

	return lm.svc.Poll(ctx)
}

func (lm *loggingMiddleware) Report(ctx context.Context) (resp monitor.Report, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get report failed", args...)

			return
		}
		args = append(args, slog.Int("epoch", resp.Epoch))
		lm.logger.Info("Get report completed successfully", args...)
	}(time.Now())

	return lm.svc.Report(ctx)
}

func (lm *loggingMiddleware) History(ctx context.Context, offset, limit uint64) (resp monitor.HistoryPage, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Uint64("offset", offset),
			slog.Uint64("limit", limit),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List history failed", args...)

			return
		}
		args = append(args, slog.Uint64("total", resp.Total))
		lm.logger.Info("List history completed successfully", args...)
	}(time.Now())

	return lm.svc.History(ctx, offset, limit)
}

func (lm *loggingMiddleware) Convergence(ctx context.Context) (resp monitor.ConvergenceSummary, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get convergence failed", args...)

			return
		}
		args = append(args,
			slog.Float64("rate", resp.Rate),
			slog.String("stability", string(resp.Stability)),
		)
		lm.logger.Info("Get convergence completed successfully", args...)
	}(time.Now())

	return lm.svc.Convergence(ctx)
}

func (lm *loggingMiddleware) Workers(ctx context.Context) (resp monitor.WorkerOverview, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get workers failed", args...)

			return
		}
		args = append(args, slog.Int("count", len(resp.Workers)))
		if resp.Comparison.Best != nil {
			args = append(args, slog.String("best", resp.Comparison.Best.WorkerID))
		}
		lm.logger.Info("Get workers completed successfully", args...)
	}(time.Now())

	return lm.svc.Workers(ctx)
}
