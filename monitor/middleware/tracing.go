package middleware

import (
	"context"

	"github.com/absmach/fldash/monitor"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ monitor.Service = (*tracing)(nil)

type tracing struct {
	tracer trace.Tracer
	svc    monitor.Service
}

func Tracing(tracer trace.Tracer, svc monitor.Service) monitor.Service {
	return &tracing{tracer, svc}
}

func (tm *tracing) Poll(ctx context.Context) (resp monitor.Report, err error) {
	ctx, span := tm.tracer.Start(ctx, "poll")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(
				attribute.Int("epoch", resp.Epoch),
				attribute.Int("active_workers", resp.ActiveWorkers),
				attribute.Int("history_len", resp.HistoryLen),
			)
		}
		span.End()
	}()

	return tm.svc.Poll(ctx)
}

func (tm *tracing) Report(ctx context.Context) (monitor.Report, error) {
	ctx, span := tm.tracer.Start(ctx, "get-report")
	defer span.End()

	return tm.svc.Report(ctx)
}

func (tm *tracing) History(ctx context.Context, offset, limit uint64) (monitor.HistoryPage, error) {
	ctx, span := tm.tracer.Start(ctx, "list-history", trace.WithAttributes(
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer span.End()

	return tm.svc.History(ctx, offset, limit)
}

func (tm *tracing) Convergence(ctx context.Context) (monitor.ConvergenceSummary, error) {
	ctx, span := tm.tracer.Start(ctx, "get-convergence")
	defer span.End()

	return tm.svc.Convergence(ctx)
}

func (tm *tracing) Workers(ctx context.Context) (monitor.WorkerOverview, error) {
	ctx, span := tm.tracer.Start(ctx, "get-workers")
	defer span.End()

	return tm.svc.Workers(ctx)
}
