package middleware

import (
	"context"
	"math"
	"time"

	"github.com/absmach/fldash/monitor"
	"github.com/go-kit/kit/metrics"
)

var _ monitor.Service = (*metricsMiddleware)(nil)

// Gauges mirror the most recent report. GlobalLoss reads NaN while the
// coordinator has not reported one.
type Gauges struct {
	Epoch         metrics.Gauge
	GlobalLoss    metrics.Gauge
	Rate          metrics.Gauge
	ActiveWorkers metrics.Gauge
	HistoryLen    metrics.Gauge
}

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	gauges  Gauges
	svc     monitor.Service
}

func Metrics(counter metrics.Counter, latency metrics.Histogram, gauges Gauges, svc monitor.Service) monitor.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		gauges:  gauges,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) Poll(ctx context.Context) (monitor.Report, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "poll").Add(1)
		mm.latency.With("method", "poll").Observe(time.Since(begin).Seconds())
	}(time.Now())

	r, err := mm.svc.Poll(ctx)
	if err != nil {
		return r, err
	}
	mm.observe(r)

	return r, nil
}

func (mm *metricsMiddleware) Report(ctx context.Context) (monitor.Report, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-report").Add(1)
		mm.latency.With("method", "get-report").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Report(ctx)
}

func (mm *metricsMiddleware) History(ctx context.Context, offset, limit uint64) (monitor.HistoryPage, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "list-history").Add(1)
		mm.latency.With("method", "list-history").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.History(ctx, offset, limit)
}

func (mm *metricsMiddleware) Convergence(ctx context.Context) (monitor.ConvergenceSummary, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-convergence").Add(1)
		mm.latency.With("method", "get-convergence").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Convergence(ctx)
}

func (mm *metricsMiddleware) Workers(ctx context.Context) (monitor.WorkerOverview, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-workers").Add(1)
		mm.latency.With("method", "get-workers").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Workers(ctx)
}

func (mm *metricsMiddleware) observe(r monitor.Report) {
	set := func(g metrics.Gauge, v float64) {
		if g != nil {
			g.Set(v)
		}
	}

	set(mm.gauges.Epoch, float64(r.Epoch))
	set(mm.gauges.ActiveWorkers, float64(r.ActiveWorkers))
	set(mm.gauges.HistoryLen, float64(r.HistoryLen))
	set(mm.gauges.Rate, r.Convergence.Rate)
	if r.GlobalLoss != nil {
		set(mm.gauges.GlobalLoss, *r.GlobalLoss)
	} else {
		set(mm.gauges.GlobalLoss, math.NaN())
	}
}
