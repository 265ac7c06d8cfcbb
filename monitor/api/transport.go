package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/absmach/fldash/monitor"
	"github.com/absmach/fldash/pkg/api"
	"github.com/absmach/supermq"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// MakeHandler serves the read-only dashboard feed.
func MakeHandler(svc monitor.Service, logger *slog.Logger, instanceID string) http.Handler {
	mux := chi.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(apiutil.LoggingErrorEncoder(logger, api.EncodeError)),
	}

	mux.Get("/report", otelhttp.NewHandler(kithttp.NewServer(
		reportEndpoint(svc),
		decodeEmptyReq,
		api.EncodeResponse,
		opts...,
	), "get-report").ServeHTTP)

	mux.Get("/history", otelhttp.NewHandler(kithttp.NewServer(
		historyEndpoint(svc),
		decodeHistoryReq,
		api.EncodeResponse,
		opts...,
	), "list-history").ServeHTTP)

	mux.Get("/convergence", otelhttp.NewHandler(kithttp.NewServer(
		convergenceEndpoint(svc),
		decodeEmptyReq,
		api.EncodeResponse,
		opts...,
	), "get-convergence").ServeHTTP)

	mux.Get("/workers", otelhttp.NewHandler(kithttp.NewServer(
		workersEndpoint(svc),
		decodeEmptyReq,
		api.EncodeResponse,
		opts...,
	), "get-workers").ServeHTTP)

	mux.Get("/health", supermq.Health("dashboard", instanceID))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func decodeEmptyReq(_ context.Context, _ *http.Request) (any, error) {
	return struct{}{}, nil
}

func decodeHistoryReq(_ context.Context, r *http.Request) (any, error) {
	o, err := apiutil.ReadNumQuery[uint64](r, api.OffsetKey, api.DefOffset)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	l, err := apiutil.ReadNumQuery[uint64](r, api.LimitKey, api.DefLimit)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	return historyReq{
		offset: o,
		limit:  l,
	}, nil
}
