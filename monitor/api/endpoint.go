package api

import (
	"context"
	"errors"

	"github.com/absmach/fldash/monitor"
	pkgerrors "github.com/absmach/fldash/pkg/errors"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-kit/kit/endpoint"
)

func reportEndpoint(svc monitor.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		r, err := svc.Report(ctx)
		if err != nil {
			return reportRes{}, err
		}

		return reportRes{Report: r}, nil
	}
}

func historyEndpoint(svc monitor.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(historyReq)
		if !ok {
			return historyRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return historyRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		page, err := svc.History(ctx, req.offset, req.limit)
		if err != nil {
			return historyRes{}, err
		}

		return historyRes{HistoryPage: page}, nil
	}
}

func convergenceEndpoint(svc monitor.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		cs, err := svc.Convergence(ctx)
		if err != nil {
			return convergenceRes{}, err
		}

		return convergenceRes{ConvergenceSummary: cs}, nil
	}
}

func workersEndpoint(svc monitor.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		wo, err := svc.Workers(ctx)
		if err != nil {
			return workersRes{}, err
		}

		return workersRes{WorkerOverview: wo}, nil
	}
}
