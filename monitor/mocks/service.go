package mocks

import (
	"context"

	"github.com/absmach/fldash/monitor"
	"github.com/stretchr/testify/mock"
)

var _ monitor.Service = (*Service)(nil)

// Service is a mock implementation of the monitor.Service interface.
type Service struct {
	mock.Mock
}

func (m *Service) Poll(ctx context.Context) (monitor.Report, error) {
	args := m.Called(ctx)

	return args.Get(0).(monitor.Report), args.Error(1)
}

func (m *Service) Report(ctx context.Context) (monitor.Report, error) {
	args := m.Called(ctx)

	return args.Get(0).(monitor.Report), args.Error(1)
}

func (m *Service) History(ctx context.Context, offset, limit uint64) (monitor.HistoryPage, error) {
	args := m.Called(ctx, offset, limit)

	return args.Get(0).(monitor.HistoryPage), args.Error(1)
}

func (m *Service) Convergence(ctx context.Context) (monitor.ConvergenceSummary, error) {
	args := m.Called(ctx)

	return args.Get(0).(monitor.ConvergenceSummary), args.Error(1)
}

func (m *Service) Workers(ctx context.Context) (monitor.WorkerOverview, error) {
	args := m.Called(ctx)

	return args.Get(0).(monitor.WorkerOverview), args.Error(1)
}
