package mocks

import (
	"context"

	"github.com/absmach/fldash/pkg/fl"
	"github.com/absmach/fldash/pkg/sdk"
	"github.com/stretchr/testify/mock"
)

var _ sdk.SDK = (*SDK)(nil)

type SDK struct {
	mock.Mock
}

func (m *SDK) Status(ctx context.Context) (fl.Status, error) {
	args := m.Called(ctx)

	return args.Get(0).(fl.Status), args.Error(1)
}

func (m *SDK) RegisterWorker(ctx context.Context, req fl.RegisterRequest) (fl.Ack, error) {
	args := m.Called(ctx, req)

	return args.Get(0).(fl.Ack), args.Error(1)
}

func (m *SDK) SubmitUpdate(ctx context.Context, req fl.UpdateRequest) (fl.Ack, error) {
	args := m.Called(ctx, req)

	return args.Get(0).(fl.Ack), args.Error(1)
}
