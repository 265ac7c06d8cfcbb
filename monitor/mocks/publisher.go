package mocks

import (
	"context"

	"github.com/absmach/fldash/monitor"
	"github.com/stretchr/testify/mock"
)

var _ monitor.Publisher = (*Publisher)(nil)

type Publisher struct {
	mock.Mock
}

func (m *Publisher) Publish(ctx context.Context, r monitor.Report) error {
	args := m.Called(ctx, r)

	return args.Error(0)
}
