package simulator_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/absmach/fldash/pkg/fl"
	sdkmocks "github.com/absmach/fldash/pkg/sdk/mocks"
	"github.com/absmach/fldash/simulator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDriverRun(t *testing.T) {
	t.Parallel()

	coord, client := newCoordinator(t)

	var workers []*simulator.Worker
	for _, spec := range []simulator.WorkerSpec{{ID: "worker1", DataSize: 100}, {ID: "worker2", DataSize: 150}} {
		w, err := simulator.NewWorker(spec.ID, spec.DataSize, client, nil, seeded())
		require.NoError(t, err)
		workers = append(workers, w)
	}

	results, err := simulator.NewDriver(workers, 3, 0, nil).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 6)

	assert.Equal(t, "worker1", results[0].WorkerID)
	assert.Equal(t, "worker2", results[1].WorkerID)
	assert.InDelta(t, 5.12, results[4].Loss, 1e-9)
	for _, r := range results {
		assert.True(t, r.Ack.OK())
	}

	status := coord.Status()
	assert.Equal(t, 3, status.CurrentEpoch)
	assert.Equal(t, []string{"worker1", "worker2"}, status.ActiveWorkers)
	require.NotNil(t, status.GlobalLoss)
	assert.InDelta(t, 5.12, *status.GlobalLoss, 1e-9)
}

func TestDriverSkipsFailedRegistration(t *testing.T) {
	t.Parallel()

	client := new(sdkmocks.SDK)
	client.On("RegisterWorker", mock.Anything, fl.RegisterRequest{WorkerID: "bad", DataSize: 1}).Return(fl.Ack{}, errors.New("refused"))
	client.On("RegisterWorker", mock.Anything, fl.RegisterRequest{WorkerID: "good", DataSize: 1}).Return(fl.Ack{Status: fl.AckSuccess}, nil)
	client.On("SubmitUpdate", mock.Anything, mock.MatchedBy(func(req fl.UpdateRequest) bool {
		return req.WorkerID == "good"
	})).Return(fl.Ack{Status: fl.AckSuccess}, nil)

	bad, err := simulator.NewWorker("bad", 1, client, nil)
	require.NoError(t, err)
	good, err := simulator.NewWorker("good", 1, client, nil)
	require.NoError(t, err)

	results, err := simulator.NewDriver([]*simulator.Worker{bad, good}, 2, 0, nil).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, "good", r.WorkerID)
	}
	client.AssertNumberOfCalls(t, "SubmitUpdate", 2)
}

func TestDriverNoWorkers(t *testing.T) {
	t.Parallel()

	client := new(sdkmocks.SDK)
	client.On("RegisterWorker", mock.Anything, mock.Anything).Return(fl.Ack{Status: fl.AckError}, nil)

	w, err := simulator.NewWorker("w", 1, client, nil)
	require.NoError(t, err)

	_, err = simulator.NewDriver([]*simulator.Worker{w}, 1, 0, nil).Run(context.Background())
	assert.ErrorIs(t, err, simulator.ErrNoWorkers)

	_, err = simulator.NewDriver(nil, 1, 0, nil).Run(context.Background())
	assert.ErrorIs(t, err, simulator.ErrNoWorkers)
}

func TestDriverStopsOnCancel(t *testing.T) {
	t.Parallel()

	client := new(sdkmocks.SDK)
	client.On("RegisterWorker", mock.Anything, mock.Anything).Return(fl.Ack{Status: fl.AckSuccess}, nil)
	client.On("SubmitUpdate", mock.Anything, mock.Anything).Return(fl.Ack{Status: fl.AckSuccess}, nil)

	w, err := simulator.NewWorker("w", 1, client, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	results, err := simulator.NewDriver([]*simulator.Worker{w}, 100, time.Hour, nil).Run(ctx)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}
