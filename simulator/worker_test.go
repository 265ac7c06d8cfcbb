package simulator_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/absmach/fldash/pkg/fl"
	"github.com/absmach/fldash/pkg/sdk"
	sdkmocks "github.com/absmach/fldash/pkg/sdk/mocks"
	"github.com/absmach/fldash/pkg/testutil"
	"github.com/absmach/fldash/simulator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCoordinator(t *testing.T) (*testutil.Coordinator, sdk.SDK) {
	t.Helper()

	coord := testutil.NewCoordinator(nil)
	ts := httptest.NewServer(coord.Handler())
	t.Cleanup(ts.Close)

	return coord, sdk.NewSDK(sdk.Config{CoordinatorURL: ts.URL})
}

func seeded() simulator.Option {
	return simulator.WithRand(rand.New(rand.NewPCG(1, 2)))
}

func TestTrainStepSequence(t *testing.T) {
	t.Parallel()

	coord, client := newCoordinator(t)
	ctx := context.Background()

	w, err := simulator.NewWorker("w1", 100, client, nil, seeded())
	require.NoError(t, err)

	ack, err := w.Register(ctx)
	require.NoError(t, err)
	assert.True(t, ack.OK())
	assert.Equal(t, simulator.Registered, w.State())
	assert.Equal(t, []fl.RegisterRequest{{WorkerID: "w1", DataSize: 100}}, coord.Registrations())

	want := []float64{8.0, 6.4, 5.12}
	for i, loss := range want {
		res, err := w.TrainStep(ctx)
		require.NoError(t, err)
		assert.InDelta(t, loss, res.Loss, 1e-9, "step %d", i)
		assert.Len(t, res.Parameters, 3)
		assert.Equal(t, fl.AckSuccess, res.Ack.Status)
	}

	updates := coord.Updates()
	require.Len(t, updates, 3)
	for i, u := range updates {
		assert.Equal(t, "w1", u.WorkerID)
		assert.InDelta(t, want[i], u.Loss, 1e-9)
		assert.Len(t, u.Parameters, 3)
	}
	assert.Equal(t, 3, coord.Status().CurrentEpoch)
}

func TestTrainStepBeforeRegister(t *testing.T) {
	t.Parallel()

	client := new(sdkmocks.SDK)
	w, err := simulator.NewWorker("w1", 10, client, nil)
	require.NoError(t, err)

	_, err = w.TrainStep(context.Background())
	assert.ErrorIs(t, err, simulator.ErrNotRegistered)
	assert.Equal(t, simulator.DefInitialLoss, w.CurrentLoss())
	client.AssertNotCalled(t, "SubmitUpdate", mock.Anything, mock.Anything)
}

func TestTrainStepMalformedReply(t *testing.T) {
	t.Parallel()

	coord, client := newCoordinator(t)
	ctx := context.Background()

	w, err := simulator.NewWorker("w1", 100, client, nil, seeded())
	require.NoError(t, err)
	_, err = w.Register(ctx)
	require.NoError(t, err)

	coord.ReplyWith("/submit_update", "Internal hiccup")
	res, err := w.TrainStep(ctx)
	require.NoError(t, err)
	assert.Equal(t, fl.AckError, res.Ack.Status)
	assert.Contains(t, res.Ack.Message, "Internal hiccup")
	assert.InDelta(t, 8.0, res.Loss, 1e-9)

	// The next step proceeds normally.
	coord.ReplyWith("/submit_update", "")
	res, err = w.TrainStep(ctx)
	require.NoError(t, err)
	assert.True(t, res.Ack.OK())
	assert.InDelta(t, 6.4, res.Loss, 1e-9)
}

func TestTrainStepUnreachable(t *testing.T) {
	t.Parallel()

	client := new(sdkmocks.SDK)
	client.On("RegisterWorker", mock.Anything, mock.Anything).Return(fl.Ack{Status: fl.AckSuccess}, nil)
	client.On("SubmitUpdate", mock.Anything, mock.Anything).Return(fl.Ack{}, errors.New("dial tcp: connection refused"))

	w, err := simulator.NewWorker("w1", 10, client, nil, simulator.WithDecay(0.5), simulator.WithInitialLoss(4))
	require.NoError(t, err)
	_, err = w.Register(context.Background())
	require.NoError(t, err)

	res, err := w.TrainStep(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Ack.OK())
	assert.Contains(t, res.Ack.Message, "connection refused")
	assert.InDelta(t, 2.0, res.Loss, 1e-9)
}

func TestRegister(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc    string
		ack     fl.Ack
		err     error
		state   simulator.State
		wantErr bool
	}{
		{
			desc:  "accepted",
			ack:   fl.Ack{Status: fl.AckSuccess, Message: "Worker w1 registered"},
			state: simulator.Registered,
		},
		{
			desc:  "ack without status",
			ack:   fl.Ack{Message: "ok"},
			state: simulator.Registered,
		},
		{
			desc:  "rejected",
			ack:   fl.Ack{Status: fl.AckError, Message: "full"},
			state: simulator.Unregistered,
		},
		{
			desc:    "transport failure",
			err:     errors.New("timeout"),
			state:   simulator.Unregistered,
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			client := new(sdkmocks.SDK)
			client.On("RegisterWorker", mock.Anything, fl.RegisterRequest{WorkerID: "w1", DataSize: 50}).Return(tc.ack, tc.err)

			w, err := simulator.NewWorker("w1", 50, client, nil)
			require.NoError(t, err)

			ack, err := w.Register(context.Background())
			if tc.wantErr {
				assert.Error(t, err)
				assert.Equal(t, fl.AckError, ack.Status)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.ack, ack)
			}
			assert.Equal(t, tc.state, w.State())
		})
	}
}

func TestRegisterMalformedReply(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>registered</html>"))
	}))
	defer ts.Close()

	w, err := simulator.NewWorker("w1", 50, sdk.NewSDK(sdk.Config{CoordinatorURL: ts.URL}), nil)
	require.NoError(t, err)

	ack, err := w.Register(context.Background())
	assert.Error(t, err)
	assert.False(t, ack.OK())
	assert.Equal(t, simulator.Unregistered, w.State())
}

func TestRegisterAcceptsAnyJSONReply(t *testing.T) {
	t.Parallel()

	for _, body := range []string{`"registered"`, `{"status": 1}`, `[]`, `true`} {
		t.Run(body, func(t *testing.T) {
			t.Parallel()

			coord, client := newCoordinator(t)
			coord.ReplyWith("/register_worker", body)

			w, err := simulator.NewWorker("w1", 50, client, nil)
			require.NoError(t, err)

			ack, err := w.Register(context.Background())
			require.NoError(t, err)
			assert.True(t, ack.OK())
			assert.Equal(t, simulator.Registered, w.State())

			res, err := w.TrainStep(context.Background())
			require.NoError(t, err)
			assert.True(t, res.Ack.OK())
		})
	}
}

func TestNewWorkerRequiresID(t *testing.T) {
	t.Parallel()

	_, err := simulator.NewWorker("", 1, new(sdkmocks.SDK), nil)
	assert.Error(t, err)
}

func TestParametersAreDeterministicForSeed(t *testing.T) {
	t.Parallel()

	_, client1 := newCoordinator(t)
	_, client2 := newCoordinator(t)
	ctx := context.Background()

	w1, err := simulator.NewWorker("a", 1, client1, nil, seeded())
	require.NoError(t, err)
	w2, err := simulator.NewWorker("a", 1, client2, nil, seeded())
	require.NoError(t, err)

	_, err = w1.Register(ctx)
	require.NoError(t, err)
	_, err = w2.Register(ctx)
	require.NoError(t, err)

	r1, err := w1.TrainStep(ctx)
	require.NoError(t, err)
	r2, err := w2.TrainStep(ctx)
	require.NoError(t, err)
	assert.Equal(t, r1.Parameters, r2.Parameters)
}
