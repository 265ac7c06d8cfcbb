// Package simulator drives synthetic training workers against a coordinator
// using the same register and submit calls a real worker makes.
package simulator

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/absmach/fldash/pkg/fl"
)

const (
	DefDecay       = 0.8
	DefInitialLoss = 10.0
)

var (
	ErrNotRegistered = errors.New("worker is not registered")
	errEmptyID       = errors.New("worker ID is empty")
)

type State uint8

const (
	Unregistered State = iota
	Registered
)

func (s State) String() string {
	switch s {
	case Registered:
		return "registered"
	default:
		return "unregistered"
	}
}

// Coordinator is the worker side of the coordinator contract.
type Coordinator interface {
	RegisterWorker(ctx context.Context, req fl.RegisterRequest) (fl.Ack, error)
	SubmitUpdate(ctx context.Context, req fl.UpdateRequest) (fl.Ack, error)
}

type StepResult struct {
	WorkerID   string    `json:"worker_id"`
	Loss       float64   `json:"loss"`
	Parameters []float64 `json:"parameters"`
	Ack        fl.Ack    `json:"ack"`
}

// Worker owns one synthetic model. It is not safe for concurrent use.
type Worker struct {
	id          string
	dataSize    int
	currentLoss float64
	decay       float64
	state       State

	client Coordinator
	rng    *rand.Rand
	logger *slog.Logger
}

type Option func(*Worker)

func WithDecay(decay float64) Option {
	return func(w *Worker) {
		w.decay = decay
	}
}

func WithInitialLoss(loss float64) Option {
	return func(w *Worker) {
		w.currentLoss = loss
	}
}

// WithRand sets the source for sampled parameters.
func WithRand(rng *rand.Rand) Option {
	return func(w *Worker) {
		w.rng = rng
	}
}

func NewWorker(id string, dataSize int, client Coordinator, logger *slog.Logger, opts ...Option) (*Worker, error) {
	if id == "" {
		return nil, errEmptyID
	}
	if logger == nil {
		logger = slog.Default()
	}

	w := &Worker{
		id:          id,
		dataSize:    dataSize,
		currentLoss: DefInitialLoss,
		decay:       DefDecay,
		client:      client,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.rng == nil {
		seed := uint64(time.Now().UnixNano())
		w.rng = rand.New(rand.NewPCG(seed, seed>>1))
	}

	return w, nil
}

func (w *Worker) ID() string {
	return w.id
}

func (w *Worker) DataSize() int {
	return w.dataSize
}

func (w *Worker) CurrentLoss() float64 {
	return w.currentLoss
}

func (w *Worker) State() State {
	return w.state
}

// Register announces the worker and its data size. The worker becomes
// Registered once the coordinator replies with a non-error acknowledgement.
func (w *Worker) Register(ctx context.Context) (fl.Ack, error) {
	ack, err := w.client.RegisterWorker(ctx, fl.RegisterRequest{
		WorkerID: w.id,
		DataSize: w.dataSize,
	})
	if err != nil {
		w.logger.WarnContext(ctx, "Failed to register worker",
			slog.String("worker_id", w.id),
			slog.Any("error", err))

		return fl.ErrorAck(err), err
	}
	if !ack.OK() {
		w.logger.WarnContext(ctx, "Coordinator rejected worker registration",
			slog.String("worker_id", w.id),
			slog.String("message", ack.Message))

		return ack, nil
	}

	w.state = Registered
	w.logger.InfoContext(ctx, "Registered worker",
		slog.String("worker_id", w.id),
		slog.Int("data_size", w.dataSize))

	return ack, nil
}

// TrainStep decays the loss, samples fresh parameters and submits both. Any
// failure to deliver the update or read the reply is reported in the Ack of
// the result rather than as an error.
func (w *Worker) TrainStep(ctx context.Context) (StepResult, error) {
	if w.state != Registered {
		return StepResult{}, ErrNotRegistered
	}

	w.currentLoss *= w.decay
	params := w.sampleParameters().Flatten()

	res := StepResult{
		WorkerID:   w.id,
		Loss:       w.currentLoss,
		Parameters: params,
	}

	ack, err := w.client.SubmitUpdate(ctx, fl.UpdateRequest{
		WorkerID:   w.id,
		Loss:       w.currentLoss,
		Parameters: params,
	})
	if err != nil {
		w.logger.WarnContext(ctx, "Failed to submit update",
			slog.String("worker_id", w.id),
			slog.Float64("loss", w.currentLoss),
			slog.Any("error", err))
		res.Ack = fl.ErrorAck(err)

		return res, nil
	}
	res.Ack = ack

	return res, nil
}

// sampleParameters draws a 2x1 weight matrix and a single bias from N(0, 1).
func (w *Worker) sampleParameters() fl.Parameters {
	return fl.Parameters{
		Weights: [][]float64{
			{w.rng.NormFloat64()},
			{w.rng.NormFloat64()},
		},
		Bias: []float64{w.rng.NormFloat64()},
	}
}
