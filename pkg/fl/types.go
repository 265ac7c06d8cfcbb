package fl

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

const (
	AckSuccess = "success"
	AckError   = "error"
)

// Status is one snapshot of the coordinator's training state as served by
// GET /status.
type Status struct {
	CurrentEpoch  int            `json:"current_epoch"`
	GlobalLoss    *float64       `json:"global_loss"`
	ActiveWorkers []string       `json:"active_workers"`
	WorkerLosses  WorkerLosses   `json:"worker_losses"`
	WorkerSamples map[string]int `json:"worker_samples,omitempty"`
}

type WorkerLoss struct {
	WorkerID string  `json:"worker"`
	Loss     float64 `json:"loss"`
}

// WorkerLosses is the worker_losses object kept in the order its keys appear
// on the wire.
type WorkerLosses []WorkerLoss

func (wl WorkerLosses) Get(workerID string) (float64, bool) {
	for _, l := range wl {
		if l.WorkerID == workerID {
			return l.Loss, true
		}
	}

	return 0, false
}

func (wl *WorkerLosses) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("%w: invalid JSON", ErrInvalidWorkerLosses)
	}

	res := gjson.ParseBytes(data)
	if res.Type == gjson.Null {
		*wl = nil

		return nil
	}
	if !res.IsObject() {
		return fmt.Errorf("%w: expected object, got %s", ErrInvalidWorkerLosses, res.Type)
	}

	losses := WorkerLosses{}
	index := make(map[string]int)
	var err error
	res.ForEach(func(key, value gjson.Result) bool {
		if value.Type != gjson.Number {
			err = fmt.Errorf("%w: loss of %q is not a number", ErrInvalidWorkerLosses, key.String())

			return false
		}
		id := key.String()
		if i, ok := index[id]; ok {
			losses[i].Loss = value.Float()

			return true
		}
		index[id] = len(losses)
		losses = append(losses, WorkerLoss{WorkerID: id, Loss: value.Float()})

		return true
	})
	if err != nil {
		return err
	}
	*wl = losses

	return nil
}

func (wl WorkerLosses) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, l := range wl {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(l.WorkerID)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(l.Loss)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

type RegisterRequest struct {
	WorkerID string `json:"worker_id"`
	DataSize int    `json:"data_size"`
}

type UpdateRequest struct {
	WorkerID   string    `json:"worker_id"`
	Loss       float64   `json:"loss"`
	Parameters []float64 `json:"parameters"`
}

// Ack is the coordinator's reply to registration and update submission.
type Ack struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func ErrorAck(err error) Ack {
	return Ack{Status: AckError, Message: err.Error()}
}

func (a Ack) OK() bool {
	return a.Status != AckError
}

// Parameters is a single-output linear model: Weights is outputs x inputs.
type Parameters struct {
	Weights [][]float64 `json:"weights"`
	Bias    []float64   `json:"bias"`
}

// Flatten returns the weights in row-major order followed by the bias.
func (p Parameters) Flatten() []float64 {
	n := len(p.Bias)
	for _, row := range p.Weights {
		n += len(row)
	}

	flat := make([]float64, 0, n)
	for _, row := range p.Weights {
		flat = append(flat, row...)
	}

	return append(flat, p.Bias...)
}
