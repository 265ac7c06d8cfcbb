// Package testutil provides an in-process training coordinator that speaks the
// /status, /register_worker and /submit_update contract.
package testutil

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/absmach/fldash/pkg/fl"
	"github.com/gorilla/mux"
)

// Coordinator advances the epoch once every registered worker has submitted
// an update for it and reports the mean worker loss as the global loss.
type Coordinator struct {
	mu sync.Mutex

	epoch         int
	workers       []string
	dataSizes     map[string]int
	losses        fl.WorkerLosses
	globalLoss    *float64
	pending       map[string]struct{}
	registrations []fl.RegisterRequest
	updates       []fl.UpdateRequest
	rawReplies    map[string]string
	logger        *slog.Logger
}

func NewCoordinator(logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Coordinator{
		dataSizes:  make(map[string]int),
		pending:    make(map[string]struct{}),
		rawReplies: make(map[string]string),
		logger:     logger,
	}
}

func (c *Coordinator) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/status", c.statusHandler).Methods(http.MethodGet)
	r.HandleFunc("/register_worker", c.registerHandler).Methods(http.MethodPost)
	r.HandleFunc("/submit_update", c.submitHandler).Methods(http.MethodPost)

	return r
}

// ReplyWith makes the handler at path answer with body verbatim instead of a
// JSON acknowledgement. An empty body restores the normal reply.
func (c *Coordinator) ReplyWith(path, body string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if body == "" {
		delete(c.rawReplies, path)

		return
	}
	c.rawReplies[path] = body
}

func (c *Coordinator) Status() fl.Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.statusLocked()
}

func (c *Coordinator) Registrations() []fl.RegisterRequest {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]fl.RegisterRequest(nil), c.registrations...)
}

func (c *Coordinator) Updates() []fl.UpdateRequest {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]fl.UpdateRequest(nil), c.updates...)
}

func (c *Coordinator) statusLocked() fl.Status {
	samples := make(map[string]int)
	for _, l := range c.losses {
		samples[l.WorkerID] = c.dataSizes[l.WorkerID]
	}

	s := fl.Status{
		CurrentEpoch:  c.epoch,
		ActiveWorkers: append([]string{}, c.workers...),
		WorkerLosses:  append(fl.WorkerLosses{}, c.losses...),
		WorkerSamples: samples,
	}
	if c.globalLoss != nil {
		gl := *c.globalLoss
		s.GlobalLoss = &gl
	}

	return s
}

func (c *Coordinator) statusHandler(w http.ResponseWriter, _ *http.Request) {
	c.mu.Lock()
	s := c.statusLocked()
	c.mu.Unlock()

	writeJSON(w, s)
}

func (c *Coordinator) registerHandler(w http.ResponseWriter, r *http.Request) {
	var req fl.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)

		return
	}

	c.mu.Lock()
	if _, ok := c.dataSizes[req.WorkerID]; !ok {
		c.workers = append(c.workers, req.WorkerID)
	}
	c.dataSizes[req.WorkerID] = req.DataSize
	c.registrations = append(c.registrations, req)
	raw, hasRaw := c.rawReplies["/register_worker"]
	c.mu.Unlock()

	c.logger.Info("Registered worker", slog.String("worker_id", req.WorkerID), slog.Int("data_size", req.DataSize))

	if hasRaw {
		_, _ = w.Write([]byte(raw))

		return
	}
	writeJSON(w, fl.Ack{Status: fl.AckSuccess, Message: fmt.Sprintf("Worker %s registered", req.WorkerID)})
}

func (c *Coordinator) submitHandler(w http.ResponseWriter, r *http.Request) {
	var req fl.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)

		return
	}

	c.mu.Lock()
	c.updates = append(c.updates, req)
	raw, hasRaw := c.rawReplies["/submit_update"]
	ack := c.applyLocked(req)
	c.mu.Unlock()

	if hasRaw {
		_, _ = w.Write([]byte(raw))

		return
	}
	writeJSON(w, ack)
}

func (c *Coordinator) applyLocked(req fl.UpdateRequest) fl.Ack {
	if _, ok := c.dataSizes[req.WorkerID]; !ok {
		return fl.Ack{Status: fl.AckError, Message: "Worker not registered"}
	}
	if len(req.Parameters) == 0 {
		return fl.Ack{Status: fl.AckError, Message: "parameters are required"}
	}

	updated := false
	for i := range c.losses {
		if c.losses[i].WorkerID == req.WorkerID {
			c.losses[i].Loss = req.Loss
			updated = true
		}
	}
	if !updated {
		c.losses = append(c.losses, fl.WorkerLoss{WorkerID: req.WorkerID, Loss: req.Loss})
	}
	c.pending[req.WorkerID] = struct{}{}

	if len(c.pending) == len(c.workers) {
		var total float64
		for _, l := range c.losses {
			total += l.Loss
		}
		avg := total / float64(len(c.losses))
		c.globalLoss = &avg
		c.epoch++
		c.pending = make(map[string]struct{})
		c.logger.Info("Epoch complete", slog.Int("epoch", c.epoch), slog.Float64("global_loss", avg))
	}

	return fl.Ack{Status: fl.AckSuccess, Message: "Update accepted"}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
