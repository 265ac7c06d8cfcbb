package simulator

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/0x6flab/namegenerator"
	pkgerrors "github.com/absmach/fldash/pkg/errors"
)

const DefWorkers = "worker1:100,worker2:150,worker3:120"

// DefExtraDataSize is the data size given to generated workers.
const DefExtraDataSize = 100

type WorkerSpec struct {
	ID       string
	DataSize int
}

// ParseWorkerSpecs reads a comma separated list of id:data_size pairs. A bare
// id gets DefExtraDataSize.
func ParseWorkerSpecs(s string) ([]WorkerSpec, error) {
	var specs []WorkerSpec
	seen := make(map[string]struct{})

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id, size, found := strings.Cut(part, ":")
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("%w: empty worker ID in %q", pkgerrors.ErrValidation, part)
		}
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("%w: duplicate worker %q", pkgerrors.ErrValidation, id)
		}
		seen[id] = struct{}{}

		spec := WorkerSpec{ID: id, DataSize: DefExtraDataSize}
		if found {
			n, err := strconv.Atoi(strings.TrimSpace(size))
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%w: invalid data size %q for worker %q", pkgerrors.ErrValidation, size, id)
			}
			spec.DataSize = n
		}
		specs = append(specs, spec)
	}

	return specs, nil
}

// WithGeneratedWorkers appends n workers with generated names that do not
// collide with the existing ones.
func WithGeneratedWorkers(specs []WorkerSpec, n, dataSize int) []WorkerSpec {
	seen := make(map[string]struct{}, len(specs)+n)
	for _, s := range specs {
		seen[s.ID] = struct{}{}
	}

	gen := namegenerator.NewGenerator()
	for added := 0; added < n; {
		name := gen.Generate()
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		specs = append(specs, WorkerSpec{ID: name, DataSize: dataSize})
		added++
	}

	return specs
}

// Config describes a simulated cluster.
type Config struct {
	Workers      string
	ExtraWorkers int
	Decay        float64
	InitialLoss  float64
	// Seed of 0 seeds every worker from the clock.
	Seed uint64
}

// BuildWorkers creates one worker per configured spec. With a non-zero seed
// each worker gets its own deterministic source.
func BuildWorkers(cfg Config, client Coordinator, logger *slog.Logger) ([]*Worker, error) {
	specs, err := ParseWorkerSpecs(cfg.Workers)
	if err != nil {
		return nil, err
	}
	if cfg.ExtraWorkers > 0 {
		specs = WithGeneratedWorkers(specs, cfg.ExtraWorkers, DefExtraDataSize)
	}

	workers := make([]*Worker, 0, len(specs))
	for i, spec := range specs {
		opts := []Option{}
		if cfg.Decay > 0 {
			opts = append(opts, WithDecay(cfg.Decay))
		}
		if cfg.InitialLoss > 0 {
			opts = append(opts, WithInitialLoss(cfg.InitialLoss))
		}
		if cfg.Seed != 0 {
			opts = append(opts, WithRand(rand.New(rand.NewPCG(cfg.Seed, uint64(i)))))
		}

		w, err := NewWorker(spec.ID, spec.DataSize, client, logger, opts...)
		if err != nil {
			return nil, err
		}
		workers = append(workers, w)
	}

	return workers, nil
}
