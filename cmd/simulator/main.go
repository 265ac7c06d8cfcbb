package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/absmach/fldash/pkg/sdk"
	"github.com/absmach/fldash/simulator"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	svcName = "simulator"
	pathEnv = ".env"
)

type envConfig struct {
	LogLevel        string        `env:"FLSIM_LOG_LEVEL"        envDefault:"info"`
	CoordinatorURL  string        `env:"FLSIM_COORDINATOR_URL"  envDefault:"http://localhost:3000"`
	ClientTimeout   time.Duration `env:"FLSIM_CLIENT_TIMEOUT"   envDefault:"0"`
	TLSVerification bool          `env:"FLSIM_TLS_VERIFICATION" envDefault:"true"`
	Workers         string        `env:"FLSIM_WORKERS"          envDefault:"worker1:100,worker2:150,worker3:120"`
	ExtraWorkers    int           `env:"FLSIM_EXTRA_WORKERS"    envDefault:"0"`
	Rounds          int           `env:"FLSIM_ROUNDS"           envDefault:"10"`
	StepDelay       time.Duration `env:"FLSIM_STEP_DELAY"       envDefault:"1s"`
	Decay           float64       `env:"FLSIM_DECAY"            envDefault:"0.8"`
	InitialLoss     float64       `env:"FLSIM_INITIAL_LOSS"     envDefault:"10.0"`
	Seed            uint64        `env:"FLSIM_SEED"             envDefault:"0"`
}

func main() {
	if _, err := os.Stat(pathEnv); err == nil {
		_ = godotenv.Load(pathEnv)
	}

	cfg := envConfig{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to load configuration : %s", err.Error())
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatalf("failed to parse log level: %s", err.Error())
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := sdk.NewSDK(sdk.Config{
		CoordinatorURL:  cfg.CoordinatorURL,
		TLSVerification: cfg.TLSVerification,
		Timeout:         cfg.ClientTimeout,
	})

	workers, err := simulator.BuildWorkers(simulator.Config{
		Workers:      cfg.Workers,
		ExtraWorkers: cfg.ExtraWorkers,
		Decay:        cfg.Decay,
		InitialLoss:  cfg.InitialLoss,
		Seed:         cfg.Seed,
	}, client, logger)
	if err != nil {
		logger.Error("failed to create workers", slog.String("error", err.Error()))
		os.Exit(1)
	}

	results, err := simulator.NewDriver(workers, cfg.Rounds, cfg.StepDelay, logger).Run(ctx)
	if err != nil {
		logger.Error(svcName+" run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	failed := 0
	for _, r := range results {
		if !r.Ack.OK() {
			failed++
		}
	}
	logger.Info(svcName+" finished", slog.Int("steps", len(results)), slog.Int("failed", failed))
}
