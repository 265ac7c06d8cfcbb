package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/absmach/fldash/monitor"
	"github.com/absmach/fldash/monitor/api"
	"github.com/absmach/fldash/monitor/middleware"
	"github.com/absmach/fldash/monitor/mqtt"
	"github.com/absmach/fldash/pkg/sdk"
	"github.com/absmach/supermq/pkg/jaeger"
	"github.com/absmach/supermq/pkg/prometheus"
	"github.com/absmach/supermq/pkg/server"
	httpserver "github.com/absmach/supermq/pkg/server/http"
	"github.com/caarlos0/env/v11"
	"github.com/go-kit/kit/metrics"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

const (
	svcName       = "dashboard"
	defHTTPPort   = "9090"
	envPrefixHTTP = "FLDASH_HTTP_"
	pathEnv       = ".env"
)

type envConfig struct {
	LogLevel        string        `env:"FLDASH_LOG_LEVEL"          envDefault:"info"`
	InstanceID      string        `env:"FLDASH_INSTANCE_ID"`
	CoordinatorURL  string        `env:"FLDASH_COORDINATOR_URL"    envDefault:"http://localhost:3000"`
	ClientTimeout   time.Duration `env:"FLDASH_CLIENT_TIMEOUT"     envDefault:"0"`
	TLSVerification bool          `env:"FLDASH_TLS_VERIFICATION"   envDefault:"true"`
	RefreshInterval time.Duration `env:"FLDASH_REFRESH_INTERVAL"   envDefault:"2s"`
	HistoryInterval time.Duration `env:"FLDASH_HISTORY_INTERVAL"   envDefault:"2s"`
	MQTTAddress     string        `env:"FLDASH_MQTT_ADDRESS"`
	MQTTQoS         uint8         `env:"FLDASH_MQTT_QOS"           envDefault:"1"`
	MQTTTimeout     time.Duration `env:"FLDASH_MQTT_TIMEOUT"       envDefault:"30s"`
	MQTTTopic       string        `env:"FLDASH_MQTT_TOPIC"         envDefault:"fl/dashboard/report"`
	MQTTUsername    string        `env:"FLDASH_MQTT_USERNAME"`
	MQTTPassword    string        `env:"FLDASH_MQTT_PASSWORD"`
	OTELURL         url.URL       `env:"FLDASH_OTEL_URL"`
	TraceRatio      float64       `env:"FLDASH_TRACE_RATIO"        envDefault:"1.0"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	if _, err := os.Stat(pathEnv); err == nil {
		_ = godotenv.Load(pathEnv)
	}

	cfg := envConfig{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to load configuration : %s", err.Error())
	}

	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatalf("failed to parse log level: %s", err.Error())
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	var tp trace.TracerProvider
	switch {
	case cfg.OTELURL == (url.URL{}):
		tp = noop.NewTracerProvider()
	default:
		sdktp, err := jaeger.NewProvider(ctx, svcName, cfg.OTELURL, cfg.InstanceID, cfg.TraceRatio)
		if err != nil {
			logger.Error("failed to initialize opentelemetry", slog.String("error", err.Error()))

			return
		}
		defer func() {
			if err := sdktp.Shutdown(context.Background()); err != nil {
				logger.Error("error shutting down tracer provider", slog.Any("error", err))
			}
		}()
		tp = sdktp
	}
	tracer := tp.Tracer(svcName)

	client := sdk.NewSDK(sdk.Config{
		CoordinatorURL:  cfg.CoordinatorURL,
		TLSVerification: cfg.TLSVerification,
		Timeout:         cfg.ClientTimeout,
	})

	var opts []monitor.Option
	if cfg.MQTTAddress != "" {
		feed, err := mqtt.NewFeed(mqtt.Config{
			Address:  cfg.MQTTAddress,
			ClientID: svcName + "-" + cfg.InstanceID,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
			Topic:    cfg.MQTTTopic,
			QoS:      cfg.MQTTQoS,
			Timeout:  cfg.MQTTTimeout,
		}, logger)
		if err != nil {
			logger.Error("failed to initialize mqtt report feed", slog.String("error", err.Error()))

			return
		}
		defer feed.Close()
		opts = append(opts, monitor.WithPublisher(feed))
	}

	svc, err := monitor.NewService(client, monitor.NewHistoryLog(cfg.HistoryInterval), logger, opts...)
	if err != nil {
		logger.Error("failed to create monitor service", slog.String("error", err.Error()))

		return
	}
	svc = middleware.Logging(logger, svc)
	svc = middleware.Tracing(tracer, svc)
	counter, latency := prometheus.MakeMetrics(svcName, "api")
	svc = middleware.Metrics(counter, latency, middleware.Gauges{
		Epoch:         trainingGauge("epoch", "Current training epoch reported by the coordinator."),
		GlobalLoss:    trainingGauge("global_loss", "Latest global loss, NaN until reported."),
		Rate:          trainingGauge("convergence_rate", "Mean relative loss reduction over the recorded history."),
		ActiveWorkers: trainingGauge("active_workers", "Number of active workers."),
		HistoryLen:    trainingGauge("history_entries", "Number of recorded history entries."),
	}, svc)

	runner, err := monitor.NewRunner(svc, cfg.RefreshInterval, logger)
	if err != nil {
		logger.Error("failed to create refresh runner", slog.String("error", err.Error()))

		return
	}

	httpServerConfig := server.Config{Port: defHTTPPort}
	if err := env.ParseWithOptions(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s HTTP server configuration : %s", svcName, err.Error()))

		return
	}

	hs := httpserver.NewServer(ctx, cancel, svcName, httpServerConfig, api.MakeHandler(svc, logger, cfg.InstanceID), logger)

	g.Go(func() error {
		return runner.Run(ctx)
	})

	g.Go(func() error {
		return hs.Start()
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, svcName, hs)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service exited with error: %s", svcName, err))
	}
}

func trainingGauge(name, help string) metrics.Gauge {
	return kitprometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
		Namespace: svcName,
		Subsystem: "training",
		Name:      name,
		Help:      help,
	}, []string{})
}
