package main

import (
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	memorystorage "github.com/JeanGrijp/sliding-limiter/internal/adapters/storage/memory"
	"github.com/JeanGrijp/sliding-limiter/internal/clock"
	"github.com/JeanGrijp/sliding-limiter/internal/config"
	"github.com/JeanGrijp/sliding-limiter/internal/core/domain"
	"github.com/JeanGrijp/sliding-limiter/internal/core/ports"
	"github.com/JeanGrijp/sliding-limiter/internal/core/services"
	"github.com/JeanGrijp/sliding-limiter/internal/observability/logger"
	"github.com/JeanGrijp/sliding-limiter/internal/observability/metrics"
	"github.com/JeanGrijp/sliding-limiter/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Observability.LogLevel, cfg.Observability.ServiceName, cfg.Observability.Env)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	app := fx.New(
		fx.Supply(cfg, zapLogger),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),
		fx.Provide(
			func() clock.Clock { return clock.SystemClock{} },
			metrics.NewRegistry,
			metricsConfig,
			newLimiterMetrics,
			newHTTPMetrics,
			newWindowStore,
			serviceConfig,
		),
		services.Module,
		server.Module,
		fx.StopTimeout(10*time.Second),
	)
	app.Run()
}

func metricsConfig(cfg config.Config) metrics.Config {
	return metrics.Config{
		ServiceName: cfg.Observability.ServiceName,
		Environment: cfg.Observability.Env,
	}
}

func newLimiterMetrics(registry *prometheus.Registry, cfg metrics.Config) *metrics.LimiterMetrics {
	return metrics.NewLimiterMetrics(registry, cfg)
}

func newHTTPMetrics(registry *prometheus.Registry, cfg metrics.Config) *metrics.HTTPMetrics {
	return metrics.NewHTTPMetrics(registry, cfg)
}

func newWindowStore(cfg config.Config, clk clock.Clock) ports.WindowStore {
	return memorystorage.New(cfg.Storage.Shards, clk)
}

func serviceConfig(cfg config.Config) services.Config {
	rl := cfg.RateLimiter
	return services.Config{
		Rule: domain.RateLimitRule{
			MaxRequests: rl.MaxRequests,
			Window:      rl.Window,
		},
		EvictionHorizon:  rl.EvictionHorizon,
		SweepInterval:    rl.SweepInterval,
		SweepEvery:       rl.SweepEvery,
		RetryGranularity: rl.RetryGranularity,
	}
}
