// Package server monta o roteador HTTP e controla o ciclo de vida do servidor.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	httpHandlers "github.com/JeanGrijp/sliding-limiter/internal/adapters/http/handlers"
	httpMiddleware "github.com/JeanGrijp/sliding-limiter/internal/adapters/http/middleware"
	"github.com/JeanGrijp/sliding-limiter/internal/config"
	"github.com/JeanGrijp/sliding-limiter/internal/core/ports"
	"github.com/JeanGrijp/sliding-limiter/internal/observability/metrics"
)

type RouterParams struct {
	fx.In

	Config      config.Config
	Limiter     ports.RateLimiter
	Log         *zap.Logger
	Registry    *prometheus.Registry
	HTTPMetrics *metrics.HTTPMetrics `optional:"true"`
}

// NewRouter registra as rotas públicas, limitadas, e as rotas administrativas,
// que não consomem cota.
func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()
	r.Use(httpMiddleware.RequestID)
	r.Use(httpMiddleware.AccessLog(p.Log.Named("http"), p.HTTPMetrics))

	r.Handle(p.Config.Observability.MetricsPath, metrics.Handler(p.Registry))
	httpHandlers.NewRateLimitHandler(p.Limiter).Routes(r)

	r.Group(func(r chi.Router) {
		r.Use(httpMiddleware.NewRateLimiterMiddleware(p.Limiter, p.Log))
		r.Get("/test", httpHandlers.TestHandler)
	})

	return r
}

func NewHTTPServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func RunHTTP(lc fx.Lifecycle, srv *http.Server, log *zap.Logger) {
	log = log.Named("http")

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			log.Info("http server listening", zap.String("addr", ln.Addr().String()))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Shutdown(ctx); err != nil {
				log.Warn("graceful shutdown failed", zap.Error(err))
				return err
			}
			return nil
		},
	})
}

var Module = fx.Module("server",
	fx.Provide(NewRouter),
	fx.Provide(NewHTTPServer),
	fx.Invoke(RunHTTP),
)
