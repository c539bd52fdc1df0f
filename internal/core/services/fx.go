package services

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/JeanGrijp/sliding-limiter/internal/clock"
	"github.com/JeanGrijp/sliding-limiter/internal/core/ports"
	"github.com/JeanGrijp/sliding-limiter/internal/observability/metrics"
)

type Params struct {
	fx.In

	Store   ports.WindowStore
	Config  Config
	Clock   clock.Clock
	Log     *zap.Logger
	Metrics *metrics.LimiterMetrics `optional:"true"`
}

var Module = fx.Module("ratelimit",
	fx.Provide(newFromParams),
	fx.Provide(func(s *RateLimiterService) ports.RateLimiter { return s }),
	fx.Invoke(runReaper),
)

func newFromParams(p Params) (*RateLimiterService, error) {
	return NewRateLimiterService(p.Store, p.Config,
		WithClock(p.Clock),
		WithLogger(p.Log),
		WithMetrics(p.Metrics),
	)
}

func runReaper(lc fx.Lifecycle, s *RateLimiterService) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				s.Reaper().RunForever(ctx)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}
