package services

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/JeanGrijp/sliding-limiter/internal/clock"
	"github.com/JeanGrijp/sliding-limiter/internal/core/domain"
	"github.com/JeanGrijp/sliding-limiter/internal/core/ports"
	"github.com/JeanGrijp/sliding-limiter/internal/observability/metrics"
)

// Reaper remove do storage as janelas vazias ociosas além do horizonte de
// remoção, limitando a memória ao conjunto de chaves recentemente ativas.
type Reaper struct {
	store    ports.WindowStore
	clock    clock.Clock
	window   time.Duration
	horizon  time.Duration
	interval time.Duration
	log      *zap.Logger
	metrics  *metrics.LimiterMetrics
	next     atomic.Uint64
}

func newReaper(store ports.WindowStore, clk clock.Clock, cfg Config, log *zap.Logger, m *metrics.LimiterMetrics) *Reaper {
	return &Reaper{
		store:    store,
		clock:    clk,
		window:   cfg.Rule.Window,
		horizon:  cfg.EvictionHorizon,
		interval: cfg.SweepInterval,
		log:      log.Named("ratelimit.reaper"),
		metrics:  m,
	}
}

// Sweep varre todos os shards e retorna quantas janelas foram removidas.
func (r *Reaper) Sweep() int {
	start := time.Now()
	now := r.clock.Now()
	evicted := r.store.ForEachIdleLongerThan(now, r.horizon, r.evictable(now))
	r.metrics.ObserveSweep("full", evicted, time.Since(start))
	if evicted > 0 {
		r.log.Debug("reaper sweep finished",
			zap.Int("evicted", evicted),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
	return evicted
}

// SweepNext varre apenas o próximo shard, em rodízio.
func (r *Reaper) SweepNext() int {
	start := time.Now()
	now := r.clock.Now()
	idx := int((r.next.Add(1) - 1) % uint64(r.store.Shards()))
	evicted := r.store.SweepShard(idx, now, r.horizon, r.evictable(now))
	r.metrics.ObserveSweep("shard", evicted, time.Since(start))
	return evicted
}

// evictable purges expired entries first so a window whose admissions have
// all left the window counts as empty.
func (r *Reaper) evictable(now time.Time) ports.EvictFunc {
	windowStart := now.Add(-r.window)
	return func(_ string, w *domain.KeyWindow) bool {
		w.Purge(windowStart)
		return w.Len() == 0
	}
}

func (r *Reaper) RunForever(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info("reaper started",
		zap.Duration("interval", r.interval),
		zap.Duration("horizon", r.horizon),
	)

	for {
		select {
		case <-ctx.Done():
			r.log.Info("reaper stopped")
			return
		case <-ticker.C:
			r.runOnce()
		}
	}
}

func (r *Reaper) runOnce() {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("reaper sweep failed", zap.Any("panic", rec))
		}
	}()
	r.Sweep()
}
