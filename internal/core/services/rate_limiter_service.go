package services

import (
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/JeanGrijp/sliding-limiter/internal/clock"
	"github.com/JeanGrijp/sliding-limiter/internal/core/domain"
	"github.com/JeanGrijp/sliding-limiter/internal/core/ports"
	"github.com/JeanGrijp/sliding-limiter/internal/observability/metrics"
)

// Config agrega a regra de cota e os parâmetros operacionais do serviço.
type Config struct {
	Rule domain.RateLimitRule
	// EvictionHorizon é o tempo mínimo de ociosidade antes de uma janela
	// vazia ser removida. Zero usa Rule.Window.
	EvictionHorizon time.Duration
	// SweepInterval é o intervalo da varredura periódica. Zero usa Rule.Window.
	SweepInterval time.Duration
	// SweepEvery dispara a varredura de um shard a cada N verificações.
	// Zero desativa.
	SweepEvery uint64
	// RetryGranularity arredonda RetryAfter para cima. Zero usa um segundo.
	RetryGranularity time.Duration
}

func (c Config) withDefaults() Config {
	if c.EvictionHorizon == 0 {
		c.EvictionHorizon = c.Rule.Window
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = c.Rule.Window
	}
	if c.RetryGranularity == 0 {
		c.RetryGranularity = time.Second
	}
	return c
}

func (c Config) validate() error {
	if err := c.Rule.Validate(); err != nil {
		return err
	}
	if c.EvictionHorizon < 0 {
		return &domain.ConfigurationError{Field: "EvictionHorizon", Reason: "must not be negative"}
	}
	if c.SweepInterval < 0 {
		return &domain.ConfigurationError{Field: "SweepInterval", Reason: "must not be negative"}
	}
	if c.RetryGranularity < 0 {
		return &domain.ConfigurationError{Field: "RetryGranularity", Reason: "must not be negative"}
	}
	return nil
}

type Option func(*RateLimiterService)

func WithClock(clk clock.Clock) Option {
	return func(s *RateLimiterService) {
		if clk != nil {
			s.clock = clk
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(s *RateLimiterService) {
		if log != nil {
			s.log = log
		}
	}
}

func WithMetrics(m *metrics.LimiterMetrics) Option {
	return func(s *RateLimiterService) {
		s.metrics = m
	}
}

// RateLimiterService implementa a lógica central de rate limiting por janela
// deslizante.
type RateLimiterService struct {
	store   ports.WindowStore
	config  Config
	clock   clock.Clock
	log     *zap.Logger
	metrics *metrics.LimiterMetrics
	reaper  *Reaper
	checks  atomic.Uint64
}

var _ ports.RateLimiter = (*RateLimiterService)(nil)

// NewRateLimiterService cria uma nova instância do serviço.
func NewRateLimiterService(store ports.WindowStore, cfg Config, opts ...Option) (*RateLimiterService, error) {
	if store == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	s := &RateLimiterService{
		store:  store,
		config: cfg.withDefaults(),
		clock:  clock.SystemClock{},
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.reaper = newReaper(store, s.clock, s.config, s.log, s.metrics)
	s.metrics.TrackActiveKeys(store.Len)

	return s, nil
}

func (s *RateLimiterService) Rule() domain.RateLimitRule {
	return s.config.Rule
}

func (s *RateLimiterService) Reaper() *Reaper {
	return s.reaper
}

func (s *RateLimiterService) ActiveKeys() int {
	return s.store.Len()
}

// Check avalia se a requisição de key em now pode prosseguir e, em caso
// positivo, registra a admissão.
func (s *RateLimiterService) Check(key string, now time.Time) domain.Decision {
	w := s.store.Acquire(key)
	decision := s.admit(w, now)
	w.Unlock()

	s.metrics.ObserveDecision(decision.Allowed)

	if every := s.config.SweepEvery; every > 0 && s.checks.Add(1)%every == 0 {
		s.reaper.SweepNext()
	}
	return decision
}

func (s *RateLimiterService) CheckNow(key string) domain.Decision {
	return s.Check(key, s.clock.Now())
}

// admit runs purge, test and append as one critical section; w must be locked.
func (s *RateLimiterService) admit(w *domain.KeyWindow, now time.Time) domain.Decision {
	rule := s.config.Rule
	now = w.Touch(now)
	w.Purge(now.Add(-rule.Window))

	var decision domain.Decision
	count := w.Len()
	if count < rule.MaxRequests {
		w.Append(now)
		decision.Allowed = true
		decision.Remaining = rule.MaxRequests - (count + 1)
	}

	decision.ResetTime = now.Add(rule.Window)
	if oldest, ok := w.Oldest(); ok {
		decision.ResetTime = oldest.Add(rule.Window)
	}
	if !decision.Allowed {
		decision.RetryAfter = roundUp(decision.ResetTime.Sub(now), s.config.RetryGranularity)
	}
	return decision
}

// Reset esquece todo o histórico de key. A janela continua no storage até
// ser removida pelo reaper.
func (s *RateLimiterService) Reset(key string) {
	w, ok := s.store.Lookup(key)
	if !ok {
		return
	}
	w.Clear()
	w.Unlock()
}

// Stats projeta a janela de key em now sem consumir cota nem criar estado.
func (s *RateLimiterService) Stats(key string, now time.Time) domain.Stats {
	rule := s.config.Rule

	w, ok := s.store.Lookup(key)
	if !ok {
		return domain.Stats{
			Remaining: rule.MaxRequests,
			ResetTime: now.Add(rule.Window),
		}
	}
	defer w.Unlock()

	now = w.Effective(now)
	windowStart := now.Add(-rule.Window)
	count := w.CountAfter(windowStart)

	stats := domain.Stats{
		RequestCount: count,
		Remaining:    max(rule.MaxRequests-count, 0),
		ResetTime:    now.Add(rule.Window),
	}
	if oldest, ok := w.OldestAfter(windowStart); ok {
		stats.ResetTime = oldest.Add(rule.Window)
	}
	return stats
}

func (s *RateLimiterService) StatsNow(key string) domain.Stats {
	return s.Stats(key, s.clock.Now())
}

func roundUp(d, granularity time.Duration) time.Duration {
	if granularity <= 0 || d <= 0 {
		return d
	}
	if rem := d % granularity; rem != 0 {
		d += granularity - rem
	}
	return d
}
