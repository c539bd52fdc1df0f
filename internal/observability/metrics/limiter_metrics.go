package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LimiterMetrics instrumenta decisões de admissão e o reaper. Todos os
// métodos aceitam receptor nil.
type LimiterMetrics struct {
	registerer    prometheus.Registerer
	constLabels   prometheus.Labels
	decisions     *prometheus.CounterVec
	evictions     prometheus.Counter
	sweepDuration *prometheus.HistogramVec
}

func NewLimiterMetrics(registerer prometheus.Registerer, cfg Config) *LimiterMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	constLabels := cfg.constLabels()

	decisions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "ratelimit_decisions_total",
			Help:        "Admission decisions taken by the sliding window limiter.",
			ConstLabels: constLabels,
		},
		[]string{"result"}, // allowed | rejected
	)

	evictions := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "ratelimit_evictions_total",
			Help:        "Idle key windows removed by the reaper.",
			ConstLabels: constLabels,
		},
	)

	sweepDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "ratelimit_sweep_duration_seconds",
			Help:        "Duration of reaper sweeps.",
			Buckets:     []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			ConstLabels: constLabels,
		},
		[]string{"mode"}, // full | shard
	)

	registerer.MustRegister(decisions, evictions, sweepDuration)

	return &LimiterMetrics{
		registerer:    registerer,
		constLabels:   constLabels,
		decisions:     decisions,
		evictions:     evictions,
		sweepDuration: sweepDuration,
	}
}

// TrackActiveKeys registra um gauge que consulta count a cada coleta.
func (m *LimiterMetrics) TrackActiveKeys(count func() int) {
	if m == nil || count == nil {
		return
	}
	m.registerer.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name:        "ratelimit_active_keys",
			Help:        "Key windows currently held in memory.",
			ConstLabels: m.constLabels,
		},
		func() float64 { return float64(count()) },
	))
}

func (m *LimiterMetrics) ObserveDecision(allowed bool) {
	if m == nil {
		return
	}
	result := "allowed"
	if !allowed {
		result = "rejected"
	}
	m.decisions.WithLabelValues(result).Inc()
}

func (m *LimiterMetrics) ObserveSweep(mode string, evicted int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.sweepDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
	if evicted > 0 {
		m.evictions.Add(float64(evicted))
	}
}
