// Package clock fornece a fonte de tempo usada pelo rate limiter.
package clock

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

// SystemClock usa time.Now, cuja leitura monotônica protege as comparações
// contra ajustes do relógio de parede.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Manual é um relógio controlado manualmente, útil em testes e simulações.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Advance(d time.Duration) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
	return m.now
}

func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}
