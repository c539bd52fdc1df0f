// Package memory disponibiliza a implementação do storage de janelas em memória.
package memory

import (
	"hash/maphash"
	"sync"
	"time"

	"github.com/JeanGrijp/sliding-limiter/internal/clock"
	"github.com/JeanGrijp/sliding-limiter/internal/core/domain"
	"github.com/JeanGrijp/sliding-limiter/internal/core/ports"
)

const DefaultShards = 32

type Storage struct {
	shards []*shard
	mask   uint64
	seed   maphash.Seed
	clock  clock.Clock
}

var _ ports.WindowStore = (*Storage)(nil)

type shard struct {
	mu      sync.Mutex
	windows map[string]*domain.KeyWindow
}

// New cria um storage com shardCount shards, arredondado para a próxima
// potência de dois. Valores não positivos usam DefaultShards.
func New(shardCount int, clk clock.Clock) *Storage {
	if shardCount <= 0 {
		shardCount = DefaultShards
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}
	n := 1
	for n < shardCount {
		n <<= 1
	}

	shards := make([]*shard, n)
	for i := range shards {
		shards[i] = &shard{windows: make(map[string]*domain.KeyWindow)}
	}

	return &Storage{
		shards: shards,
		mask:   uint64(n - 1),
		seed:   maphash.MakeSeed(),
		clock:  clk,
	}
}

func (s *Storage) shardFor(key string) *shard {
	return s.shards[maphash.String(s.seed, key)&s.mask]
}

func (s *Storage) GetOrCreate(key string) *domain.KeyWindow {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	w, ok := sh.windows[key]
	if !ok {
		w = domain.NewKeyWindow(s.clock.Now())
		sh.windows[key] = w
	}
	return w
}

func (s *Storage) Acquire(key string) *domain.KeyWindow {
	for {
		w := s.GetOrCreate(key)
		w.Lock()
		if !w.Evicted() {
			return w
		}
		// Lost the race against the reaper; the map no longer holds w.
		w.Unlock()
	}
}

func (s *Storage) Lookup(key string) (*domain.KeyWindow, bool) {
	sh := s.shardFor(key)
	for {
		sh.mu.Lock()
		w, ok := sh.windows[key]
		sh.mu.Unlock()
		if !ok {
			return nil, false
		}

		w.Lock()
		if !w.Evicted() {
			return w, true
		}
		w.Unlock()
	}
}

// Remove apaga a janela de key, se existir. Espera o detentor atual do lock
// da janela terminar; nenhum detentor aguarda o lock do shard.
func (s *Storage) Remove(key string) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	w, ok := sh.windows[key]
	if !ok {
		return
	}
	w.Lock()
	w.MarkEvicted()
	w.Unlock()
	delete(sh.windows, key)
}

func (s *Storage) ForEachIdleLongerThan(now time.Time, horizon time.Duration, fn ports.EvictFunc) int {
	removed := 0
	for i := range s.shards {
		removed += s.SweepShard(i, now, horizon, fn)
	}
	return removed
}

// SweepShard oferece a fn cada janela do shard idx ociosa há mais de horizon.
// Janelas com o lock ocupado são ignoradas até a próxima varredura.
func (s *Storage) SweepShard(idx int, now time.Time, horizon time.Duration, fn ports.EvictFunc) int {
	sh := s.shards[idx&int(s.mask)]
	cutoff := now.Add(-horizon)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	removed := 0
	for key, w := range sh.windows {
		if evictIdle(key, w, cutoff, fn) {
			delete(sh.windows, key)
			removed++
		}
	}
	return removed
}

func evictIdle(key string, w *domain.KeyWindow, cutoff time.Time, fn ports.EvictFunc) bool {
	if !w.TryLock() {
		return false
	}
	defer w.Unlock()

	if !w.IdleSince(cutoff) || !fn(key, w) {
		return false
	}
	w.MarkEvicted()
	return true
}

func (s *Storage) Shards() int {
	return len(s.shards)
}

func (s *Storage) Len() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		total += len(sh.windows)
		sh.mu.Unlock()
	}
	return total
}
