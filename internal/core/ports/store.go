// Package ports define contratos que conectam o domínio a implementações externas.
package ports

import (
	"time"

	"github.com/JeanGrijp/sliding-limiter/internal/core/domain"
)

// EvictFunc is called with the window locked. Returning true removes it.
type EvictFunc func(key string, w *domain.KeyWindow) bool

// WindowStore owns every KeyWindow. Implementations must not serialize
// unrelated keys behind a single lock.
type WindowStore interface {
	// GetOrCreate returns the window for key, creating it atomically. The
	// window is returned unlocked.
	GetOrCreate(key string) *domain.KeyWindow
	// Acquire returns the live window for key with its lock held.
	Acquire(key string) *domain.KeyWindow
	// Lookup is like Acquire but never creates a window.
	Lookup(key string) (*domain.KeyWindow, bool)
	Remove(key string)
	ForEachIdleLongerThan(now time.Time, horizon time.Duration, fn EvictFunc) int
	SweepShard(idx int, now time.Time, horizon time.Duration, fn EvictFunc) int
	Shards() int
	Len() int
}
