package domain

import (
	"sort"
	"sync"
	"time"
)

// KeyWindow guarda o histórico de admissões de uma chave.
//
// Todos os métodos, exceto Lock, TryLock e Unlock, exigem que o chamador
// detenha o lock da janela.
type KeyWindow struct {
	mu           sync.Mutex
	timestamps   []time.Time
	lastActivity time.Time
	lastSeen     time.Time
	evicted      bool
}

// NewKeyWindow cria uma janela vazia cuja última atividade é created.
func NewKeyWindow(created time.Time) *KeyWindow {
	return &KeyWindow{lastActivity: created}
}

func (w *KeyWindow) Lock()         { w.mu.Lock() }
func (w *KeyWindow) Unlock()       { w.mu.Unlock() }
func (w *KeyWindow) TryLock() bool { return w.mu.TryLock() }

// Evicted reports whether the window was removed from its store. An evicted
// window must not be mutated; callers look the key up again.
func (w *KeyWindow) Evicted() bool { return w.evicted }

func (w *KeyWindow) MarkEvicted() { w.evicted = true }

// Effective clamps now so it never precedes the latest instant this window
// has already observed.
func (w *KeyWindow) Effective(now time.Time) time.Time {
	if now.Before(w.lastSeen) {
		return w.lastSeen
	}
	return now
}

// Touch records activity at now and returns the clamped instant.
func (w *KeyWindow) Touch(now time.Time) time.Time {
	now = w.Effective(now)
	w.lastSeen = now
	w.lastActivity = now
	return now
}

func (w *KeyWindow) LastActivity() time.Time { return w.lastActivity }

// IdleSince reports whether the last activity happened at or before cutoff.
func (w *KeyWindow) IdleSince(cutoff time.Time) bool {
	return !w.lastActivity.After(cutoff)
}

// Purge drops every timestamp at or before windowStart.
func (w *KeyWindow) Purge(windowStart time.Time) {
	idx := w.firstAfter(windowStart)
	if idx == 0 {
		return
	}
	if idx == len(w.timestamps) {
		w.timestamps = nil
		return
	}
	n := copy(w.timestamps, w.timestamps[idx:])
	w.timestamps = w.timestamps[:n]
}

// CountAfter counts timestamps strictly after windowStart without purging.
func (w *KeyWindow) CountAfter(windowStart time.Time) int {
	return len(w.timestamps) - w.firstAfter(windowStart)
}

// OldestAfter returns the oldest timestamp strictly after windowStart.
func (w *KeyWindow) OldestAfter(windowStart time.Time) (time.Time, bool) {
	idx := w.firstAfter(windowStart)
	if idx == len(w.timestamps) {
		return time.Time{}, false
	}
	return w.timestamps[idx], true
}

func (w *KeyWindow) Append(ts time.Time) {
	w.timestamps = append(w.timestamps, ts)
}

func (w *KeyWindow) Len() int { return len(w.timestamps) }

func (w *KeyWindow) Oldest() (time.Time, bool) {
	if len(w.timestamps) == 0 {
		return time.Time{}, false
	}
	return w.timestamps[0], true
}

// Clear forgets every admission. Last activity is kept for eviction.
func (w *KeyWindow) Clear() {
	w.timestamps = nil
}

func (w *KeyWindow) firstAfter(windowStart time.Time) int {
	return sort.Search(len(w.timestamps), func(i int) bool {
		return w.timestamps[i].After(windowStart)
	})
}
