package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/JeanGrijp/sliding-limiter/internal/clock"
	"github.com/JeanGrijp/sliding-limiter/internal/core/domain"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func evictAll(string, *domain.KeyWindow) bool { return true }

func TestStorage_RoundsShardsToPowerOfTwo(t *testing.T) {
	if n := New(5, nil).Shards(); n != 8 {
		t.Fatalf("expected 8 shards, got %d", n)
	}
	if n := New(0, nil).Shards(); n != DefaultShards {
		t.Fatalf("expected default shards, got %d", n)
	}
}

func TestStorage_GetOrCreateIsAtomic(t *testing.T) {
	s := New(4, clock.NewManual(base))

	const workers = 32
	got := make([]*domain.KeyWindow, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = s.GetOrCreate("same")
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if got[i] != got[0] {
			t.Fatalf("expected a single window instance")
		}
	}
	if s.Len() != 1 {
		t.Fatalf("expected one window, got %d", s.Len())
	}
}

func TestStorage_RemoveIsIdempotent(t *testing.T) {
	s := New(4, nil)
	w := s.GetOrCreate("k")

	s.Remove("k")
	s.Remove("k")
	s.Remove("never-seen")

	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d", s.Len())
	}
	if !w.Evicted() {
		t.Fatalf("expected removed window to be marked evicted")
	}
	if fresh := s.GetOrCreate("k"); fresh == w {
		t.Fatalf("expected a new window after removal")
	}
}

func TestStorage_LookupDoesNotCreate(t *testing.T) {
	s := New(4, nil)
	if _, ok := s.Lookup("k"); ok {
		t.Fatalf("expected lookup miss")
	}
	if s.Len() != 0 {
		t.Fatalf("expected lookup not to create a window")
	}

	s.GetOrCreate("k")
	w, ok := s.Lookup("k")
	if !ok {
		t.Fatalf("expected lookup hit")
	}
	w.Unlock()
}

func TestStorage_AcquireSkipsEvictedWindow(t *testing.T) {
	s := New(1, clock.NewManual(base))
	old := s.GetOrCreate("k")

	s.ForEachIdleLongerThan(base.Add(time.Minute), time.Second, evictAll)

	w := s.Acquire("k")
	defer w.Unlock()
	if w == old || w.Evicted() {
		t.Fatalf("expected acquire to return a live replacement window")
	}
}

func TestStorage_ForEachIdleLongerThanRespectsHorizon(t *testing.T) {
	clk := clock.NewManual(base)
	s := New(4, clk)

	for i := 0; i < 10; i++ {
		s.GetOrCreate(fmt.Sprintf("old-%d", i))
	}
	clk.Advance(time.Minute)
	s.GetOrCreate("new")

	removed := s.ForEachIdleLongerThan(clk.Now(), 30*time.Second, evictAll)
	if removed != 10 {
		t.Fatalf("expected 10 idle windows removed, got %d", removed)
	}
	if s.Len() != 1 {
		t.Fatalf("expected only the recent window left, got %d", s.Len())
	}
}

func TestStorage_SweepKeepsWindowsRefusedByCallback(t *testing.T) {
	s := New(2, clock.NewManual(base))
	s.GetOrCreate("a")
	s.GetOrCreate("b")

	removed := s.ForEachIdleLongerThan(base.Add(time.Hour), time.Second, func(key string, _ *domain.KeyWindow) bool {
		return key == "a"
	})
	if removed != 1 || s.Len() != 1 {
		t.Fatalf("expected only a removed, removed=%d len=%d", removed, s.Len())
	}
}

func TestStorage_DifferentKeysDoNotBlock(t *testing.T) {
	s := New(64, nil)
	held := s.Acquire("held")
	defer held.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			w := s.Acquire(fmt.Sprintf("other-%d", i))
			w.Unlock()
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected other keys to proceed while one window is held")
	}
}
