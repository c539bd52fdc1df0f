package domain

import (
	"errors"
	"testing"
	"time"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestKeyWindow_PurgeIsStrictPrefixTrim(t *testing.T) {
	w := NewKeyWindow(base)
	for i := 0; i < 5; i++ {
		w.Append(base.Add(time.Duration(i) * time.Second))
	}

	w.Purge(base.Add(2 * time.Second))
	if w.Len() != 2 {
		t.Fatalf("expected 2 entries after purge, got %d", w.Len())
	}
	oldest, ok := w.Oldest()
	if !ok || !oldest.Equal(base.Add(3*time.Second)) {
		t.Fatalf("expected oldest at +3s, got %v", oldest)
	}

	w.Purge(base.Add(time.Hour))
	if w.Len() != 0 {
		t.Fatalf("expected window to be empty, got %d", w.Len())
	}
	if _, ok := w.Oldest(); ok {
		t.Fatalf("expected no oldest entry on empty window")
	}
}

func TestKeyWindow_ReadOnlyProjection(t *testing.T) {
	w := NewKeyWindow(base)
	w.Append(base)
	w.Append(base.Add(time.Second))

	if n := w.CountAfter(base); n != 1 {
		t.Fatalf("expected 1 entry after base, got %d", n)
	}
	oldest, ok := w.OldestAfter(base)
	if !ok || !oldest.Equal(base.Add(time.Second)) {
		t.Fatalf("expected oldest live entry at +1s, got %v", oldest)
	}
	if w.Len() != 2 {
		t.Fatalf("expected projection not to purge, got %d entries", w.Len())
	}
}

func TestKeyWindow_TouchClampsBackwardInstants(t *testing.T) {
	w := NewKeyWindow(base)

	if got := w.Touch(base.Add(time.Second)); !got.Equal(base.Add(time.Second)) {
		t.Fatalf("expected forward instant unchanged, got %v", got)
	}
	if got := w.Touch(base); !got.Equal(base.Add(time.Second)) {
		t.Fatalf("expected backward instant clamped, got %v", got)
	}
	if !w.LastActivity().Equal(base.Add(time.Second)) {
		t.Fatalf("unexpected last activity %v", w.LastActivity())
	}
}

func TestKeyWindow_IdleSince(t *testing.T) {
	w := NewKeyWindow(base)
	if !w.IdleSince(base) {
		t.Fatalf("expected window idle at its creation instant")
	}
	w.Touch(base.Add(time.Second))
	if w.IdleSince(base) {
		t.Fatalf("expected touched window not to be idle")
	}
}

func TestKeyWindow_ClearKeepsActivity(t *testing.T) {
	w := NewKeyWindow(base)
	w.Touch(base.Add(time.Second))
	w.Append(base.Add(time.Second))

	w.Clear()
	if w.Len() != 0 {
		t.Fatalf("expected clear to drop entries")
	}
	if !w.LastActivity().Equal(base.Add(time.Second)) {
		t.Fatalf("expected clear to keep last activity")
	}
}

func TestRateLimitRule_Validate(t *testing.T) {
	if err := (RateLimitRule{MaxRequests: 1, Window: time.Second}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := RateLimitRule{MaxRequests: 0, Window: time.Second}.Validate()
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) || cfgErr.Field != "MaxRequests" {
		t.Fatalf("expected MaxRequests configuration error, got %v", err)
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected error to wrap ErrInvalidConfig")
	}
}
