package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JeanGrijp/sliding-limiter/internal/adapters/storage/memory"
	"github.com/JeanGrijp/sliding-limiter/internal/clock"
	"github.com/JeanGrijp/sliding-limiter/internal/core/domain"
	"github.com/JeanGrijp/sliding-limiter/internal/core/services"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T) (http.Handler, *services.RateLimiterService) {
	t.Helper()
	clk := clock.NewManual(base)
	limiter, err := services.NewRateLimiterService(memory.New(4, clk), services.Config{
		Rule: domain.RateLimitRule{MaxRequests: 3, Window: 10 * time.Second},
	}, services.WithClock(clk))
	if err != nil {
		t.Fatalf("failed to create limiter: %v", err)
	}

	r := chi.NewRouter()
	NewRateLimitHandler(limiter).Routes(r)
	return r, limiter
}

func TestRateLimitHandler_Stats(t *testing.T) {
	router, limiter := newTestRouter(t)
	limiter.CheckNow("198.51.100.1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ratelimit/198.51.100.1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body statsResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Limit != 3 || body.RequestCount != 1 || body.Remaining != 2 {
		t.Fatalf("unexpected stats body: %+v", body)
	}
	if !body.ResetTime.Equal(base.Add(10 * time.Second)) {
		t.Fatalf("unexpected reset time %v", body.ResetTime)
	}

	// Querying stats must not consume quota.
	if stats := limiter.StatsNow("198.51.100.1"); stats.RequestCount != 1 {
		t.Fatalf("expected stats endpoint to be read-only, got %+v", stats)
	}
}

func TestRateLimitHandler_Reset(t *testing.T) {
	router, limiter := newTestRouter(t)
	for i := 0; i < 3; i++ {
		limiter.CheckNow("client")
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/ratelimit/client", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	if decision := limiter.CheckNow("client"); !decision.Allowed || decision.Remaining != 2 {
		t.Fatalf("expected full quota after reset, got %+v", decision)
	}
}

func TestTestHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	TestHandler(rec, httptest.NewRequest(http.MethodGet, "/test", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
