package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JeanGrijp/sliding-limiter/internal/adapters/http/middleware"
	"github.com/JeanGrijp/sliding-limiter/internal/core/ports"
)

type statsResponse struct {
	Key          string    `json:"key"`
	Limit        int       `json:"limit"`
	RequestCount int       `json:"request_count"`
	Remaining    int       `json:"remaining"`
	ResetTime    time.Time `json:"reset_time"`
}

// RateLimitHandler expõe consulta e reset das janelas por chave.
type RateLimitHandler struct {
	limiter ports.RateLimiter
}

func NewRateLimitHandler(limiter ports.RateLimiter) *RateLimitHandler {
	return &RateLimitHandler{limiter: limiter}
}

func (h *RateLimitHandler) Routes(r chi.Router) {
	r.Get("/ratelimit/{key}", h.Stats)
	r.Delete("/ratelimit/{key}", h.Reset)
}

func (h *RateLimitHandler) Stats(w http.ResponseWriter, r *http.Request) {
	key := middleware.NormalizeKey(chi.URLParam(r, "key"))
	if key == "" {
		http.Error(w, "key is required", http.StatusBadRequest)
		return
	}

	stats := h.limiter.StatsNow(key)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(statsResponse{
		Key:          key,
		Limit:        h.limiter.Rule().MaxRequests,
		RequestCount: stats.RequestCount,
		Remaining:    stats.Remaining,
		ResetTime:    stats.ResetTime.UTC(),
	})
}

func (h *RateLimitHandler) Reset(w http.ResponseWriter, r *http.Request) {
	key := middleware.NormalizeKey(chi.URLParam(r, "key"))
	if key == "" {
		http.Error(w, "key is required", http.StatusBadRequest)
		return
	}

	h.limiter.Reset(key)
	w.WriteHeader(http.StatusNoContent)
}
