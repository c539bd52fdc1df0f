// Package middleware disponibiliza middlewares HTTP específicos da aplicação.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/JeanGrijp/sliding-limiter/internal/core/domain"
	"github.com/JeanGrijp/sliding-limiter/internal/core/ports"
)

const rateLimitExceededMessage = "you have reached the maximum number of requests or actions allowed within a certain time frame"

func NewRateLimiterMiddleware(limiter ports.RateLimiter, log *zap.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("ratelimit.http")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := ClientKey(r)
			decision := limiter.CheckNow(key)
			writeRateLimitHeaders(w, limiter.Rule(), decision)

			if !decision.Allowed {
				log.Debug("request rejected",
					zap.String("key", key),
					zap.Duration("retry_after", decision.RetryAfter),
				)
				writeTooManyRequests(w, decision)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeRateLimitHeaders(w http.ResponseWriter, rule domain.RateLimitRule, decision domain.Decision) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(rule.MaxRequests))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetTime.Unix(), 10))
}

func writeTooManyRequests(w http.ResponseWriter, decision domain.Decision) {
	w.Header().Set("Retry-After", strconv.FormatInt(retryAfterSeconds(decision.RetryAfter), 10))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(rateLimitExceededMessage))
}

func retryAfterSeconds(d time.Duration) int64 {
	secs := int64(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}
