// Package ports define contratos que conectam o domínio a implementações externas.
package ports

import (
	"time"

	"github.com/JeanGrijp/sliding-limiter/internal/core/domain"
)

type RateLimiter interface {
	Check(key string, now time.Time) domain.Decision
	CheckNow(key string) domain.Decision
	Reset(key string)
	Stats(key string, now time.Time) domain.Stats
	StatsNow(key string) domain.Stats
	Rule() domain.RateLimitRule
}
