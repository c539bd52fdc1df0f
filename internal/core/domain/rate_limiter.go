// Package domain concentra entidades e estruturas centrais do rate limiter.
package domain

import "time"

// RateLimitRule define a cota aplicada a cada chave: no máximo MaxRequests
// admissões dentro de qualquer janela deslizante de duração Window.
type RateLimitRule struct {
	MaxRequests int
	Window      time.Duration
}

// Validate rejeita regras com valores não positivos.
func (r RateLimitRule) Validate() error {
	if r.MaxRequests <= 0 {
		return &ConfigurationError{Field: "MaxRequests", Reason: "must be positive"}
	}
	if r.Window <= 0 {
		return &ConfigurationError{Field: "Window", Reason: "must be positive"}
	}
	return nil
}

// Decision é o resultado de uma verificação de admissão.
type Decision struct {
	Allowed    bool
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Stats é a projeção somente leitura da janela de uma chave.
type Stats struct {
	RequestCount int
	Remaining    int
	ResetTime    time.Time
}
