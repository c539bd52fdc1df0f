package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig = errors.New("invalid rate limiter configuration")
)

// ConfigurationError indica uma configuração inválida detectada na construção.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidConfig, e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidConfig
}

func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}
