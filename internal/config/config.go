// Package config centraliza o carregamento de configurações da aplicação.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server        ServerConfig
	Observability ObservabilityConfig
	Storage       StorageConfig
	RateLimiter   RateLimiterConfig
}

type ServerConfig struct {
	Port string
}

type ObservabilityConfig struct {
	ServiceName string
	Env         string
	LogLevel    string
	MetricsPath string
}

type StorageConfig struct {
	Shards int
}

// RateLimiterConfig carrega os valores brutos; a validação de cota e janela
// fica a cargo do serviço.
type RateLimiterConfig struct {
	MaxRequests      int
	Window           time.Duration
	EvictionHorizon  time.Duration
	SweepInterval    time.Duration
	SweepEvery       uint64
	RetryGranularity time.Duration
}

func Load() (Config, error) {
	_ = godotenv.Load()

	server := ServerConfig{Port: getEnv("SERVER_PORT", "8080")}

	observability := ObservabilityConfig{
		ServiceName: getEnv("SERVICE_NAME", "sliding-limiter"),
		Env:         getEnv("APP_ENV", "dev"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		MetricsPath: getEnv("METRICS_PATH", "/metrics"),
	}

	shards, err := strconv.Atoi(getEnv("RATE_LIMIT_SHARDS", "32"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid RATE_LIMIT_SHARDS: %w", err)
	}

	rateLimiterConfig, err := buildRateLimiterConfig()
	if err != nil {
		return Config{}, err
	}

	return Config{
		Server:        server,
		Observability: observability,
		Storage:       StorageConfig{Shards: shards},
		RateLimiter:   rateLimiterConfig,
	}, nil
}

func buildRateLimiterConfig() (RateLimiterConfig, error) {
	maxRequests, err := strconv.Atoi(getEnv("RATE_LIMIT_MAX_REQUESTS", "5"))
	if err != nil {
		return RateLimiterConfig{}, fmt.Errorf("invalid RATE_LIMIT_MAX_REQUESTS: %w", err)
	}
	window, err := getMillis("RATE_LIMIT_WINDOW_MS", "10000")
	if err != nil {
		return RateLimiterConfig{}, err
	}
	horizon, err := getMillis("RATE_LIMIT_EVICTION_HORIZON_MS", "0")
	if err != nil {
		return RateLimiterConfig{}, err
	}
	sweepInterval, err := getMillis("RATE_LIMIT_SWEEP_INTERVAL_MS", "0")
	if err != nil {
		return RateLimiterConfig{}, err
	}
	sweepEvery, err := strconv.ParseUint(getEnv("RATE_LIMIT_SWEEP_EVERY", "0"), 10, 64)
	if err != nil {
		return RateLimiterConfig{}, fmt.Errorf("invalid RATE_LIMIT_SWEEP_EVERY: %w", err)
	}
	granularity, err := getMillis("RATE_LIMIT_RETRY_GRANULARITY_MS", "1000")
	if err != nil {
		return RateLimiterConfig{}, err
	}

	return RateLimiterConfig{
		MaxRequests:      maxRequests,
		Window:           window,
		EvictionHorizon:  horizon,
		SweepInterval:    sweepInterval,
		SweepEvery:       sweepEvery,
		RetryGranularity: granularity,
	}, nil
}

func getMillis(key, fallback string) (time.Duration, error) {
	ms, err := strconv.ParseInt(getEnv(key, fallback), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
