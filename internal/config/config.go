// Package config manages application configuration
package config

import (
	"os"
	"strconv"
	"time"
)

// DefaultAccrualInterval is how often the accrual pass recomputes
// investment values. Settlement latency is bounded by this interval;
// that staleness window is an accepted trade-off for this domain.
const DefaultAccrualInterval = 15 * time.Minute

// Config holds all application configuration
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"

	// Database
	DatabaseURL string

	// Security
	SecretKey string // For JWT signing

	// Session settings
	SessionDuration time.Duration

	// Accrual scheduler
	AccrualInterval time.Duration

	// Rate limiting for auth endpoints (requests per second, burst)
	AuthRateLimit float64
	AuthRateBurst int
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		Port:            getEnv("OAKLINE_PORT", "8080"),
		Environment:     getEnv("OAKLINE_ENV", "development"),
		DatabaseURL:     getEnv("OAKLINE_DATABASE_URL", "oakline.db"),
		SecretKey:       getEnv("OAKLINE_SECRET_KEY", "dev-secret-key-change-in-production"),
		SessionDuration: getDurationEnv("OAKLINE_SESSION_DURATION", 24*time.Hour),
		AccrualInterval: getDurationEnv("OAKLINE_ACCRUAL_INTERVAL", DefaultAccrualInterval),
		AuthRateLimit:   getFloatEnv("OAKLINE_AUTH_RATE_LIMIT", 1),
		AuthRateBurst:   getIntEnv("OAKLINE_AUTH_RATE_BURST", 5),
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
