package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string
	Environment    string

	// Plan backend (optimizer/validator service)
	PlanAPIURL   string
	PlanAPIToken string
	EventID      string

	// Session snapshot store; empty disables snapshots
	RedisURL string
	// Audit trail; empty disables auditing
	DatabaseURL string

	// HS256 secret for operator bearer tokens
	AuthJWTSecret string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Environment:    getEnv("ENVIRONMENT", "production"),
		PlanAPIURL:     getEnv("PLAN_API_URL", ""),
		PlanAPIToken:   getEnv("PLAN_API_TOKEN", ""),
		EventID:        getEnv("EVENT_ID", ""),
		RedisURL:       getEnv("REDIS_URL", ""),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		AuthJWTSecret:  getEnv("AUTH_JWT_SECRET", ""),
	}

	if cfg.PlanAPIURL == "" {
		return nil, fmt.Errorf("PLAN_API_URL is required")
	}

	return cfg, nil
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// parseOrigins parses comma-separated origins into a slice
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
