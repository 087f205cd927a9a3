package config

import (
	"os"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string

	// Evolution API (WhatsApp gateway) credentials.
	EvolutionAPIURL   string
	EvolutionInstance string
	EvolutionAPIKey   string

	// BusinessTimezone is the fixed civil calendar every date/weekday
	// computation runs in, regardless of the host timezone.
	BusinessTimezone string
	BusinessAddress  string

	AdminJWTSecret     string
	CORSAllowedOrigins []string

	ReminderPollInterval time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		EvolutionAPIURL:   getEnv("EVOLUTION_API_URL", ""),
		EvolutionInstance: getEnv("EVOLUTION_INSTANCE", ""),
		EvolutionAPIKey:   getEnv("EVOLUTION_API_KEY", ""),

		BusinessTimezone: getEnv("BUSINESS_TIMEZONE", "America/Sao_Paulo"),
		BusinessAddress:  getEnv("BUSINESS_ADDRESS", "Rua Example, 123 - Centro"),

		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "")),

		ReminderPollInterval: getEnvAsDuration("REMINDER_POLL_INTERVAL", time.Minute),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
