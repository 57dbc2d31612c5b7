package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string
	Environment    string
	DatabaseURL    string // empty selects the in-memory store
	RedisURL       string // empty disables caching and rate limiting
	JWTSecret      string
	JWTIssuer      string

	MinSampleSize    int
	ReportTopN       int
	ReportCacheTTL   time.Duration
	LessonPollWindow time.Duration
	SubmitRateLimit  int // per respondent per hour; 0 disables
	RequestTimeout   time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		AllowedOrigins:   parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:5174")),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		Environment:      getEnv("ENVIRONMENT", "production"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		RedisURL:         getEnv("REDIS_URL", ""),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTIssuer:        getEnv("JWT_ISSUER", ""),
		MinSampleSize:    getIntEnv("MIN_SAMPLE_SIZE", 3),
		ReportTopN:       getIntEnv("REPORT_TOP_N", 5),
		ReportCacheTTL:   getDurationEnv("REPORT_CACHE_TTL", 5*time.Minute),
		LessonPollWindow: getDurationEnv("LESSON_POLL_WINDOW", 7*24*time.Hour),
		SubmitRateLimit:  getIntEnv("SUBMIT_RATE_LIMIT", 30),
		RequestTimeout:   getDurationEnv("REQUEST_TIMEOUT", 30*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run with
func (c *Config) Validate() error {
	if c.JWTSecret == "" && c.Environment == "production" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.MinSampleSize < 1 {
		return fmt.Errorf("MIN_SAMPLE_SIZE must be at least 1, got %d", c.MinSampleSize)
	}
	if c.ReportTopN < 1 {
		return fmt.Errorf("REPORT_TOP_N must be at least 1, got %d", c.ReportTopN)
	}
	if c.SubmitRateLimit < 0 {
		return fmt.Errorf("SUBMIT_RATE_LIMIT must not be negative, got %d", c.SubmitRateLimit)
	}
	return nil
}

// IsDevelopment reports whether the server runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
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

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getDurationEnv gets a duration environment variable (e.g. "5m", "168h") with a fallback value
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
