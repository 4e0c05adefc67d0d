package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	Port       string
	Env        string

	// Shared secret gating the analytics endpoints
	AnalyticsAPIKey string

	// Optional Redis URL; when set, realtime events fan out across
	// instances and the rate limiter uses a shared store
	RedisURL string

	// Signup rate limit per client address
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// LoadConfig loads configuration from environment variables. A missing .env
// file is not fatal; the environment may already be populated.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		DBHost:            os.Getenv("DB_HOST"),
		DBPort:            os.Getenv("DB_PORT"),
		DBUser:            os.Getenv("DB_USER"),
		DBPassword:        os.Getenv("DB_PASSWORD"),
		DBName:            os.Getenv("DB_NAME"),
		Port:              os.Getenv("PORT"),
		Env:               os.Getenv("ENV"),
		AnalyticsAPIKey:   os.Getenv("ANALYTICS_API_KEY"),
		RedisURL:          os.Getenv("REDIS_URL"),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 5),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
	}
	if config.Port == "" {
		config.Port = "8080"
	}

	return config, nil
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
