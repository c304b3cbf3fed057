package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration, loaded from the environment
type Config struct {
	Port     string
	LogLevel string
	LogFile  string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	// Bounded timeout applied to every store operation issued by a handler
	StoreTimeout time.Duration

	// Fixed-window rate limit for the track endpoint
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Load reads configuration from environment variables, loading a local .env
// file first if one exists.
func Load() *Config {
	// .env is optional; system environment wins in production
	_ = godotenv.Load()

	return &Config{
		Port:              getEnv("PORT", "8787"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFile:           getEnv("LOG_FILE", "server.log"),
		RedisHost:         os.Getenv("REDIS_HOST"),
		RedisPort:         getEnv("REDIS_PORT", "6379"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		StoreTimeout:      3 * time.Second,
		RateLimitRequests: 60,
		RateLimitWindow:   time.Minute,
	}
}

// RedisConfigured reports whether a Redis connection was configured at all.
// When false the analytics endpoints answer 503 instead of touching a store.
func (c *Config) RedisConfigured() bool {
	return c.RedisHost != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
