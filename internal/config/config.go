package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Redis (optional, fan-out of state updates across replicas)
	RedisURL string

	// YouTube
	YouTubeAPIKey  string
	OEmbedEndpoint string

	// Collections
	ValidationTimeout             time.Duration
	DistinguishValidationFailures bool
	SeedDefaultVideo              bool

	// Sessions
	MaxSessions    int
	SessionIdleTTL time.Duration

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                          getEnvOrDefault("PORT", "8080"),
		Env:                           getEnvOrDefault("ENV", "development"),
		RedisURL:                      getEnvOrDefault("REDIS_URL", ""),
		YouTubeAPIKey:                 getEnvOrDefault("YOUTUBE_API_KEY", ""),
		OEmbedEndpoint:                getEnvOrDefault("OEMBED_ENDPOINT", "https://www.youtube.com/oembed"),
		ValidationTimeout:             getEnvAsDurationOrDefault("VALIDATION_TIMEOUT", 10*time.Second),
		DistinguishValidationFailures: getEnvAsBoolOrDefault("DISTINGUISH_VALIDATION_FAILURES", false),
		SeedDefaultVideo:              getEnvAsBoolOrDefault("SEED_DEFAULT_VIDEO", true),
		MaxSessions:                   getEnvAsIntOrDefault("MAX_SESSIONS", 1000),
		SessionIdleTTL:                getEnvAsDurationOrDefault("SESSION_IDLE_TTL", 24*time.Hour),
		FrontendURL:                   getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

// getEnvAsDurationOrDefault accepts Go durations ("15s") or plain seconds ("15").
// "0" disables the bound.
func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil && d >= 0 {
		return d
	}
	if secs := getEnvAsIntOrDefault(key, -1); secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultVal
}
