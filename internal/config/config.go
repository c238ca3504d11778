// Package config provides configuration loading for the location agent.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all location agent configuration.
type Config struct {
	// HTTP listen address
	HTTPAddr string

	// Storage backend: "redis" or "file"
	StoreBackend string

	// Redis connection settings (store backend "redis")
	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int

	// Path of the JSON store file (store backend "file")
	StoreFile string

	// Reverse geocoder endpoint and identification
	GeocoderBaseURL   string
	GeocoderUserAgent string
	GeocoderTimeout   time.Duration

	// Upper bound on a single position fix acquisition
	PositionTimeout time.Duration

	// Prompt throttling policy. At most PromptGraceLimit prompts may be shown
	// within PromptGraceWindow of the first one; after that the prompt stays
	// silent until the PromptCooldownWindow slides past the recorded prompts.
	PromptGraceWindow    time.Duration
	PromptGraceLimit     int
	PromptCooldownWindow time.Duration

	// Interval of the periodic permission re-check; 0 disables the monitor
	RecheckInterval time.Duration

	// Logging
	LogLevel  string
	LogFormat string
	LogOutput string

	Environment string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:             getEnv("HTTP_ADDR", ":8089"),
		StoreBackend:         getEnv("STORE_BACKEND", "file"),
		RedisHost:            getEnv("REDIS_HOST", "localhost"),
		RedisPort:            getEnvInt("REDIS_PORT", 6379),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		StoreFile:            getEnv("STORE_FILE", "locationd.json"),
		GeocoderBaseURL:      getEnv("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org"),
		GeocoderUserAgent:    getEnv("GEOCODER_USER_AGENT", "noline-locationd/1.0"),
		GeocoderTimeout:      getEnvDuration("GEOCODER_TIMEOUT", 10*time.Second),
		PositionTimeout:      getEnvDuration("POSITION_TIMEOUT", 30*time.Second),
		PromptGraceWindow:    getEnvDuration("PROMPT_GRACE_WINDOW", 15*time.Minute),
		PromptGraceLimit:     getEnvInt("PROMPT_GRACE_LIMIT", 2),
		PromptCooldownWindow: getEnvDuration("PROMPT_COOLDOWN_WINDOW", 24*time.Hour),
		RecheckInterval:      getEnvDuration("RECHECK_INTERVAL", 15*time.Minute),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "json"),
		LogOutput:            getEnv("LOG_OUTPUT", "stdout"),
		Environment:          getEnv("ENVIRONMENT", "development"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.StoreBackend != "redis" && c.StoreBackend != "file" {
		return fmt.Errorf("STORE_BACKEND must be \"redis\" or \"file\", got %q", c.StoreBackend)
	}
	if c.StoreBackend == "file" && c.StoreFile == "" {
		return fmt.Errorf("STORE_FILE is required for the file store backend")
	}
	if c.PromptGraceLimit < 1 {
		return fmt.Errorf("PROMPT_GRACE_LIMIT must be at least 1")
	}
	if c.PromptGraceWindow <= 0 {
		return fmt.Errorf("PROMPT_GRACE_WINDOW must be positive")
	}
	if c.PromptCooldownWindow <= c.PromptGraceWindow {
		return fmt.Errorf("PROMPT_COOLDOWN_WINDOW must exceed PROMPT_GRACE_WINDOW")
	}
	if c.GeocoderBaseURL == "" {
		return fmt.Errorf("GEOCODER_BASE_URL is required")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
