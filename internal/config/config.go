// Package config loads service configuration from defaults, an optional
// .env file, and environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all runtime settings.
type Config struct {
	BackendHost string
	BackendPort int
	MetricsPort int

	DataDir string

	LogLevel  string
	LogFormat string

	// RequestDelay is an artificial per-request sleep applied by the API,
	// used to make latency visible on demo dashboards. Zero disables it.
	RequestDelay time.Duration

	// SeedDemoData controls whether the sample dataset is created on
	// startup when the database is empty.
	SeedDemoData bool
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	dataDir := "/var/lib/userdemo"
	if dir := os.Getenv("USERDEMO_DATA_DIR"); dir != "" {
		dataDir = dir
	}

	// Load .env from the data directory if present (deployment overrides).
	envFile := filepath.Join(dataDir, ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			log.Warn().Err(err).Str("file", envFile).Msg("Failed to load .env file")
		} else {
			log.Info().Str("file", envFile).Msg("Loaded .env file")
		}
	}

	// Also try the current directory for development.
	if err := godotenv.Load(); err == nil {
		log.Info().Msg("Loaded configuration from .env in current directory")
	}

	cfg := &Config{
		BackendHost:  "0.0.0.0",
		BackendPort:  8080,
		MetricsPort:  9091,
		DataDir:      dataDir,
		LogLevel:     "info",
		LogFormat:    "auto",
		RequestDelay: 0,
		SeedDemoData: true,
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if host := os.Getenv("USERDEMO_HOST"); host != "" {
		c.BackendHost = host
	}
	if port := os.Getenv("USERDEMO_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid USERDEMO_PORT %q: %w", port, err)
		}
		c.BackendPort = p
	}
	if port := os.Getenv("USERDEMO_METRICS_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid USERDEMO_METRICS_PORT %q: %w", port, err)
		}
		c.MetricsPort = p
	}
	if level := os.Getenv("USERDEMO_LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
	if format := os.Getenv("USERDEMO_LOG_FORMAT"); format != "" {
		c.LogFormat = format
	}
	if delay := os.Getenv("USERDEMO_REQUEST_DELAY"); delay != "" {
		d, err := time.ParseDuration(delay)
		if err != nil {
			return fmt.Errorf("invalid USERDEMO_REQUEST_DELAY %q: %w", delay, err)
		}
		if d < 0 {
			return fmt.Errorf("USERDEMO_REQUEST_DELAY must not be negative")
		}
		c.RequestDelay = d
	}
	if seed := os.Getenv("USERDEMO_SEED_DEMO_DATA"); seed != "" {
		c.SeedDemoData = parseBool(seed, c.SeedDemoData)
	}
	return nil
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		log.Warn().Str("value", value).Msg("Invalid boolean in environment, keeping default")
		return fallback
	}
}
