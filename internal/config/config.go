package config

import (
	"os"
	"strconv"

	"seqab/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Simulation SimulationConfig
	Paths      PathConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string
}

// SimulationConfig holds default estimation settings
type SimulationConfig struct {
	Repetitions     int
	Workers         int
	MaxObservations int
	Seed            int64
}

// PathConfig holds file system paths
type PathConfig struct {
	ReportDir string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port: envOrDefault("PORT", "8080"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Simulation: SimulationConfig{
			Repetitions:     envIntOrDefault("SIM_REPETITIONS", 10000),
			Workers:         envIntOrDefault("SIM_WORKERS", 0),
			MaxObservations: envIntOrDefault("SIM_MAX_OBSERVATIONS", 500000),
			Seed:            int64(envIntOrDefault("SIM_SEED", 42)),
		},
		Paths: PathConfig{
			ReportDir: envOrDefault("REPORT_DIR", "."),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT cannot be empty")
	}
	if config.Simulation.Repetitions <= 0 {
		return errors.ConfigInvalid("SIM_REPETITIONS must be positive")
	}
	if config.Simulation.MaxObservations <= 0 {
		return errors.ConfigInvalid("SIM_MAX_OBSERVATIONS must be positive")
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
