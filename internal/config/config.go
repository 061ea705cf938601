// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/abfi/platform/internal/modules/rating"
	"github.com/abfi/platform/internal/modules/stresstest"
)

// Config holds application configuration
type Config struct {
	DataDir         string // Base directory for the database (always absolute)
	LogLevel        string
	Port            int
	DevMode         bool
	StandardsPath   string // Optional YAML overrides for the rating standards
	RescoreSchedule string // Cron spec with seconds; "off" in the environment disables nightly rescoring
	RescoreWorkers  int
	RescoreTimeout  time.Duration
	ShutdownTimeout time.Duration
	Covenant        stresstest.Covenant
	Archive         ArchiveConfig
}

// ArchiveConfig holds S3-compatible archive settings. Archiving is disabled
// when Bucket is empty.
type ArchiveConfig struct {
	Bucket          string
	Prefix          string
	Endpoint        string // Custom endpoint for R2 / MinIO
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// Enabled reports whether an archive bucket is configured.
func (a ArchiveConfig) Enabled() bool {
	return a.Bucket != ""
}

// DatabasePath returns the SQLite file location inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "abfi.db")
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("ABFI_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:         absDataDir,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Port:            getEnvAsInt("GO_PORT", 8080),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		StandardsPath:   getEnv("ABFI_STANDARDS_PATH", ""),
		RescoreSchedule: getSchedule("RESCORE_SCHEDULE", "0 0 3 * * *"), // 03:00 daily
		RescoreWorkers:  getEnvAsInt("RESCORE_WORKERS", 4),
		RescoreTimeout:  getEnvAsDuration("RESCORE_TIMEOUT", 30*time.Minute),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		Covenant: stresstest.Covenant{
			MinSupplyCoverage: getEnvAsFloat("COVENANT_MIN_SUPPLY_COVERAGE", stresstest.DefaultMinSupplyCoverage),
			MaxCostIncrease:   getEnvAsFloat("COVENANT_MAX_COST_INCREASE", stresstest.DefaultMaxCostIncrease),
		},
		Archive: ArchiveConfig{
			Bucket:          getEnv("ARCHIVE_BUCKET", ""),
			Prefix:          getEnv("ARCHIVE_PREFIX", "abfi"),
			Endpoint:        getEnv("ARCHIVE_ENDPOINT", ""),
			Region:          getEnv("ARCHIVE_REGION", "auto"),
			AccessKeyID:     getEnv("ARCHIVE_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("ARCHIVE_SECRET_ACCESS_KEY", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration is usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid GO_PORT %d", c.Port)
	}
	if c.RescoreWorkers < 1 {
		return fmt.Errorf("RESCORE_WORKERS must be at least 1, got %d", c.RescoreWorkers)
	}
	if c.RescoreTimeout <= 0 {
		return fmt.Errorf("RESCORE_TIMEOUT must be positive, got %s", c.RescoreTimeout)
	}
	if c.RescoreSchedule != "" {
		parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(c.RescoreSchedule); err != nil {
			return fmt.Errorf("invalid RESCORE_SCHEDULE %q: %w", c.RescoreSchedule, err)
		}
	}
	if err := c.Covenant.Validate(); err != nil {
		return err
	}
	if c.Archive.Enabled() && (c.Archive.AccessKeyID == "") != (c.Archive.SecretAccessKey == "") {
		return fmt.Errorf("ARCHIVE_ACCESS_KEY_ID and ARCHIVE_SECRET_ACCESS_KEY must be set together")
	}
	return nil
}

// LoadStandards returns the rating standards to score with: the YAML overrides
// at StandardsPath when set, otherwise the built-in tables.
func (c *Config) LoadStandards() (rating.LoadedStandards, error) {
	if c.StandardsPath == "" {
		return rating.LoadedStandards{
			Standards: rating.DefaultStandards(),
			Digest:    rating.BuiltinStandardsDigest,
		}, nil
	}
	loaded, err := rating.LoadStandards(c.StandardsPath)
	if err != nil {
		return rating.LoadedStandards{}, fmt.Errorf("failed to load standards from %s: %w", c.StandardsPath, err)
	}
	return loaded, nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getSchedule maps "off" or "disabled" to an empty schedule
func getSchedule(key, defaultValue string) string {
	value := getEnv(key, defaultValue)
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "off", "disabled", "none":
		return ""
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
