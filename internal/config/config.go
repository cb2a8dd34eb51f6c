// Package config loads tess settings from the environment, optionally seeded
// from a .env file. Values become the defaults of the CLI flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/roach88/tesseract/internal/engine"
)

// Environment variable names.
const (
	EnvSchemaDir  = "TESS_SCHEMA_DIR"
	EnvDB         = "TESS_DB"
	EnvFormat     = "TESS_FORMAT"
	EnvLogLevel   = "TESS_LOG_LEVEL"
	EnvBatchLimit = "TESS_BATCH_LIMIT"
)

// Config holds the settings of one tess invocation. Flags given on the
// command line override them.
type Config struct {
	SchemaDir  string
	DB         string
	Format     string
	LogLevel   slog.Level
	BatchLimit int
}

// Load reads envFile (".env" when empty) into the process environment and
// builds a Config. A missing file is not an error; variables already set in
// the environment are never overridden by the file.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}
	return FromEnv(), nil
}

// FromEnv builds a Config from the current environment. Invalid values fall
// back to their defaults with a warning.
func FromEnv() *Config {
	cfg := &Config{
		SchemaDir:  getEnv(EnvSchemaDir, ""),
		DB:         getEnv(EnvDB, ""),
		Format:     getEnv(EnvFormat, "text"),
		LogLevel:   slog.LevelWarn,
		BatchLimit: getEnvInt(EnvBatchLimit, engine.DefaultBatchLimit),
	}

	if raw := getEnv(EnvLogLevel, ""); raw != "" {
		level, err := ParseLogLevel(raw)
		if err != nil {
			slog.Warn("env_invalid_log_level", "key", EnvLogLevel, "value", raw, "fallback", cfg.LogLevel.String())
		} else {
			cfg.LogLevel = level
		}
	}
	return cfg
}

// ParseLogLevel accepts debug, info, warn or error in any case.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", s)
	}
	return level, nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		slog.Warn("env_invalid_int", "key", key, "value", value, "fallback", fallback)
		return fallback
	}
	return parsed
}
