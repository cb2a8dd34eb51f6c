package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tesseract/internal/engine"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvSchemaDir, EnvDB, EnvFormat, EnvLogLevel, EnvBatchLimit} {
		t.Setenv(key, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := FromEnv()
	assert.Equal(t, &Config{Format: "text", LogLevel: slog.LevelWarn, BatchLimit: engine.DefaultBatchLimit}, cfg)
}

func TestFromEnv_Values(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvSchemaDir, "./schema")
	t.Setenv(EnvDB, "/tmp/tess.db")
	t.Setenv(EnvFormat, "json")
	t.Setenv(EnvLogLevel, "DEBUG")
	t.Setenv(EnvBatchLimit, " 3 ")

	cfg := FromEnv()
	assert.Equal(t, "./schema", cfg.SchemaDir)
	assert.Equal(t, "/tmp/tess.db", cfg.DB)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 3, cfg.BatchLimit)
}

func TestFromEnv_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvLogLevel, "loud")
	t.Setenv(EnvBatchLimit, "-2")

	cfg := FromEnv()
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, engine.DefaultBatchLimit, cfg.BatchLimit)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv(EnvSchemaDir)
	os.Unsetenv(EnvDB)
	t.Setenv(EnvFormat, "text")

	path := filepath.Join(t.TempDir(), "tess.env")
	require.NoError(t, os.WriteFile(path, []byte("TESS_SCHEMA_DIR=cubes\nTESS_DB=log.db\nTESS_FORMAT=json\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "cubes", cfg.SchemaDir)
	assert.Equal(t, "log.db", cfg.DB)
	assert.Equal(t, "text", cfg.Format, "environment wins over the file")
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.Format)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{" error ", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLogLevel("verbose")
	assert.ErrorContains(t, err, "invalid log level")
}
