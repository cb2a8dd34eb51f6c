package cli

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/roach88/tesseract/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{Format: "text", LogLevel: slog.LevelError, BatchLimit: 2}
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	out := &bytes.Buffer{}
	cmd := NewRootCommand(cfg)
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}
