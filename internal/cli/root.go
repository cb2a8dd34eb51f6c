package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tesseract/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	LogLevel string

	// Config supplies flag defaults and settings without a flag.
	Config *config.Config

	// Logger is installed by the root command before any subcommand runs.
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the tess CLI.
// A nil cfg reads the environment.
func NewRootCommand(cfg *config.Config) *cobra.Command {
	if cfg == nil {
		cfg = config.FromEnv()
	}
	opts := &RootOptions{Config: cfg, Logger: slog.Default()}

	cmd := &cobra.Command{
		Use:   "tess",
		Short: "tess - OLAP query resolution",
		Long: `Resolve analytical requests against a cube schema into a canonical,
backend-neutral query.

Schemas are CUE directories; requests are YAML documents. Resolved queries
can be printed as canonical IR or compiled to SQL, and every resolution can
be appended to a SQLite log for later replay.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			level, err := config.ParseLogLevel(opts.LogLevel)
			if err != nil {
				return err
			}
			if opts.Verbose && level > slog.LevelDebug {
				level = slog.LevelDebug
			}
			opts.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", cfg.Format, "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", cfg.LogLevel.String(), "log level (debug|info|warn|error)")

	// Add subcommands
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewResolveCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewLogCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// schemaDirArg returns the positional schema directory, or the configured
// one when the argument is omitted.
func schemaDirArg(opts *RootOptions, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if opts.Config != nil && opts.Config.SchemaDir != "" {
		return opts.Config.SchemaDir, nil
	}
	return "", NewExitError(ExitCommandError, fmt.Sprintf("%s: schema directory required (argument or %s)", ErrCodeNotFound, config.EnvSchemaDir))
}

// Execute loads .env and the environment, runs the tess command tree and
// returns the process exit code.
func Execute() int {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitCommandError
	}

	err = NewRootCommand(cfg).Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return GetExitCode(err)
}
