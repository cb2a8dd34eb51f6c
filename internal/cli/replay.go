package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tesseract/internal/engine"
	"github.com/roach88/tesseract/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Schema   string
	Database string
	Cube     string // optional - one cube only
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}
	defaultSchema, defaultDB := "", ""
	if rootOpts.Config != nil {
		defaultSchema, defaultDB = rootOpts.Config.SchemaDir, rootOpts.Config.DB
	}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-resolve the resolution log and report drift",
		Long: `Re-resolve every logged request against the current schema.

A record drifts when its outcome or its query fingerprint changed. Drift
under an unchanged schema hash means resolution is not deterministic;
drift under a new schema hash shows which stored requests a schema change
affects. Replay never writes to the log.

Exit codes:
  0 - Every record re-resolved identically
  1 - One or more records drifted
  2 - Command error (database not found, etc.)

Examples:
  tess replay --schema ./cubes --db ./tess.db
  tess replay --schema ./cubes --db ./tess.db --cube sales
  tess replay --schema ./cubes --db ./tess.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Schema, "schema", defaultSchema, "schema directory (default $TESS_SCHEMA_DIR)")
	cmd.Flags().StringVar(&opts.Database, "db", defaultDB, "path to SQLite database (default $TESS_DB)")
	cmd.Flags().StringVar(&opts.Cube, "cube", "", "replay records of one cube only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	if err := requireDatabase(opts.Database); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, err.Error(), nil)
	}

	schemaDir, err := schemaDirArg(opts.RootOptions, nonEmpty(opts.Schema))
	if err != nil {
		return err
	}
	s, loaded, err := LoadSchema(schemaDir)
	if err != nil {
		code, message := loadErrorCode(err)
		return formatter.Fail(ExitCommandError, code, message, nil)
	}

	eng, closeStore, err := openEngine(ctx, opts.RootOptions, opts.Database, s, loaded.Hash, nil)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, err.Error(), nil)
	}
	defer closeStore()

	report, err := eng.Replay(ctx, store.ListOptions{Cube: opts.Cube})
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("replay failed: %v", err), nil)
	}

	if formatter.IsJSON() {
		return outputReplayJSON(formatter, report)
	}
	return outputReplayText(formatter, report)
}

// requireDatabase checks that an existing log was named; opening a missing
// path would silently create an empty one.
func requireDatabase(path string) error {
	if path == "" {
		return fmt.Errorf("database path required (--db or TESS_DB)")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("database not found: %s", path)
	}
	return nil
}

// outputReplayJSON outputs the replay report as JSON.
func outputReplayJSON(formatter *OutputFormatter, report *engine.ReplayReport) error {
	response := CLIResponse{Status: "ok", Data: report}
	if !report.Clean() {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_DRIFT",
			Message: fmt.Sprintf("%d of %d record(s) drifted", len(report.Drifts), report.Checked),
		}
	}

	if err := formatter.Response(response); err != nil {
		return err
	}

	if !report.Clean() {
		// Drift = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d record(s) drifted", len(report.Drifts)))
	}
	return nil
}

// outputReplayText outputs the replay report as text.
func outputReplayText(formatter *OutputFormatter, report *engine.ReplayReport) error {
	w := formatter.Writer

	if report.Checked == 0 {
		fmt.Fprintln(w, "No resolutions found in database.")
		return nil
	}

	for _, d := range report.Drifts {
		fmt.Fprintf(w, "✗ %s (seq %d, cube %s)\n", d.ResolutionID, d.Seq, d.Cube)
		if d.LoggedOutcome != d.ReplayedOutcome {
			fmt.Fprintf(w, "  outcome: %s → %s\n", d.LoggedOutcome, d.ReplayedOutcome)
		}
		if d.LoggedFingerprint != d.ReplayFingerprint {
			fmt.Fprintf(w, "  fingerprint: %s → %s\n", shortFingerprint(d.LoggedFingerprint), shortFingerprint(d.ReplayFingerprint))
		}
		if d.SchemaChanged {
			fmt.Fprintln(w, "  (logged under another schema revision)")
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Replay Summary: %d checked, %d drifted\n", report.Checked, len(report.Drifts))

	if !report.Clean() {
		// Drift = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d record(s) drifted", len(report.Drifts)))
	}

	fmt.Fprintln(w, "✓ All resolutions reproduced")
	return nil
}
