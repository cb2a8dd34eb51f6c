package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tesseract/internal/ir"
	"github.com/roach88/tesseract/internal/store"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	Database string
	Cube     string
	Outcome  string
	AfterSeq int64
	Limit    uint64
}

// LogResult holds the listed resolutions.
type LogResult struct {
	Resolutions []ir.Resolution `json:"resolutions"`
	Total       int             `json:"total"`
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}
	defaultDB := ""
	if rootOpts.Config != nil {
		defaultDB = rootOpts.Config.DB
	}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "List logged resolutions",
		Long: `List the resolution log in log order (seq, then id).

Text output prints one line per record; JSON output carries the full
records including the stored request and the canonical query snapshot.

Examples:
  tess log --db ./tess.db
  tess log --db ./tess.db --cube sales --outcome NOT_AUTHORIZED
  tess log --db ./tess.db --after 100 --limit 20 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", defaultDB, "path to SQLite database (default $TESS_DB)")
	cmd.Flags().StringVar(&opts.Cube, "cube", "", "only records of this cube")
	cmd.Flags().StringVar(&opts.Outcome, "outcome", "", "only records with this outcome (OK or an error code)")
	cmd.Flags().Int64Var(&opts.AfterSeq, "after", 0, "only records after this seq")
	cmd.Flags().Uint64Var(&opts.Limit, "limit", 0, "maximum number of records (0 = all)")

	return cmd
}

func runLog(opts *LogOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	if err := requireDatabase(opts.Database); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, err.Error(), nil)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("failed to open database: %v", err), nil)
	}
	defer st.Close()

	records, err := st.ListResolutions(ctx, store.ListOptions{
		Cube:     opts.Cube,
		Outcome:  opts.Outcome,
		AfterSeq: opts.AfterSeq,
		Limit:    opts.Limit,
	})
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("failed to list resolutions: %v", err), nil)
	}

	result := LogResult{Resolutions: records, Total: len(records)}
	if formatter.IsJSON() {
		return formatter.Success(result)
	}
	return outputLogText(formatter, result)
}

// outputLogText prints one line per record.
func outputLogText(formatter *OutputFormatter, result LogResult) error {
	w := formatter.Writer

	if result.Total == 0 {
		fmt.Fprintln(w, "No resolutions found.")
		return nil
	}

	for _, rec := range result.Resolutions {
		mark := "✓"
		detail := shortFingerprint(rec.Fingerprint)
		if !rec.OK() {
			mark = "✗"
			detail = rec.Error
		}
		fmt.Fprintf(w, "%s %6d  %s  %-7s %-12s %s  %s\n", mark, rec.Seq, rec.ID, rec.Kind, rec.Cube, rec.Outcome, detail)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d resolution(s)\n", result.Total)
	return nil
}
