package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/tesseract/internal/engine"
	"github.com/roach88/tesseract/internal/ir"
	"github.com/roach88/tesseract/internal/querysql"
	"github.com/roach88/tesseract/internal/request"
	"github.com/roach88/tesseract/internal/schema"
	"github.com/roach88/tesseract/internal/store"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	*RootOptions
	Schema   string
	Database string
	SQL      bool

	// IDGenerator allows overriding the record ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator engine.IDGenerator
}

// ResolveItem is the outcome of one request file.
type ResolveItem struct {
	File         string    `json:"file"`
	Kind         string    `json:"kind"`
	Cube         string    `json:"cube"`
	Outcome      string    `json:"outcome"`
	Error        string    `json:"error,omitempty"`
	Fingerprint  string    `json:"fingerprint,omitempty"`
	ResolutionID string    `json:"resolution_id,omitempty"`
	Seq          int64     `json:"seq,omitempty"`
	Query        ir.Object `json:"query,omitempty"`
	SQL          string    `json:"sql,omitempty"`
	Args         []any     `json:"args,omitempty"`
}

// ResolveResult holds every resolved request, in argument order.
type ResolveResult struct {
	Items  []ResolveItem `json:"items"`
	Failed int           `json:"failed"`
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}
	defaultSchema, defaultDB := "", ""
	if rootOpts.Config != nil {
		defaultSchema, defaultDB = rootOpts.Config.SchemaDir, rootOpts.Config.DB
	}

	cmd := &cobra.Command{
		Use:   "resolve <request.yaml>...",
		Short: "Resolve requests into canonical queries",
		Long: `Resolve one or more YAML requests against a cube schema.

Each file holds one data request, or a members request when it sets
"kind: members". Several files are resolved concurrently; output keeps the
argument order. With --db every resolution, failed or not, is appended to
the resolution log.

Exit codes:
  0 - Every request resolved
  1 - One or more requests failed to resolve
  2 - Command error (schema not found, unreadable request, etc.)

Examples:
  tess resolve --schema ./cubes request.yaml
  tess resolve --schema ./cubes --sql request.yaml
  tess resolve --schema ./cubes --db ./tess.db a.yaml b.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Schema, "schema", defaultSchema, "schema directory (default $TESS_SCHEMA_DIR)")
	cmd.Flags().StringVar(&opts.Database, "db", defaultDB, "append resolutions to this SQLite log")
	cmd.Flags().BoolVar(&opts.SQL, "sql", false, "print compiled SQL instead of the canonical query")

	return cmd
}

func runResolve(opts *ResolveOptions, files []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	schemaDir, err := schemaDirArg(opts.RootOptions, nonEmpty(opts.Schema))
	if err != nil {
		return err
	}
	s, loaded, err := LoadSchema(schemaDir)
	if err != nil {
		code, message := loadErrorCode(err)
		return formatter.Fail(ExitCommandError, code, message, nil)
	}

	reqs := make([]request.Request, len(files))
	for i, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, fmt.Sprintf("reading request: %v", err), nil)
		}
		reqs[i], err = request.Decode(data)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, fmt.Sprintf("%s: %v", filepath.Base(file), err), nil)
		}
	}

	eng, closeStore, err := openEngine(ctx, opts.RootOptions, opts.Database, s, loaded.Hash, opts.IDGenerator)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, err.Error(), nil)
	}
	defer closeStore()

	results, err := eng.ResolveBatch(ctx, reqs)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, err.Error(), nil)
	}

	result := ResolveResult{Items: make([]ResolveItem, 0, len(results))}
	compiler := querysql.NewSQLCompiler()
	for i, res := range results {
		item, err := buildResolveItem(files[i], res, compiler, opts.SQL)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
		}
		if item.Outcome != ir.OutcomeOK {
			result.Failed++
		}
		result.Items = append(result.Items, item)
	}

	if formatter.IsJSON() {
		return outputResolveJSON(formatter, result)
	}
	return outputResolveText(formatter, result, opts.SQL)
}

func buildResolveItem(file string, res *engine.Result, compiler *querysql.SQLCompiler, withSQL bool) (ResolveItem, error) {
	item := ResolveItem{
		File:         file,
		Kind:         string(res.Request.Kind()),
		Cube:         res.Request.CubeName(),
		Outcome:      res.Outcome(),
		Fingerprint:  res.Fingerprint,
		ResolutionID: res.ResolutionID,
		Seq:          res.Seq,
	}
	if res.Err != nil {
		item.Error = res.Err.Error()
		return item, nil
	}

	if !withSQL {
		item.Query = res.Snapshot
		return item, nil
	}
	sql, args, err := compiler.Compile(res.Query)
	if err != nil {
		return item, fmt.Errorf("compile SQL for %s: %w", file, err)
	}
	item.SQL, item.Args = sql, args
	return item, nil
}

// openEngine builds an engine over s. With a database path the engine
// appends to that log, continuing after its last seq; the returned func
// closes the store.
func openEngine(ctx context.Context, opts *RootOptions, dbPath string, s *schema.Schema, hash string, ids engine.IDGenerator) (*engine.Engine, func(), error) {
	engineOpts := []engine.Option{
		engine.WithSchemaHash(hash),
		engine.WithLogger(opts.logger()),
	}
	if opts.Config != nil {
		engineOpts = append(engineOpts, engine.WithBatchLimit(opts.Config.BatchLimit))
	}
	if ids != nil {
		engineOpts = append(engineOpts, engine.WithIDGenerator(ids))
	}

	if dbPath == "" {
		return engine.New(s, engineOpts...), func() {}, nil
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	clock, err := engine.ResumeClock(ctx, st)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	engineOpts = append(engineOpts, engine.WithStore(st), engine.WithClock(clock))

	closeStore := func() {
		if err := st.Close(); err != nil {
			opts.logger().Error("error closing database", "error", err)
		}
	}
	return engine.New(s, engineOpts...), closeStore, nil
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

func outputResolveJSON(formatter *OutputFormatter, result ResolveResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if result.Failed > 0 {
		response.Status = "error"
		first := firstFailure(result)
		response.Error = &CLIError{Code: first.Outcome, Message: first.Error}
	}
	if err := formatter.Response(response); err != nil {
		return err
	}
	return resolveExit(result)
}

func outputResolveText(formatter *OutputFormatter, result ResolveResult, withSQL bool) error {
	w := formatter.Writer
	for _, item := range result.Items {
		if item.Outcome != ir.OutcomeOK {
			fmt.Fprintf(w, "✗ %s: %s\n", item.File, item.Error)
			continue
		}

		fmt.Fprintf(w, "✓ %s: %s %s (%s)\n", item.File, item.Kind, item.Cube, shortFingerprint(item.Fingerprint))
		if item.ResolutionID != "" {
			fmt.Fprintf(w, "  logged as %s (seq %d)\n", item.ResolutionID, item.Seq)
		}
		if withSQL {
			fmt.Fprintf(w, "%s\n", item.SQL)
			if len(item.Args) > 0 {
				args, _ := json.Marshal(item.Args)
				fmt.Fprintf(w, "-- args: %s\n", args)
			}
			continue
		}
		data, err := ir.MarshalCanonical(item.Query)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\n", data)
	}
	return resolveExit(result)
}

func resolveExit(result ResolveResult) error {
	if result.Failed == 0 {
		return nil
	}
	first := firstFailure(result)
	if len(result.Items) == 1 {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %s", first.Outcome, first.Error))
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%d of %d request(s) failed to resolve", result.Failed, len(result.Items)))
}

func firstFailure(result ResolveResult) ResolveItem {
	for _, item := range result.Items {
		if item.Outcome != ir.OutcomeOK {
			return item
		}
	}
	return ResolveItem{}
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
