package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tesseract/internal/schema"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CubeSummary describes one compiled cube.
type CubeSummary struct {
	Name       string   `json:"name"`
	Table      string   `json:"table"`
	Public     bool     `json:"public"`
	Roles      []string `json:"roles,omitempty"`
	Dimensions []string `json:"dimensions"`
	Levels     int      `json:"levels"`
	Measures   int      `json:"measures"`
}

// CompilationResult holds the summary of a compiled schema.
type CompilationResult struct {
	DefaultLocale string        `json:"default_locale,omitempty"`
	SchemaHash    string        `json:"schema_hash"`
	Files         int           `json:"files"`
	Cubes         []CubeSummary `json:"cubes"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [schema-dir]",
		Short: "Compile a CUE cube schema",
		Long: `Compile a CUE cube schema, validate it and link it.

Prints a summary of every cube together with the schema source hash that
the resolution log records. The directory defaults to TESS_SCHEMA_DIR.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := schemaDirArg(opts.RootOptions, args)
			if err != nil {
				return err
			}
			return runCompile(opts, dir, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the JSON summary to a file")

	return cmd
}

func runCompile(opts *CompileOptions, schemaDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	s, loaded, err := LoadSchema(schemaDir)
	if err != nil {
		code, message := loadErrorCode(err)
		return formatter.Fail(ExitCommandError, code, message, nil)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, schemaDir)

	result := &CompilationResult{
		DefaultLocale: s.DefaultLocale,
		SchemaHash:    loaded.Hash,
		Files:         loaded.FileCount,
		Cubes:         make([]CubeSummary, 0, len(s.Cubes())),
	}
	for _, cube := range s.Cubes() {
		formatter.VerboseLog("Compiled cube: %s", cube.Name)
		result.Cubes = append(result.Cubes, summarizeCube(cube))
	}

	// Write to file if --output specified
	if opts.Output != "" {
		if err := writeSummaryToFile(result, opts.Output); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

func summarizeCube(cube *schema.Cube) CubeSummary {
	summary := CubeSummary{
		Name:       cube.Name,
		Table:      cube.Table,
		Public:     cube.Public,
		Roles:      cube.Roles,
		Dimensions: make([]string, 0, len(cube.Dimensions)),
		Measures:   len(cube.MeasureMap()),
	}
	for _, dim := range cube.Dimensions {
		summary.Dimensions = append(summary.Dimensions, dim.Name)
		for _, hie := range dim.Hierarchies {
			summary.Levels += len(hie.Levels)
		}
	}
	return summary
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.IsJSON() {
		return formatter.Success(result)
	}

	// Human-readable text output
	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %d cube(s) from %d file(s)\n\n", len(result.Cubes), result.Files)

	fmt.Fprintln(w, "Cubes:")
	for _, cube := range result.Cubes {
		access := "public"
		if !cube.Public {
			access = fmt.Sprintf("roles %v", cube.Roles)
		}
		fmt.Fprintf(w, "  %s (%s): %d dimension(s), %d level(s), %d measure(s), %s\n",
			cube.Name, cube.Table, len(cube.Dimensions), cube.Levels, cube.Measures, access)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Schema hash: %s\n", result.SchemaHash)

	if outputFile != "" {
		fmt.Fprintf(w, "Wrote summary to %s\n", outputFile)
	}

	return nil
}

// writeSummaryToFile writes the compilation summary as indented JSON.
func writeSummaryToFile(result *CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
