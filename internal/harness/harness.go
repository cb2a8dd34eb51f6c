package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/tesseract/internal/compiler"
	"github.com/roach88/tesseract/internal/engine"
	"github.com/roach88/tesseract/internal/ir"
	"github.com/roach88/tesseract/internal/querysql"
	"github.com/roach88/tesseract/internal/store"
	"github.com/roach88/tesseract/internal/testutil"
)

// Harness is the scenario execution context.
// It resolves with a deterministic clock and record IDs.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	sql    *querysql.SQLCompiler
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Load and validate the scenario's schema
// 2. Create fresh in-memory resolution log and engine
// 3. Resolve the request (logged as record "scenario-0001")
// 4. Compile SQL for successful resolutions
// 5. Evaluate assertions
//
// The returned error covers setup failures only; failed assertions are
// reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	s, err := compiler.LoadSchema(scenario.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	hash, err := compiler.SourceHash(scenario.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to hash schema: %w", err)
	}

	req, err := scenario.DecodeRequest()
	if err != nil {
		return nil, fmt.Errorf("failed to decode request: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	h := &Harness{
		store: st,
		engine: engine.New(s,
			engine.WithStore(st),
			engine.WithSchemaHash(hash),
			engine.WithIDGenerator(testutil.NewSequenceGenerator("scenario")),
			engine.WithLogger(logger),
		),
		sql:    querysql.NewSQLCompiler(),
		logger: logger,
	}

	ctx := context.Background()
	res, resolveErr := h.engine.Resolve(ctx, req)
	if res == nil || engine.IsLogWriteError(resolveErr) {
		return nil, fmt.Errorf("failed to resolve: %w", resolveErr)
	}

	result := NewResult()
	result.Outcome = res.Outcome()
	result.Fingerprint = res.Fingerprint
	result.Snapshot = res.Snapshot
	result.ResolutionID = res.ResolutionID

	if res.Query != nil {
		sqlStr, _, err := h.sql.Compile(res.Query)
		if err != nil {
			result.AddError(fmt.Sprintf("compile SQL: %v", err))
		}
		result.SQL = sqlStr
	}

	if !expectsOutcome(scenario.Assertions) && result.Outcome != ir.OutcomeOK {
		result.AddError(fmt.Sprintf("unexpected resolution failure: %v", resolveErr))
	}

	for _, msg := range EvaluateAssertions(res, result.SQL, scenario.Assertions) {
		result.AddError(msg)
	}

	h.logger.Debug("scenario finished",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"outcome", result.Outcome,
	)
	return result, nil
}

// RunAll runs scenarios in order. It stops at the first setup failure.
func RunAll(scenarios []*Scenario) ([]*Result, error) {
	results := make([]*Result, 0, len(scenarios))
	for _, s := range scenarios {
		r, err := Run(s)
		if err != nil {
			return results, fmt.Errorf("scenario %q: %w", s.Name, err)
		}
		results = append(results, r)
	}
	return results, nil
}

func expectsOutcome(assertions []Assertion) bool {
	for _, a := range assertions {
		if a.Type == AssertOutcome {
			return true
		}
	}
	return false
}
