package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/tesseract/internal/ir"
)

// SnapshotJSON renders the golden document of a result as canonical JSON:
// the scenario name, the outcome and, on success, the query snapshot.
func SnapshotJSON(name string, result *Result) ([]byte, error) {
	doc := ir.Object{
		"scenario": ir.String(name),
		"outcome":  ir.String(result.Outcome),
	}
	if result.Snapshot != nil {
		doc["query"] = result.Snapshot
	}
	return ir.MarshalCanonical(doc)
}

// RunWithGolden executes a scenario and compares the canonical snapshot
// against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := SnapshotJSON(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
