package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/tesseract/internal/ir"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// okResolution creates a successful resolution with a small snapshot.
func okResolution(id, cube string, seq int64) ir.Resolution {
	snapshot := ir.Object{
		"cube":  ir.String(cube),
		"kind":  ir.String("data"),
		"limit": ir.Int(10),
	}
	return ir.Resolution{
		ID:            id,
		Seq:           seq,
		Kind:          "data",
		Cube:          cube,
		RequestHash:   "req-" + id,
		Request:       "kind: data\ncube: " + cube + "\n",
		Fingerprint:   ir.MustQueryFingerprint(snapshot),
		Snapshot:      snapshot,
		Outcome:       ir.OutcomeOK,
		SchemaHash:    "schema-hash",
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.SnapshotVersion,
	}
}

// failedResolution creates a failed resolution carrying an error code.
func failedResolution(id, cube string, seq int64, code string) ir.Resolution {
	return ir.Resolution{
		ID:            id,
		Seq:           seq,
		Kind:          "members",
		Cube:          cube,
		RequestHash:   "req-" + id,
		Request:       "kind: members\ncube: " + cube + "\n",
		Outcome:       code,
		Error:         code + ": boom",
		SchemaHash:    "schema-hash",
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.SnapshotVersion,
	}
}
