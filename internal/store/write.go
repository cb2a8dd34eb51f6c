package store

import (
	"context"
	"fmt"

	"github.com/roach88/tesseract/internal/ir"
)

// WriteResolution appends a resolution record to the log.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
// Other constraint violations (e.g., an unknown kind) still return errors.
//
// The snapshot is serialized to canonical JSON per RFC 8785.
func (s *Store) WriteResolution(ctx context.Context, res ir.Resolution) error {
	snapshotJSON, err := marshalSnapshot(res.Snapshot)
	if err != nil {
		return fmt.Errorf("write resolution: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO resolutions
		(id, seq, kind, cube, request_hash, request, fingerprint, snapshot, outcome, error, schema_hash, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		res.ID,
		res.Seq,
		res.Kind,
		res.Cube,
		res.RequestHash,
		res.Request,
		res.Fingerprint,
		snapshotJSON,
		res.Outcome,
		res.Error,
		res.SchemaHash,
		res.EngineVersion,
		res.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("write resolution: %w", err)
	}

	return nil
}
