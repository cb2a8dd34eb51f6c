package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/tesseract/internal/ir"
)

var resolutionColumns = []string{
	"id", "seq", "kind", "cube", "request_hash", "request", "fingerprint",
	"snapshot", "outcome", "error", "schema_hash", "engine_version", "ir_version",
}

// ListOptions narrows ListResolutions. Zero values disable a filter.
type ListOptions struct {
	Cube     string
	Outcome  string
	AfterSeq int64
	Limit    uint64
}

// ReadResolution retrieves a single resolution by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadResolution(ctx context.Context, id string) (ir.Resolution, error) {
	query, args, err := sq.Select(resolutionColumns...).
		From("resolutions").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return ir.Resolution{}, fmt.Errorf("build query: %w", err)
	}
	return scanResolution(s.db.QueryRowContext(ctx, query, args...))
}

// ListResolutions returns logged resolutions matching opts.
// Results are ordered deterministically: ORDER BY seq ASC, id COLLATE BINARY ASC.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ListResolutions(ctx context.Context, opts ListOptions) ([]ir.Resolution, error) {
	builder := sq.Select(resolutionColumns...).
		From("resolutions").
		OrderBy("seq ASC", "id COLLATE BINARY ASC")
	if opts.Cube != "" {
		builder = builder.Where(sq.Eq{"cube": opts.Cube})
	}
	if opts.Outcome != "" {
		builder = builder.Where(sq.Eq{"outcome": opts.Outcome})
	}
	if opts.AfterSeq > 0 {
		builder = builder.Where(sq.Gt{"seq": opts.AfterSeq})
	}
	if opts.Limit > 0 {
		builder = builder.Limit(opts.Limit)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query resolutions: %w", err)
	}
	defer rows.Close()

	var out []ir.Resolution
	for rows.Next() {
		res, err := scanResolution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resolution: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resolutions: %w", err)
	}

	// Return empty slice instead of nil
	if out == nil {
		out = []ir.Resolution{}
	}
	return out, nil
}

// LastSeq returns the highest seq in the log, or 0 when it is empty.
// The engine seeds its logical clock from it.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM resolutions`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanResolution scans a row into a Resolution. sql.ErrNoRows is returned unwrapped.
func scanResolution(row rowScanner) (ir.Resolution, error) {
	var res ir.Resolution
	var snapshotJSON string

	if err := row.Scan(
		&res.ID, &res.Seq, &res.Kind, &res.Cube, &res.RequestHash, &res.Request,
		&res.Fingerprint, &snapshotJSON, &res.Outcome, &res.Error,
		&res.SchemaHash, &res.EngineVersion, &res.IRVersion,
	); err != nil {
		return ir.Resolution{}, err
	}

	snapshot, err := unmarshalSnapshot(snapshotJSON)
	if err != nil {
		return ir.Resolution{}, err
	}
	res.Snapshot = snapshot

	return res, nil
}
