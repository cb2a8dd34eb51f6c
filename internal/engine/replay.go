package engine

import (
	"context"

	"github.com/roach88/tesseract/internal/request"
	"github.com/roach88/tesseract/internal/store"
)

// Drift describes a logged resolution whose re-resolution differs.
type Drift struct {
	ResolutionID string `json:"resolution_id"`
	Seq          int64  `json:"seq"`
	Cube         string `json:"cube"`

	LoggedOutcome     string `json:"logged_outcome"`
	ReplayedOutcome   string `json:"replayed_outcome"`
	LoggedFingerprint string `json:"logged_fingerprint,omitempty"`
	ReplayFingerprint string `json:"replay_fingerprint,omitempty"`

	// SchemaChanged is true when the record was produced by another schema revision.
	SchemaChanged bool `json:"schema_changed"`
}

// ReplayReport summarizes a replay.
type ReplayReport struct {
	Checked int     `json:"checked"`
	Drifts  []Drift `json:"drifts"`
}

// Clean reports whether every record re-resolved identically.
func (r *ReplayReport) Clean() bool { return len(r.Drifts) == 0 }

// Replay re-resolves logged requests against the current schema and reports
// every record whose outcome or fingerprint changed.
//
// Replay never writes to the log. Records are visited in log order
// (seq, then id) and drifts are reported in the same order, so two replays
// of the same log against the same schema produce identical reports.
func (e *Engine) Replay(ctx context.Context, opts store.ListOptions) (*ReplayReport, error) {
	if e.store == nil {
		return nil, newNoStoreError("replay")
	}

	records, err := e.store.ListResolutions(ctx, opts)
	if err != nil {
		return nil, err
	}

	st := e.state.Load()
	report := &ReplayReport{Drifts: []Drift{}}
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := request.Decode([]byte(rec.Request))
		if err != nil {
			return nil, newCorruptLogError(rec.ID, err)
		}

		res := e.resolve(st, req)
		report.Checked++

		outcome := res.Outcome()
		if outcome == rec.Outcome && res.Fingerprint == rec.Fingerprint {
			continue
		}

		drift := Drift{
			ResolutionID:      rec.ID,
			Seq:               rec.Seq,
			Cube:              rec.Cube,
			LoggedOutcome:     rec.Outcome,
			ReplayedOutcome:   outcome,
			LoggedFingerprint: rec.Fingerprint,
			ReplayFingerprint: res.Fingerprint,
			SchemaChanged:     rec.SchemaHash != st.hash,
		}
		report.Drifts = append(report.Drifts, drift)
		e.logger.Warn("replay drift",
			"id", rec.ID,
			"seq", rec.Seq,
			"cube", rec.Cube,
			"logged", rec.Outcome,
			"replayed", outcome,
			"schema_changed", drift.SchemaChanged,
		)
	}

	e.logger.Info("replay finished",
		"checked", report.Checked,
		"drifts", len(report.Drifts),
	)
	return report, nil
}
