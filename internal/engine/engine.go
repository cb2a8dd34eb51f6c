package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/roach88/tesseract/internal/ir"
	"github.com/roach88/tesseract/internal/queryir"
	"github.com/roach88/tesseract/internal/request"
	"github.com/roach88/tesseract/internal/resolver"
	"github.com/roach88/tesseract/internal/schema"
	"github.com/roach88/tesseract/internal/store"
)

// DefaultBatchLimit bounds the number of requests ResolveBatch resolves at once.
const DefaultBatchLimit = 8

// schemaState is one immutable schema revision.
type schemaState struct {
	schema *schema.Schema
	hash   string
}

// Engine resolves requests against the current schema and optionally appends
// every resolution to a store.
//
// Thread-safety model:
//   - Resolve, ResolveBatch, Replay: safe from any goroutine
//   - Reload: safe from any goroutine; resolutions already running keep the
//     schema they started with
type Engine struct {
	state      atomic.Pointer[schemaState]
	store      *store.Store
	clock      *Clock
	ids        IDGenerator
	logger     *slog.Logger
	batchLimit int
}

// Option allows configuration of engine parameters.
type Option func(*Engine)

// WithStore enables the resolution log.
func WithStore(s *store.Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithClock sets the logical clock. Use ResumeClock to append after the
// records already in the store.
func WithClock(c *Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithIDGenerator sets the record ID generator. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) { e.ids = g }
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithBatchLimit sets the ResolveBatch concurrency limit.
// Values below 1 keep DefaultBatchLimit.
func WithBatchLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.batchLimit = n
		}
	}
}

// WithSchemaHash records the hash of the initial schema's source.
func WithSchemaHash(hash string) Option {
	return func(e *Engine) {
		e.state.Store(&schemaState{schema: e.state.Load().schema, hash: hash})
	}
}

// New creates an Engine over s.
func New(s *schema.Schema, opts ...Option) *Engine {
	e := &Engine{
		clock:      NewClock(),
		ids:        UUIDv7Generator{},
		logger:     slog.Default(),
		batchLimit: DefaultBatchLimit,
	}
	e.state.Store(&schemaState{schema: s})

	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Schema returns the current schema.
func (e *Engine) Schema() *schema.Schema { return e.state.Load().schema }

// SchemaHash returns the source hash of the current schema, or "".
func (e *Engine) SchemaHash() string { return e.state.Load().hash }

// Reload swaps in a new schema revision.
func (e *Engine) Reload(s *schema.Schema, hash string) {
	prev := e.state.Swap(&schemaState{schema: s, hash: hash})
	e.logger.Info("schema reloaded",
		"previous_hash", prev.hash,
		"hash", hash,
		"cubes", len(s.Cubes()),
	)
}

// Result is the outcome of one resolution.
type Result struct {
	Request     request.Request
	Query       queryir.Query // nil when Err is set
	Snapshot    ir.Object     // nil when Err is set
	Fingerprint string

	// ResolutionID and Seq identify the log record; empty without a store.
	ResolutionID string
	Seq          int64

	Err error
}

// Outcome returns the code recorded in the log for this result.
func (r *Result) Outcome() string { return OutcomeOf(r.Err) }

// Resolve resolves one request and appends it to the log when a store is
// configured. The returned error is the resolution error, or the log write
// error if appending failed.
func (e *Engine) Resolve(ctx context.Context, req request.Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	st := e.state.Load()
	res := e.resolve(st, req)
	if err := e.record(ctx, st, res); err != nil {
		return res, err
	}
	return res, res.Err
}

// ResolveData resolves a data request. See Resolve.
func (e *Engine) ResolveData(ctx context.Context, req request.DataRequest) (*Result, error) {
	return e.Resolve(ctx, req)
}

// ResolveMembers resolves a members request. See Resolve.
func (e *Engine) ResolveMembers(ctx context.Context, req request.MembersRequest) (*Result, error) {
	return e.Resolve(ctx, req)
}

// resolve is the pure part of a resolution: no store access.
func (e *Engine) resolve(st *schemaState, req request.Request) *Result {
	res := &Result{Request: req}
	cube := cubeName(req)

	q, err := resolver.New(st.schema).Resolve(req)
	if err != nil {
		res.Err = err
		e.logger.Info("resolution failed",
			"cube", cube,
			"code", OutcomeOf(err),
			"error", err,
		)
		return res
	}

	if v := queryir.Validate(q); !v.Valid {
		res.Err = newInvalidQueryError(cube, v.Violations)
		e.logger.Error("resolved query is invalid",
			"cube", cube,
			"violations", v.Violations,
		)
		return res
	}

	snapshot := queryir.Snapshot(q)
	fingerprint, err := ir.QueryFingerprint(snapshot)
	if err != nil {
		res.Err = fmt.Errorf("fingerprint query: %w", err)
		return res
	}

	res.Query = q
	res.Snapshot = snapshot
	res.Fingerprint = fingerprint

	e.logger.Info("query resolved",
		"cube", cube,
		"kind", kindOf(req),
		"fingerprint", fingerprint,
	)
	return res
}

// record appends res to the store, if any, stamping it with the next seq.
func (e *Engine) record(ctx context.Context, st *schemaState, res *Result) error {
	if e.store == nil {
		return nil
	}

	encoded, err := request.Encode(res.Request)
	if err != nil {
		return newLogWriteError("", err)
	}

	entry := ir.Resolution{
		ID:            e.ids.Generate(),
		Seq:           e.clock.Next(),
		Kind:          string(kindOf(res.Request)),
		Cube:          cubeName(res.Request),
		RequestHash:   ir.RequestHash(encoded),
		Request:       string(encoded),
		Fingerprint:   res.Fingerprint,
		Snapshot:      res.Snapshot,
		Outcome:       res.Outcome(),
		SchemaHash:    st.hash,
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.SnapshotVersion,
	}
	if res.Err != nil {
		entry.Error = res.Err.Error()
	}

	if err := e.store.WriteResolution(ctx, entry); err != nil {
		e.logger.Error("resolution log write failed",
			"id", entry.ID,
			"seq", entry.Seq,
			"error", err,
		)
		return newLogWriteError(entry.ID, err)
	}

	res.ResolutionID = entry.ID
	res.Seq = entry.Seq
	e.logger.Debug("resolution logged",
		"id", entry.ID,
		"seq", entry.Seq,
		"outcome", entry.Outcome,
	)
	return nil
}

func cubeName(req request.Request) string {
	if req == nil {
		return ""
	}
	return req.CubeName()
}

func kindOf(req request.Request) request.Kind {
	if req == nil {
		return ""
	}
	return req.Kind()
}
