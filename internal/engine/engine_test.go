package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tesseract/internal/ir"
	"github.com/roach88/tesseract/internal/request"
	"github.com/roach88/tesseract/internal/resolver"
	"github.com/roach88/tesseract/internal/schema"
	"github.com/roach88/tesseract/internal/store"
	"github.com/roach88/tesseract/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "log.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestEngine(t *testing.T, s *schema.Schema, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	return New(s, opts...)
}

var (
	stateProfit = request.DataRequest{Cube: "sales", Drilldowns: []string{"State"}, Measures: []string{"profit"}}
	monthly     = request.DataRequest{Cube: "sales", Drilldowns: []string{"Month"}, Measures: []string{"quantity"}}
	payroll     = request.DataRequest{Cube: "payroll", Drilldowns: []string{"Department"}, Measures: []string{"salary"}}
	cityMembers = request.MembersRequest{Cube: "sales", Level: "City", Parents: true}
)

func TestResolve_WithoutStore(t *testing.T) {
	e := newTestEngine(t, testutil.SalesSchema(t))

	res, err := e.Resolve(context.Background(), stateProfit)
	require.NoError(t, err)
	require.NotNil(t, res.Query)
	assert.Len(t, res.Fingerprint, 64)
	assert.Equal(t, ir.MustQueryFingerprint(res.Snapshot), res.Fingerprint)
	assert.Empty(t, res.ResolutionID)
	assert.Zero(t, res.Seq)
	assert.Equal(t, ir.OutcomeOK, res.Outcome())
}

func TestResolve_FingerprintIsStable(t *testing.T) {
	e := newTestEngine(t, testutil.SalesSchema(t))
	ctx := context.Background()

	a, err := e.Resolve(ctx, stateProfit)
	require.NoError(t, err)
	b, err := e.ResolveData(ctx, request.DataRequest{Cube: "sales", Drilldowns: []string{"State"}, Measures: []string{"profit"}})
	require.NoError(t, err)
	c, err := e.ResolveData(ctx, monthly)
	require.NoError(t, err)

	assert.Equal(t, a.Fingerprint, b.Fingerprint)
	assert.NotEqual(t, a.Fingerprint, c.Fingerprint)
}

func TestResolve_ResolverErrorPassesThrough(t *testing.T) {
	e := newTestEngine(t, testutil.SalesSchema(t))

	res, err := e.Resolve(context.Background(), payroll)
	require.Error(t, err)
	assert.True(t, resolver.IsNotAuthorized(err))
	assert.Nil(t, res.Query)
	assert.Nil(t, res.Snapshot)
	assert.Equal(t, "NOT_AUTHORIZED", res.Outcome())
}

func TestResolve_CancelledContext(t *testing.T) {
	e := newTestEngine(t, testutil.SalesSchema(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Resolve(ctx, stateProfit)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolve_AppendsToStore(t *testing.T) {
	st := setupTestStore(t)
	e := newTestEngine(t, testutil.SalesSchema(t),
		WithStore(st),
		WithClock(NewClockAt(10)),
		WithIDGenerator(NewFixedGenerator("r-1", "r-2", "r-3")),
		WithSchemaHash("h1"),
	)
	ctx := context.Background()

	ok, err := e.Resolve(ctx, stateProfit)
	require.NoError(t, err)
	assert.Equal(t, "r-1", ok.ResolutionID)
	assert.Equal(t, int64(11), ok.Seq)

	_, err = e.Resolve(ctx, payroll)
	require.Error(t, err)

	members, err := e.ResolveMembers(ctx, cityMembers)
	require.NoError(t, err)
	assert.Equal(t, int64(13), members.Seq)

	records, err := st.ListResolutions(ctx, store.ListOptions{})
	require.NoError(t, err)
	require.Len(t, records, 3)

	first := records[0]
	assert.Equal(t, "r-1", first.ID)
	assert.Equal(t, "data", first.Kind)
	assert.Equal(t, "sales", first.Cube)
	assert.Equal(t, ok.Fingerprint, first.Fingerprint)
	assert.Equal(t, ok.Snapshot, first.Snapshot)
	assert.Equal(t, "h1", first.SchemaHash)
	assert.Equal(t, ir.EngineVersion, first.EngineVersion)

	decoded, err := request.Decode([]byte(first.Request))
	require.NoError(t, err)
	assert.Equal(t, stateProfit, decoded)

	failed := records[1]
	assert.Equal(t, "NOT_AUTHORIZED", failed.Outcome)
	assert.Contains(t, failed.Error, "NOT_AUTHORIZED")
	assert.Empty(t, failed.Fingerprint)
	assert.Nil(t, failed.Snapshot)

	assert.Equal(t, "members", records[2].Kind)
}

func TestResolve_LogWriteFailure(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "log.db"))
	require.NoError(t, err)
	require.NoError(t, st.Close())

	e := newTestEngine(t, testutil.SalesSchema(t), WithStore(st))
	res, err := e.Resolve(context.Background(), stateProfit)
	require.Error(t, err)
	assert.True(t, IsLogWriteError(err))
	assert.NotEmpty(t, res.Fingerprint, "resolution itself succeeded")
}

func TestReload_SwapsSchema(t *testing.T) {
	sales := testutil.SalesSchema(t)
	e := newTestEngine(t, sales, WithSchemaHash("h1"))
	assert.Same(t, sales, e.Schema())
	assert.Equal(t, "h1", e.SchemaHash())

	geo := testutil.GeographySchema(t)
	e.Reload(geo, "h2")
	assert.Same(t, geo, e.Schema())
	assert.Equal(t, "h2", e.SchemaHash())

	_, err := e.Resolve(context.Background(), monthly)
	assert.True(t, resolver.IsInvalidEntityName(err), "Month does not exist after reload")
}

func TestReload_ConcurrentWithResolve(t *testing.T) {
	e := newTestEngine(t, testutil.SalesSchema(t))
	geo := testutil.GeographySchema(t)
	sales := testutil.SalesSchema(t)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			if i%2 == 0 {
				e.Reload(geo, "geo")
			} else {
				e.Reload(sales, "sales")
			}
		}
	}()

	// stateProfit resolves against either schema.
	for i := 0; i < 100; i++ {
		_, err := e.Resolve(ctx, stateProfit)
		require.NoError(t, err)
	}
	<-done
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, ir.OutcomeOK, OutcomeOf(nil))
	assert.Equal(t, "CUBE_NOT_FOUND", OutcomeOf(resolver.NewCubeNotFound("x", schema.ErrCubeNotFound)))
	assert.Equal(t, "NO_STORE", OutcomeOf(newNoStoreError("replay")))
	assert.Equal(t, OutcomeError, OutcomeOf(errors.New("boom")))
}

func TestRuntimeError_Format(t *testing.T) {
	err := newLogWriteError("r-1", errors.New("disk full"))
	assert.Equal(t, "LOG_WRITE_FAILED: append resolution (resolution=r-1): disk full", err.Error())
	assert.Equal(t, "disk full", errors.Unwrap(err).Error())

	assert.Equal(t, "NO_STORE: replay requires a resolution log", newNoStoreError("replay").Error())
}
