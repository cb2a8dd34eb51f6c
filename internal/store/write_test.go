package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteResolution_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	want := okResolution("r1", "sales", 1)
	require.NoError(t, s.WriteResolution(ctx, want))

	got, err := s.ReadResolution(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.True(t, got.OK())
}

func TestWriteResolution_Failure(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	want := failedResolution("r1", "payroll", 1, "NOT_AUTHORIZED")
	require.NoError(t, s.WriteResolution(ctx, want))

	got, err := s.ReadResolution(ctx, "r1")
	require.NoError(t, err)
	assert.Nil(t, got.Snapshot)
	assert.Empty(t, got.Fingerprint)
	assert.False(t, got.OK())
	assert.Equal(t, "NOT_AUTHORIZED: boom", got.Error)
}

func TestWriteResolution_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first := okResolution("r1", "sales", 1)
	require.NoError(t, s.WriteResolution(ctx, first))

	// Same ID with different content is ignored.
	second := okResolution("r1", "other", 7)
	require.NoError(t, s.WriteResolution(ctx, second))

	all, err := s.ListResolutions(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "sales", all[0].Cube)
	assert.Equal(t, int64(1), all[0].Seq)
}

func TestWriteResolution_RejectsUnknownKind(t *testing.T) {
	s := createTestStore(t)

	res := okResolution("r1", "sales", 1)
	res.Kind = "pivot"
	assert.Error(t, s.WriteResolution(context.Background(), res))
}
