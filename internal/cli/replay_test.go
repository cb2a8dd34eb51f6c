package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tesseract/internal/engine"
	"github.com/roach88/tesseract/internal/store"
)

// seedLog resolves the given requests into a fresh log and returns its path.
func seedLog(t *testing.T, requests ...string) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "tess.db")
	args := append([]string{"resolve", "--schema", "testdata/schema", "--db", db}, requests...)
	_, _ = execute(t, nil, args...)
	return db
}

func TestReplay_Clean(t *testing.T) {
	db := seedLog(t, stateProfitReq, membersReq, payrollReq)

	out, err := execute(t, nil, "replay", "--schema", "testdata/schema", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Replay Summary: 3 checked, 0 drifted")
	assert.Contains(t, out, "✓ All resolutions reproduced")
}

func TestReplay_DriftAfterSchemaChange(t *testing.T) {
	db := seedLog(t, stateProfitReq, payrollReq)

	out, err := execute(t, nil, "replay", "--schema", "testdata/schema_v2", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, "outcome: NOT_AUTHORIZED → OK")
	assert.Contains(t, out, "(logged under another schema revision)")
	assert.Contains(t, out, "Replay Summary: 2 checked, 1 drifted")
}

func TestReplay_JSON(t *testing.T) {
	db := seedLog(t, stateProfitReq, payrollReq)

	out, err := execute(t, nil, "--format", "json", "replay", "--schema", "testdata/schema_v2", "--db", db)
	require.Error(t, err)

	var resp struct {
		Status string              `json:"status"`
		Data   engine.ReplayReport `json:"data"`
		Error  *CLIError           `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E_DRIFT", resp.Error.Code)
	assert.Equal(t, 2, resp.Data.Checked)
	require.Len(t, resp.Data.Drifts, 1)

	drift := resp.Data.Drifts[0]
	assert.Equal(t, int64(2), drift.Seq)
	assert.Equal(t, "payroll", drift.Cube)
	assert.Equal(t, "NOT_AUTHORIZED", drift.LoggedOutcome)
	assert.Equal(t, "OK", drift.ReplayedOutcome)
	assert.True(t, drift.SchemaChanged)
}

func TestReplay_CubeFilter(t *testing.T) {
	db := seedLog(t, stateProfitReq, payrollReq)

	out, err := execute(t, nil, "replay", "--schema", "testdata/schema_v2", "--db", db, "--cube", "sales")
	require.NoError(t, err)
	assert.Contains(t, out, "Replay Summary: 1 checked, 0 drifted")
}

func TestReplay_EmptyLog(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")
	st, err := store.Open(db)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := execute(t, nil, "replay", "--schema", "testdata/schema", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No resolutions found in database.")
}

func TestReplay_DatabaseErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no database", []string{"replay", "--schema", "testdata/schema"}},
		{"missing database", []string{"replay", "--schema", "testdata/schema", "--db", filepath.Join(t.TempDir(), "absent.db")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, nil, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "Error ["+ErrCodeNotFound+"]")
		})
	}
}
