package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_Members(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/04_members_state.yaml")
	require.NoError(t, err)

	r, err := RunWithGolden(t, s)
	require.NoError(t, err)
	assert.True(t, r.Pass, "%v", r.Errors)
}

func TestRunWithGolden_Failure(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/03_cross_hierarchy.yaml")
	require.NoError(t, err)

	r, err := RunWithGolden(t, s)
	require.NoError(t, err)
	assert.True(t, r.Pass, "%v", r.Errors)
	assert.Nil(t, r.Snapshot)
}
