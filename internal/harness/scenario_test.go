package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tesseract/internal/request"
)

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	schemaDir, err := filepath.Abs("testdata/schema")
	require.NoError(t, err)
	path := filepath.Join(dir, "scenario.yaml")
	content := "schema: " + schemaDir + "\n" + body
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_Testdata(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/01_state_profit.yaml")
	require.NoError(t, err)

	assert.Equal(t, "state_profit", s.Name)
	assert.Equal(t, filepath.Join("testdata", "schema"), s.Schema, "schema resolved relative to the scenario file")
	assert.Len(t, s.Assertions, 8)

	req, err := s.DecodeRequest()
	require.NoError(t, err)
	assert.Equal(t, request.DataRequest{Cube: "sales", Drilldowns: []string{"State"}, Measures: []string{"profit"}}, req)
}

func TestLoadScenario_MembersRequest(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/04_members_state.yaml")
	require.NoError(t, err)

	req, err := s.DecodeRequest()
	require.NoError(t, err)
	assert.Equal(t, request.MembersRequest{Cube: "sales", Level: "State"}, req)
}

func TestLoadScenarios_OrderedByFileName(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)

	var names []string
	for _, s := range scenarios {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"state_profit", "cut_with_parents", "cross_hierarchy", "members_state", "payroll_unauthorized"}, names)
}

func TestLoadScenario_Errors(t *testing.T) {
	const valid = "name: x\ndescription: d\nrequest: {cube: sales}\nassertions:\n  - {type: outcome, code: OK}\n"

	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown field", valid + "assertion: []\n", "failed to parse YAML"},
		{"missing name", "description: d\nrequest: {cube: sales}\nassertions: [{type: outcome, code: OK}]\n", "name is required"},
		{"missing description", "name: x\nrequest: {cube: sales}\nassertions: [{type: outcome, code: OK}]\n", "description is required"},
		{"missing request", "name: x\ndescription: d\nassertions: [{type: outcome, code: OK}]\n", "request is required"},
		{"bad request", "name: x\ndescription: d\nrequest: {cube: sales, drilldown: [X]}\nassertions: [{type: outcome, code: OK}]\n", "request:"},
		{"no assertions", "name: x\ndescription: d\nrequest: {cube: sales}\n", "assertions list is required"},
		{"unknown assertion", "name: x\ndescription: d\nrequest: {cube: sales}\nassertions: [{type: trace_order}]\n", "unknown assertion type"},
		{"outcome without code", "name: x\ndescription: d\nrequest: {cube: sales}\nassertions: [{type: outcome}]\n", "code is required"},
		{"level without name", "name: x\ndescription: d\nrequest: {cube: sales}\nassertions: [{type: level}]\n", "level is required"},
		{"ranking without direction", "name: x\ndescription: d\nrequest: {cube: sales}\nassertions: [{type: ranking, measure: m}]\n", "measure and direction"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_MissingSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: x\ndescription: d\nschema: nowhere\nrequest: {cube: sales}\nassertions: [{type: outcome, code: OK}]\n"), 0644))

	_, err := LoadScenario(path)
	assert.ErrorContains(t, err, "schema directory not found")

	_, err = LoadScenario(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read scenario file")
}
