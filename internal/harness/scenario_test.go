package harness

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rules.yaml"), []byte("rules: []\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "export.json"), []byte(`{"students":[]}`), 0o644))
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadScenario_ResolvesPaths(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/labs_deadline.yaml")
	require.NoError(t, err)

	assert.Equal(t, "labs_deadline", s.Name)
	assert.Equal(t, filepath.Join("testdata", "rules", "labs.yaml"), s.Rules)
	assert.Equal(t, filepath.Join("testdata", "exports", "course.json"), s.Export)

	now, err := s.Clock()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2017, 3, 1, 12, 0, 0, 0, time.UTC), now)
}

func TestScenario_DefaultClock(t *testing.T) {
	now, err := (&Scenario{}).Clock()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2017, 6, 1, 12, 0, 0, 0, time.UTC), now)
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "unknown field",
			body: "name: x\nrules: rules.yaml\nexport: export.json\nassertion: []\n",
			want: "failed to parse YAML",
		},
		{
			name: "missing name",
			body: "rules: rules.yaml\nexport: export.json\n",
			want: "name is required",
		},
		{
			name: "missing rules file",
			body: "name: x\nrules: nope.yaml\nexport: export.json\nassertions: [{type: total, student: a, points: 1}]\n",
			want: "file not found",
		},
		{
			name: "bad clock",
			body: "name: x\nrules: rules.yaml\nexport: export.json\nnow: yesterday\nassertions: [{type: total, student: a, points: 1}]\n",
			want: "now:",
		},
		{
			name: "no assertions",
			body: "name: x\nrules: rules.yaml\nexport: export.json\n",
			want: "assertions list is required",
		},
		{
			name: "ledger without record",
			body: "name: x\nrules: rules.yaml\nexport: export.json\nassertions: [{type: ledger, student: a, count: 1}]\n",
			want: "ledger requires record: true",
		},
		{
			name: "goal_points without goal",
			body: "name: x\nrules: rules.yaml\nexport: export.json\nassertions: [{type: goal_points, student: a, points: 1}]\n",
			want: "goal and points are required",
		},
		{
			name: "short cycle",
			body: "name: x\nrules: rules.yaml\nexport: export.json\nassertions: [{type: cycle, student: a, rules: [1]}]\n",
			want: "at least two rules",
		},
		{
			name: "unknown type",
			body: "name: x\nrules: rules.yaml\nexport: export.json\nassertions: [{type: vibes, student: a}]\n",
			want: `unknown assertion type "vibes"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}
