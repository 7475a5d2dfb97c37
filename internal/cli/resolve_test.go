package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newResolve runs "resolve" through the root command so the persistent
// flags are parsed. An empty format leaves --format unset.
func newResolve(format string, args ...string) (*bytes.Buffer, *bytes.Buffer, error) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	argv := []string{"resolve"}
	if format != "" {
		argv = append(argv, "--format", format)
	}
	cmd.SetArgs(append(argv, args...))
	err := cmd.Execute()
	return out, errOut, err
}

type resolveResponse struct {
	Status string        `json:"status"`
	Data   ResolveResult `json:"data"`
	Error  *CLIError     `json:"error"`
}

func TestResolve_Text(t *testing.T) {
	out, _, err := newResolve("text", "--rules", labsRules, "--data", courseData)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "Anna Andersson (anna)")
	assert.Contains(t, text, "Goals for Goals")
	assert.Contains(t, text, "Total: 8")
	assert.Contains(t, text, "Erik Ek (erik)")
	assert.Contains(t, text, "Total: 2")
}

func TestResolve_DetailedFilter(t *testing.T) {
	out, _, err := newResolve("text", "--rules", labsRules, "--data", courseData, "--filter", "ANNA", "--detailed")
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, `Rule: "Lab 1" gave 2 pts`)
	assert.Contains(t, text, "different")
	assert.NotContains(t, text, "Erik Ek")
}

func TestResolve_JSON(t *testing.T) {
	out, _, err := newResolve("json", "--rules", courseRules, "--data", courseData)
	require.NoError(t, err)

	var resp resolveResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Students, 2)
	assert.Equal(t, "anna", resp.Data.Students[0].Username)
	assert.Equal(t, 9.0, resp.Data.Students[0].Total)
	assert.Equal(t, 1.0, resp.Data.Students[1].Total)
	assert.Empty(t, resp.Data.Passes)
}

func TestResolve_RecordsPassesAndHistory(t *testing.T) {
	db := filepath.Join(t.TempDir(), "passes.db")

	for i := 0; i < 2; i++ {
		out, _, err := newResolve("text", "--rules", labsRules, "--data", courseData, "--db", db)
		require.NoError(t, err)
		assert.Contains(t, out.String(), fmt.Sprintf("Recorded 2 pass(es) in %s", db))
	}

	out := &bytes.Buffer{}
	cmd := NewHistoryCommand(&RootOptions{Format: "json"})
	cmd.SetOut(out)
	cmd.SetArgs([]string{"anna", "--db", db, "--goal", "labs"})
	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string        `json:"status"`
		Data   HistoryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "anna", resp.Data.Username)
	assert.Len(t, resp.Data.Passes, 2)
	assert.Equal(t, 8.0, resp.Data.Passes[0].Total)
	assert.Equal(t, []float64{2, 2}, resp.Data.Points)
}

func TestResolve_Strict(t *testing.T) {
	_, _, err := newResolve("text", "--rules", cycleRules, "--data", courseData)
	require.NoError(t, err)

	out, _, err := newResolve("text", "--rules", cycleRules, "--data", courseData, "--strict")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "E015")
	assert.Contains(t, out.String(), "Total:")
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		exit int
		want string
	}{
		{"no rules", []string{"--data", courseData}, ExitCommandError, "E002"},
		{"no data", []string{"--rules", labsRules}, ExitCommandError, "E002"},
		{"missing rules", []string{"--rules", "nope.yaml", "--data", courseData}, ExitCommandError, "E005"},
		{"missing export", []string{"--rules", labsRules, "--data", "nope.json"}, ExitCommandError, "E012"},
		{"no match", []string{"--rules", labsRules, "--data", courseData, "--filter", "zelda"}, ExitFailure, "E016"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := newResolve("text", tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.exit, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.want)
			assert.Contains(t, out.String(), "Error ["+tt.want+"]")
		})
	}
}

func TestResolve_Config(t *testing.T) {
	dir := t.TempDir()
	rules, err := filepath.Abs(labsRules)
	require.NoError(t, err)
	data, err := filepath.Abs(courseData)
	require.NoError(t, err)

	cfg := fmt.Sprintf(`rules: %q
data: %q
format: "json"
filter: "erik"
groups: [{title: "Labs", prefix: "labs"}]
`, rules, data)
	cfgPath := filepath.Join(dir, "kattis.cue")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	out, _, err := newResolve("", "--config", cfgPath)
	require.NoError(t, err)

	var resp resolveResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	require.Len(t, resp.Data.Students, 1)
	st := resp.Data.Students[0]
	assert.Equal(t, "erik", st.Username)
	require.Len(t, st.Groups, 2)
	assert.Equal(t, "Labs", st.Groups[0].Title)
	assert.Equal(t, "Other", st.Groups[1].Title)
}

func TestResolve_FormatFlagOverridesConfig(t *testing.T) {
	rules, err := filepath.Abs(labsRules)
	require.NoError(t, err)
	data, err := filepath.Abs(courseData)
	require.NoError(t, err)

	cfgPath := filepath.Join(t.TempDir(), "kattis.cue")
	cfg := fmt.Sprintf("rules: %q\ndata: %q\nformat: \"json\"\n", rules, data)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	out, _, err := newResolve("text", "--config", cfgPath, "--filter", "anna")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Anna Andersson (anna)")
	assert.False(t, json.Valid(out.Bytes()))
}

func TestResolve_ErrorsPrintedOnce(t *testing.T) {
	out, errOut, err := newResolve("json", "--rules", labsRules, "--data", "testdata/missing.json")
	require.Error(t, err)
	assert.True(t, Reported(err))
	assert.Empty(t, errOut.String())

	var resp resolveResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)

	out, errOut, err = newResolve("json", "--no-such-flag")
	require.Error(t, err)
	assert.False(t, Reported(err))
	assert.Empty(t, out.String())
	assert.Empty(t, errOut.String())
}

func TestResolve_BadConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "kattis.cue")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`format: "xml"`), 0o644))

	out, _, err := newResolve("", "--config", cfgPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out.String(), "Error [E011]")
}
