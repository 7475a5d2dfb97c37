package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runTestCmd(format string, args ...string) (*bytes.Buffer, error) {
	out := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: format})
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return out, cmd.Execute()
}

func TestTestCommand_MissingArgs(t *testing.T) {
	_, err := runTestCmd("text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommand_NonExistentDir(t *testing.T) {
	_, err := runTestCmd("text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommand_EmptyDir(t *testing.T) {
	out, err := runTestCmd("text", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "No scenarios found")
}

func TestTestCommand_Scenarios(t *testing.T) {
	out, err := runTestCmd("text", scenarios)
	require.NoError(t, err, out.String())

	text := out.String()
	assert.Contains(t, text, "✓ labs_deadline")
	assert.Contains(t, text, "✓ cycle_omitted")
	assert.Contains(t, text, "✓ course_bonus")
	assert.Contains(t, text, "Test Summary: 3 passed, 0 failed, 3 total")
}

func TestTestCommand_FilterJSON(t *testing.T) {
	out, err := runTestCmd("json", scenarios, "--filter", "cycle_*")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Total)
	assert.Equal(t, "cycle_omitted", resp.Data.Scenarios[0].Name)
}

// copyScenario copies one scenario with its rules and export into a fresh
// tree so golden files can be written.
func copyScenario(t *testing.T, name string) string {
	t.Helper()
	root := t.TempDir()
	for _, rel := range []string{
		"scenarios/" + name + ".yaml",
		"rules/labs.yaml",
		"exports/course.json",
	} {
		data, err := os.ReadFile(filepath.Join("..", "harness", "testdata", rel))
		require.NoError(t, err)
		dst := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o755))
		require.NoError(t, os.WriteFile(dst, data, 0o644))
	}
	return root
}

func TestTestCommand_UpdateThenCompare(t *testing.T) {
	root := copyScenario(t, "labs_deadline")
	dir := filepath.Join(root, "scenarios")

	out, err := runTestCmd("text", dir)
	require.NoError(t, err, out.String())

	_, err = runTestCmd("text", dir, "--update")
	require.NoError(t, err)

	golden, err := os.ReadFile(filepath.Join(root, "golden", "labs_deadline.golden"))
	require.NoError(t, err)
	want, err := os.ReadFile(filepath.Join("..", "harness", "testdata", "golden", "labs_deadline.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(golden))

	require.NoError(t, os.WriteFile(filepath.Join(root, "golden", "labs_deadline.golden"), []byte("{}\n"), 0o644))
	out, err = runTestCmd("text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out.String(), "snapshot does not match golden file")
}

func TestTestCommand_FailingScenario(t *testing.T) {
	root := copyScenario(t, "labs_deadline")
	path := filepath.Join(root, "scenarios", "labs_deadline.yaml")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data = bytes.Replace(data, []byte("points: 8"), []byte("points: 80"), 1)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	out, err := runTestCmd("text", filepath.Join(root, "scenarios"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out.String(), "✗ labs_deadline")
	assert.Contains(t, out.String(), "Expected: 80")
	assert.Contains(t, out.String(), "Test Summary: 0 passed, 1 failed, 1 total")
}
