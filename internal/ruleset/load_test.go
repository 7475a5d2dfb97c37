package ruleset

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Friduric/kattis-cli/internal/expr"
)

func TestLoad_JSONWithDefaults(t *testing.T) {
	rs, err := Load("testdata/basic.json")
	require.NoError(t, err)
	require.Equal(t, 2, rs.Len())

	first := rs.Rules[0]
	assert.Equal(t, "resolve-basic-goal", first.Towards)
	assert.Equal(t, "Basic", first.Name)
	assert.Equal(t, "01-02-2017 08:00", first.Deadline)
	assert.Equal(t, "halved", first.Late, "after-deadline is read as the late policy")
	assert.True(t, expr.Equal(expr.Compare("=", expr.Number(1), expr.Number(1)), first.Needs))
	assert.True(t, expr.Equal(expr.Reduce("+", expr.Number(1), expr.Number(2)), first.Points))

	second := rs.Rules[1]
	assert.Equal(t, expr.Bool(true), second.Needs)
	assert.Equal(t, expr.Number(1), second.Points)
	assert.Empty(t, second.Name)
	assert.Equal(t, "Unnamed Rule", second.DisplayName())
}

func TestLoad_IncludesBreadthFirstOnce(t *testing.T) {
	rs, err := Load("testdata/root.yaml")
	require.NoError(t, err)

	var targets []string
	for _, r := range rs.Rules {
		targets = append(targets, r.Towards)
	}
	assert.Equal(t, []string{"root-goal", "lab1", "individual-session-1"}, targets)
	require.Len(t, rs.Files, 3)
	assert.Equal(t, "root.yaml", filepath.Base(rs.Files[0]))
	assert.Equal(t, "none", rs.Rules[0].Late)
	assert.True(t, expr.Equal(expr.Get("lab1"), rs.Rules[0].Points))
}

func TestLoad_MissingTowardsFailsSchema(t *testing.T) {
	_, err := Load("testdata/missing_towards.json")
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeSchema, loadErr.Code)
}

func TestLoad_WrongFieldType(t *testing.T) {
	_, err := Load("testdata/bad_name.yaml")
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeSchema, loadErr.Code)
}

func TestLoad_BrokenJSON(t *testing.T) {
	_, err := Load("testdata/broken.json")
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeBuildFailed, loadErr.Code)
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load("testdata/nope.json")
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeNotFound, loadErr.Code)
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	_, err := Load("testdata/rules.toml")
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeFormat, loadErr.Code)
}

func TestParse_InMemoryJSON(t *testing.T) {
	rs, err := Parse([]byte(`{"rules": [{"towards": "g1", "points": {"MAX": [1, 2, 1]}}]}`), FormatJSON)
	require.NoError(t, err)
	require.Equal(t, 1, rs.Len())
	assert.Empty(t, rs.Rules[0].Source)
}

func TestParse_YAML(t *testing.T) {
	rs, err := Parse([]byte("rules:\n  - towards: g1\n    needs: {AND: [true, false]}\n"), FormatYAML)
	require.NoError(t, err)
	require.Equal(t, 1, rs.Len())
	assert.True(t, expr.Equal(expr.Reduce("AND", expr.Bool(true), expr.Bool(false)), rs.Rules[0].Needs))
}

func TestParse_RejectsIncludes(t *testing.T) {
	_, err := Parse([]byte(`{"includes": ["x.json"]}`), FormatJSON)
	require.Error(t, err)
}

func TestParse_EmptyDocument(t *testing.T) {
	rs, err := Parse([]byte(`{}`), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, 0, rs.Len())
}

func TestRuleset_Targets(t *testing.T) {
	rs := New(NewRule("a"), NewRule("b"), NewRule("a"))
	assert.Equal(t, []string{"a", "b"}, rs.Targets())
}

func TestRule_FingerprintIgnoresSource(t *testing.T) {
	a := NewRule("lab1")
	b := NewRule("lab1")
	b.Source = "other.json"

	fa, err := a.Fingerprint()
	require.NoError(t, err)
	fb, err := b.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, fa, fb)
}
