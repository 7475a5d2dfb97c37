package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Friduric/kattis-cli/internal/kattis"
	"github.com/Friduric/kattis-cli/internal/pass"
	"github.com/Friduric/kattis-cli/internal/report"
	"github.com/Friduric/kattis-cli/internal/ruleset"
	"github.com/Friduric/kattis-cli/internal/store"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testServer(t *testing.T, withStore bool) *Server {
	t.Helper()
	rs, err := ruleset.Parse([]byte(`{"rules":[
		{"towards":"labs","needs":{"solved":"hello"},"points":2},
		{"towards":"labs","needs":{"solved":"cd"},"points":1}
	]}`), ruleset.FormatJSON)
	require.NoError(t, err)

	runner, err := pass.NewRunner(rs,
		pass.WithLogger(quietLogger()),
		pass.WithLocation(time.UTC),
		pass.WithIDGenerator(store.NewFixedGenerator("pass-1", "pass-2")))
	require.NoError(t, err)

	exp := &kattis.Export{Students: []kattis.Student{
		{Username: "anna", Name: "Anna", Submissions: []kattis.Submission{
			{Time: "2017-01-20 09:00:00", Judgement: "Accepted", Problem: "hello"},
		}},
	}}

	opts := []Option{WithExport(exp), WithLogger(quietLogger()), WithGroups([]report.Group{{Title: "Labs", Prefix: "labs"}})}
	if withStore {
		st, err := store.Open(filepath.Join(t.TempDir(), "passes.db"))
		require.NoError(t, err)
		t.Cleanup(func() { st.Close() })
		opts = append(opts, WithStore(st))
	}
	return New(runner, opts...)
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	rec := do(t, testServer(t, false), http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, 2.0, body["rules"])
	assert.Equal(t, 1.0, body["students"])
	assert.Equal(t, false, body["ledger"])
}

func TestResolve_ByUsername(t *testing.T) {
	rec := do(t, testServer(t, false), http.MethodPost, "/api/v1/resolve", ResolveRequest{Username: "anna", Detailed: true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[ResolveResponse](t, rec)
	assert.Equal(t, 2.0, resp.Report.Total)
	require.Len(t, resp.Report.Groups, 1)
	assert.Equal(t, "Labs", resp.Report.Groups[0].Title)
	require.Len(t, resp.Report.Groups[0].Goals, 1)
	assert.Len(t, resp.Report.Groups[0].Goals[0].Rules, 1)
	assert.Empty(t, resp.PassID)
}

func TestResolve_InlineStudentAndRules(t *testing.T) {
	req := map[string]any{
		"student": map[string]any{
			"username": "erik",
			"submissions": []map[string]string{
				{"time": "2017-01-20 09:00:00", "judgement": "Accepted", "problem": "cd"},
			},
		},
		"rules": map[string]any{
			"rules": []map[string]any{{"towards": "bonus", "needs": map[string]any{"solved": "cd"}, "points": 7}},
		},
	}
	rec := do(t, testServer(t, false), http.MethodPost, "/api/v1/resolve", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[ResolveResponse](t, rec)
	assert.Equal(t, 7.0, resp.Report.Total)
	assert.Equal(t, "erik", resp.Report.Username)
	assert.Equal(t, report.OtherTitle, resp.Report.Groups[1].Title)
}

func TestResolve_Errors(t *testing.T) {
	s := testServer(t, false)

	rec := do(t, s, http.MethodPost, "/api/v1/resolve", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/resolve", ResolveRequest{Username: "ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/resolve", map[string]any{"username": "anna", "rules": map[string]any{"rules": []any{map[string]any{"points": 1}}}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/resolve", ResolveRequest{Username: "anna", Record: true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/resolve", bytes.NewBufferString("{"))
	raw := httptest.NewRecorder()
	s.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestPasses_RecordAndRead(t *testing.T) {
	s := testServer(t, true)

	rec := do(t, s, http.MethodPost, "/api/v1/resolve", ResolveRequest{Username: "anna", Record: true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "pass-1", decode[ResolveResponse](t, rec).PassID)

	rec = do(t, s, http.MethodGet, "/api/v1/passes/pass-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[store.Pass](t, rec)
	assert.Equal(t, "anna", p.Username)
	assert.Equal(t, 2.0, p.Total)
	assert.Len(t, p.Outcomes, 2)

	rec = do(t, s, http.MethodGet, "/api/v1/students/anna/passes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[map[string]any](t, rec)
	assert.Equal(t, 1.0, list["count"])

	rec = do(t, s, http.MethodGet, "/api/v1/passes/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/students/anna/passes?limit=x", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPasses_WithoutLedger(t *testing.T) {
	s := testServer(t, false)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, s, http.MethodGet, "/api/v1/passes/x", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, s, http.MethodGet, "/api/v1/students/anna/passes", nil).Code)
}

func TestResolve_BodyTooLarge(t *testing.T) {
	body := `{"username":"anna","rules":"` + strings.Repeat("x", maxRequestBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/resolve", strings.NewReader(body))
	rec := httptest.NewRecorder()
	testServer(t, false).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "invalid request body", decode[map[string]string](t, rec)["error"])
}

func TestRespondJSON_EncodeFailure(t *testing.T) {
	var logs bytes.Buffer
	s := testServer(t, false)
	s.logger = slog.New(slog.NewTextHandler(&logs, nil))

	rec := httptest.NewRecorder()
	s.respondJSON(rec, http.StatusOK, map[string]float64{"total": math.Inf(1)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "failed to encode response", decode[map[string]string](t, rec)["error"])
	assert.Contains(t, logs.String(), "failed to encode response")
}
