package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Friduric/kattis-cli/internal/kattis"
	"github.com/Friduric/kattis-cli/internal/pass"
	"github.com/Friduric/kattis-cli/internal/report"
	"github.com/Friduric/kattis-cli/internal/ruleset"
	"github.com/Friduric/kattis-cli/internal/store"
	"github.com/Friduric/kattis-cli/internal/testutil"
)

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	Errors []string `json:"errors,omitempty"`

	// Reports holds one report per resolved student, in export order.
	Reports []report.StudentReport `json:"-"`

	// Passes holds the recorded passes when the scenario records.
	Passes []store.Pass `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true, Errors: []string{}}
}

// AddError adds an error message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Report returns the report of a student, or false.
func (r *Result) Report(username string) (report.StudentReport, bool) {
	for _, rep := range r.Reports {
		if rep.Username == username {
			return rep, true
		}
	}
	return report.StudentReport{}, false
}

// Run executes a scenario in a fresh in-memory ledger and evaluates its
// assertions. Loader failures are returned as errors; failed assertions
// are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	now, err := scenario.Clock()
	if err != nil {
		return nil, err
	}

	rs, err := ruleset.Load(scenario.Rules)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	exp, err := kattis.ReadExport(scenario.Export)
	if err != nil {
		return nil, fmt.Errorf("failed to load export: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	clock := testutil.NewClock(now)
	runner, err := pass.NewRunner(rs,
		pass.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		pass.WithClock(clock.Now),
		pass.WithLocation(time.UTC),
		pass.WithIDGenerator(testutil.NewSequenceIDs(scenario.Name)))
	if err != nil {
		return nil, err
	}

	reports, err := runner.Export(exp, scenario.Filter)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve: %w", err)
	}

	result := NewResult()
	result.Reports = reports

	ctx := context.Background()
	if scenario.Record {
		for _, rep := range reports {
			p, err := runner.Record(ctx, st, rep)
			if err != nil {
				return nil, fmt.Errorf("failed to record pass: %w", err)
			}
			result.Passes = append(result.Passes, p)
			clock.Advance(time.Minute)
		}
	}

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}
