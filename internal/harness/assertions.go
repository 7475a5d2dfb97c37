package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Friduric/kattis-cli/internal/engine"
	"github.com/Friduric/kattis-cli/internal/report"
	"github.com/Friduric/kattis-cli/internal/store"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Student  string
	Expected string
	Actual   string
	Outcomes []engine.Outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s (%s)\n", e.Type, e.Student)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Outcomes) > 0 {
		fmt.Fprintf(&buf, "\nOutcomes:\n")
		for _, o := range e.Outcomes {
			fmt.Fprintf(&buf, "  [%d] %s %s %s\n", o.Index, o.Goal, o.Status, report.FormatPoints(o.Points))
		}
	}
	return buf.String()
}

// AssertionContext provides the ledger for ledger assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result and
// returns one message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, a := range assertions {
		rep, ok := result.Report(a.Student)
		if !ok {
			errors = append(errors, fmt.Sprintf("assertion[%d]: student %q was not resolved", i, a.Student))
			continue
		}

		var err error
		switch a.Type {
		case AssertTotal:
			err = assertTotal(rep, a)
		case AssertGoalPoints:
			err = assertGoalPoints(rep, a)
		case AssertStatus:
			err = assertStatus(rep, a)
		case AssertOmitted:
			err = assertOmitted(rep, a)
		case AssertFaults:
			err = assertFaults(rep, a)
		case AssertCycle:
			err = assertCycle(rep, a)
		case AssertLedger:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: ledger requires a store", i)
			} else {
				err = assertLedger(actx.Ctx, actx.Store, a)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}

func failure(rep report.StudentReport, a Assertion, expected, actual string) *AssertionError {
	return &AssertionError{
		Type:     a.Type,
		Student:  rep.Username,
		Expected: expected,
		Actual:   actual,
		Outcomes: rep.Result.Outcomes,
	}
}

func assertTotal(rep report.StudentReport, a Assertion) error {
	if got := rep.Result.Total(); got != *a.Points {
		return failure(rep, a, report.FormatPoints(*a.Points), report.FormatPoints(got))
	}
	return nil
}

func assertGoalPoints(rep report.StudentReport, a Assertion) error {
	g := rep.Result.Goal(a.Goal)
	if g == nil {
		return failure(rep, a, fmt.Sprintf("goal %s with %s points", a.Goal, report.FormatPoints(*a.Points)), "goal not created")
	}
	if g.Points != *a.Points {
		return failure(rep, a,
			fmt.Sprintf("goal %s with %s points", a.Goal, report.FormatPoints(*a.Points)),
			fmt.Sprintf("%s points", report.FormatPoints(g.Points)))
	}
	return nil
}

func assertStatus(rep report.StudentReport, a Assertion) error {
	idx := *a.Rule
	if idx < 0 || idx >= len(rep.Result.Outcomes) {
		return failure(rep, a, fmt.Sprintf("rule #%d %s", idx, a.Status), "no such rule")
	}
	if got := rep.Result.Outcomes[idx].Status; string(got) != a.Status {
		return failure(rep, a, fmt.Sprintf("rule #%d %s", idx, a.Status), string(got))
	}
	return nil
}

func assertOmitted(rep report.StudentReport, a Assertion) error {
	got := make([]int, len(rep.Result.Omitted))
	for i, o := range rep.Result.Omitted {
		got[i] = o.Index
	}
	want := a.Rules
	if want == nil {
		want = []int{}
	}
	if !slices.Equal(got, want) {
		return failure(rep, a, fmt.Sprintf("%v", want), fmt.Sprintf("%v", got))
	}
	return nil
}

func assertFaults(rep report.StudentReport, a Assertion) error {
	if got := len(rep.Result.Faults); got != *a.Count {
		return failure(rep, a, fmt.Sprintf("%d faults", *a.Count), fmt.Sprintf("%d faults", got))
	}
	return nil
}

func assertCycle(rep report.StudentReport, a Assertion) error {
	want := slices.Clone(a.Rules)
	slices.Sort(want)
	var seen []string
	for _, c := range rep.Result.Cycles {
		if slices.Equal(c.Rules, want) {
			return nil
		}
		seen = append(seen, fmt.Sprintf("%v", c.Rules))
	}
	return failure(rep, a, fmt.Sprintf("cycle %v", want), fmt.Sprintf("cycles [%s]", strings.Join(seen, " ")))
}

func assertLedger(ctx context.Context, st *store.Store, a Assertion) error {
	passes, err := st.ListPasses(ctx, a.Student, 0)
	if err != nil {
		return fmt.Errorf("ledger: %w", err)
	}
	if len(passes) != *a.Count {
		return &AssertionError{
			Type:     a.Type,
			Student:  a.Student,
			Expected: fmt.Sprintf("%d passes", *a.Count),
			Actual:   fmt.Sprintf("%d passes", len(passes)),
		}
	}
	return nil
}
