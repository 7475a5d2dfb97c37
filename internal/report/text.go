package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/Friduric/kattis-cli/internal/engine"
	"github.com/Friduric/kattis-cli/internal/kattis"
)

const (
	check = "✓"
	cross = "✗"
)

// Text writes a human-readable report for each student.
func Text(w io.Writer, reports []StudentReport, opts Options) error {
	tw := &textWriter{w: w}
	for _, r := range reports {
		tw.student(r, opts)
	}
	return tw.err
}

type textWriter struct {
	w   io.Writer
	err error
}

func (t *textWriter) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

func (t *textWriter) student(r StudentReport, opts Options) {
	t.printf("\n%s (%s)\n%s\n\n", r.Name, r.Username, strings.Repeat("-", 42))

	for _, g := range groupGoals(r.Result.Goals, opts.Groups) {
		t.printf("Goals for %s\n -------\n", g.Title)
		for i, goal := range g.Goals {
			if i%4 == 0 && i > 0 {
				t.printf("   ---\n")
			}
			t.printf("%-50s %3s\n", goal.Name, FormatPoints(goal.Points))
			if opts.Detailed {
				t.resolutions(r.History, goal)
			}
		}
		t.printf(" -------\n\n")
	}

	t.printf("Total: %s\n", FormatPoints(r.Result.Total()))

	if opts.Detailed {
		for _, f := range r.Result.Faults {
			t.printf("Fault in rule #%d %q (%s): %s\n", f.Index, f.Rule.DisplayName(), f.Phase, f.Message)
		}
		for _, o := range r.Result.Omitted {
			t.printf("Omitted rule #%d %q towards %s, waiting on %v\n", o.Index, o.Rule.DisplayName(), o.Rule.Towards, o.WaitingOn)
		}
	}
}

func (t *textWriter) resolutions(h *kattis.History, goal *engine.Goal) {
	for _, rr := range goal.Resolved {
		t.printf("   Rule: %q gave %s pts\n", rr.Rule.DisplayName(), FormatPoints(rr.Points))
		for i, row := range uppgiftRows(h, rr.Rule) {
			if i%4 == 0 && i > 0 {
				t.printf("      ---\n")
			}
			t.printf("    %-24s %s\n", row.Problem+":", statusRow(row))
		}
	}
}

func statusRow(row kattis.ProblemStatus) string {
	if !row.Attempted {
		return "[ - ]"
	}
	return fmt.Sprintf("[ Pts? %-4s AC? %s  +3WA? %s  Before Deadline? %s ]",
		FormatPoints(row.Awarded), mark(row.Accepted), mark(row.ThreeWrong), mark(row.BeforeDeadline))
}

func mark(b bool) string {
	if b {
		return check
	}
	return cross
}
