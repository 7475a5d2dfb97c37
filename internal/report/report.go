// Package report renders resolution results for people and for scripts.
package report

import (
	"strconv"
	"strings"

	"github.com/Friduric/kattis-cli/internal/engine"
	"github.com/Friduric/kattis-cli/internal/expr"
	"github.com/Friduric/kattis-cli/internal/kattis"
	"github.com/Friduric/kattis-cli/internal/ruleset"
)

// StudentReport is the resolution of one student.
type StudentReport struct {
	Username string
	Name     string
	Result   *engine.Result

	// History is optional. When set, detailed reports break uppgift rules
	// down per problem.
	History *kattis.History
}

// Group collects goals whose id starts with Prefix.
type Group struct {
	Title  string `json:"title"`
	Prefix string `json:"prefix"`
}

// Options controls rendering.
type Options struct {
	Detailed bool
	Groups   []Group
}

// DefaultGroups puts every goal in one group.
var DefaultGroups = []Group{{Title: "Goals"}}

// OtherTitle is the title of the group of goals matching no prefix.
const OtherTitle = "Other"

type goalGroup struct {
	Title string
	Goals []*engine.Goal
}

// groupGoals assigns each goal to the first group whose prefix matches.
// Unmatched goals end up in a trailing Other group.
func groupGoals(goals []*engine.Goal, groups []Group) []goalGroup {
	if len(groups) == 0 {
		groups = DefaultGroups
	}
	out := make([]goalGroup, len(groups))
	for i, g := range groups {
		out[i].Title = g.Title
	}

	var rest []*engine.Goal
	for _, goal := range goals {
		placed := false
		for i, g := range groups {
			if strings.HasPrefix(goal.ID, g.Prefix) {
				out[i].Goals = append(out[i].Goals, goal)
				placed = true
				break
			}
		}
		if !placed {
			rest = append(rest, goal)
		}
	}
	if len(rest) > 0 {
		out = append(out, goalGroup{Title: OtherTitle, Goals: rest})
	}
	return out
}

// FormatPoints prints whole numbers without decimals.
func FormatPoints(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// uppgiftRows returns the per-problem breakdown of a rule whose points
// expression is an uppgift node, or nil.
func uppgiftRows(h *kattis.History, r ruleset.Rule) []kattis.ProblemStatus {
	if h == nil {
		return nil
	}
	name, payload, ok := expr.Operator(r.Points)
	if !ok || name != kattis.OpUppgift {
		return nil
	}
	rows, err := h.Uppgift(payload)
	if err != nil {
		return nil
	}
	return rows
}
