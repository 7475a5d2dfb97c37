package report

import (
	"encoding/json"
	"io"

	"github.com/Friduric/kattis-cli/internal/engine"
	"github.com/Friduric/kattis-cli/internal/kattis"
)

// StudentJSON is the JSON form of a StudentReport.
type StudentJSON struct {
	Username string            `json:"username"`
	Name     string            `json:"name"`
	Total    float64           `json:"total"`
	Groups   []GroupJSON       `json:"groups"`
	Faults   []engine.Fault    `json:"faults,omitempty"`
	Omitted  []engine.Omission `json:"omitted,omitempty"`
}

// GroupJSON is a titled list of goals.
type GroupJSON struct {
	Title string     `json:"title"`
	Goals []GoalJSON `json:"goals"`
}

// GoalJSON is a goal; Rules is only filled in detailed mode.
type GoalJSON struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Points float64    `json:"points"`
	Rules  []RuleJSON `json:"rules,omitempty"`
}

// RuleJSON is a resolved rule.
type RuleJSON struct {
	Index   int                    `json:"index"`
	Name    string                 `json:"name"`
	Points  float64                `json:"points"`
	Uppgift []kattis.ProblemStatus `json:"uppgift,omitempty"`
}

// Build converts a report to its JSON form.
func Build(r StudentReport, opts Options) StudentJSON {
	out := StudentJSON{
		Username: r.Username,
		Name:     r.Name,
		Total:    r.Result.Total(),
		Groups:   []GroupJSON{},
	}
	for _, g := range groupGoals(r.Result.Goals, opts.Groups) {
		gj := GroupJSON{Title: g.Title, Goals: []GoalJSON{}}
		for _, goal := range g.Goals {
			item := GoalJSON{ID: goal.ID, Name: goal.Name, Points: goal.Points}
			if opts.Detailed {
				for _, rr := range goal.Resolved {
					item.Rules = append(item.Rules, RuleJSON{
						Index:   rr.Index,
						Name:    rr.Rule.DisplayName(),
						Points:  rr.Points,
						Uppgift: uppgiftRows(r.History, rr.Rule),
					})
				}
			}
			gj.Goals = append(gj.Goals, item)
		}
		out.Groups = append(out.Groups, gj)
	}
	if opts.Detailed {
		out.Faults = r.Result.Faults
		out.Omitted = r.Result.Omitted
	}
	return out
}

// JSON writes all reports as one indented JSON array.
func JSON(w io.Writer, reports []StudentReport, opts Options) error {
	out := make([]StudentJSON, len(reports))
	for i, r := range reports {
		out[i] = Build(r, opts)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
