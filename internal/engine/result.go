package engine

import (
	"github.com/Friduric/kattis-cli/internal/graph"
	"github.com/Friduric/kattis-cli/internal/ruleset"
)

// ResolvedRule is a rule that contributed to a goal, with the points it gave.
type ResolvedRule struct {
	Rule   ruleset.Rule `json:"rule"`
	Index  int          `json:"index"`
	Points float64      `json:"points"`
}

// Goal is an accumulation bucket. Points always equals the sum of the
// points in Resolved.
type Goal struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Points      float64        `json:"points"`
	Resolved    []ResolvedRule `json:"resolved"`
	NonResolved []ruleset.Rule `json:"non_resolved"`
}

// Status is the per-rule outcome of a pass.
type Status string

const (
	StatusResolved   Status = "resolved"
	StatusUnresolved Status = "unresolved"
	StatusFaulted    Status = "faulted"
	StatusOmitted    Status = "omitted"
)

// Outcome records what happened to one rule.
type Outcome struct {
	Index  int     `json:"index"`
	Goal   string  `json:"goal"`
	Status Status  `json:"status"`
	Points float64 `json:"points"`
}

// Phase names the rule field whose evaluation faulted.
type Phase string

const (
	PhaseNeeds  Phase = "needs"
	PhasePoints Phase = "points"
)

// Fault is an evaluation error recovered at rule level.
type Fault struct {
	Index   int          `json:"index"`
	Rule    ruleset.Rule `json:"rule"`
	Phase   Phase        `json:"phase"`
	Message string       `json:"message"`
	Err     error        `json:"-"`
}

// Omission is a rule left out of the evaluation order.
type Omission struct {
	Index     int          `json:"index"`
	Rule      ruleset.Rule `json:"rule"`
	WaitingOn []int        `json:"waiting_on"`
}

// Result is the ledger built by one resolution pass.
type Result struct {
	Goals    []*Goal       `json:"goals"`
	Order    []int         `json:"order"`
	Outcomes []Outcome     `json:"outcomes"`
	Faults   []Fault       `json:"faults,omitempty"`
	Omitted  []Omission    `json:"omitted,omitempty"`
	Cycles   []graph.Cycle `json:"cycles,omitempty"`

	byID map[string]*Goal
}

// NewResult creates an empty ledger.
func NewResult() *Result {
	return &Result{byID: make(map[string]*Goal)}
}

// Goal returns the goal with the given id, or nil.
func (r *Result) Goal(id string) *Goal {
	return r.byID[id]
}

// GoalIDs returns goal ids in creation order.
func (r *Result) GoalIDs() []string {
	ids := make([]string, len(r.Goals))
	for i, g := range r.Goals {
		ids[i] = g.ID
	}
	return ids
}

// GoalPoints returns the points of a goal, creating it with 0 points if it
// does not exist yet. It is the GoalReader behind get.
func (r *Result) GoalPoints(id string) float64 {
	return r.goal(id).Points
}

// Total returns the sum of points over all goals.
func (r *Result) Total() float64 {
	var total float64
	for _, g := range r.Goals {
		total += g.Points
	}
	return total
}

// goal is get-or-insert by id.
func (r *Result) goal(id string) *Goal {
	if r.byID == nil {
		r.byID = make(map[string]*Goal)
	}
	if g, ok := r.byID[id]; ok {
		return g
	}
	g := &Goal{ID: id, Name: id}
	r.byID[id] = g
	r.Goals = append(r.Goals, g)
	return g
}

func (r *Result) resolve(index int, rule ruleset.Rule, points float64) {
	g := r.goal(rule.Towards)
	g.Points += points
	g.Resolved = append(g.Resolved, ResolvedRule{Rule: rule, Index: index, Points: points})
}

func (r *Result) reject(rule ruleset.Rule) {
	g := r.goal(rule.Towards)
	g.NonResolved = append(g.NonResolved, rule)
}
