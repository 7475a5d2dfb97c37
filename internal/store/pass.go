package store

import (
	"fmt"
	"time"

	"github.com/Friduric/kattis-cli/internal/engine"
	"github.com/Friduric/kattis-cli/internal/expr"
	"github.com/Friduric/kattis-cli/internal/ruleset"
)

// Pass is one stored resolution pass.
type Pass struct {
	ID          string          `json:"id"`
	Seq         int64           `json:"seq"`
	Username    string          `json:"username"`
	Name        string          `json:"name"`
	RulesetHash string          `json:"ruleset_hash"`
	RuleCount   int             `json:"rule_count"`
	Total       float64         `json:"total"`
	CreatedAt   time.Time       `json:"created_at"`
	Goals       []GoalRecord    `json:"goals,omitempty"`
	Outcomes    []OutcomeRecord `json:"outcomes,omitempty"`
}

// GoalRecord is a goal total at the end of a pass.
type GoalRecord struct {
	GoalID string  `json:"goal_id"`
	Name   string  `json:"name"`
	Points float64 `json:"points"`
}

// OutcomeRecord is the stored outcome of one rule.
type OutcomeRecord struct {
	Index       int     `json:"index"`
	Fingerprint string  `json:"fingerprint"`
	RuleName    string  `json:"rule_name"`
	GoalID      string  `json:"goal_id"`
	Status      string  `json:"status"`
	Points      float64 `json:"points"`
	Fault       string  `json:"fault,omitempty"`
}

// NewPass builds the record of a pass. Rules are identified by their
// content fingerprint and the ruleset by the hash of all fingerprints.
func NewPass(gen IDGenerator, now time.Time, username, name string, rs *ruleset.Ruleset, res *engine.Result) (Pass, error) {
	fingerprints := make([]string, len(rs.Rules))
	list := make(expr.List, len(rs.Rules))
	for i, r := range rs.Rules {
		fp, err := r.Fingerprint()
		if err != nil {
			return Pass{}, fmt.Errorf("fingerprint rule %d: %w", i, err)
		}
		fingerprints[i] = fp
		list[i] = expr.String(fp)
	}
	rsHash, err := expr.Fingerprint(list)
	if err != nil {
		return Pass{}, fmt.Errorf("fingerprint ruleset: %w", err)
	}

	p := Pass{
		ID:          gen.Generate(),
		Username:    username,
		Name:        name,
		RulesetHash: rsHash,
		RuleCount:   len(rs.Rules),
		Total:       res.Total(),
		CreatedAt:   now.UTC(),
	}

	for _, g := range res.Goals {
		p.Goals = append(p.Goals, GoalRecord{GoalID: g.ID, Name: g.Name, Points: g.Points})
	}

	faults := make(map[int]string, len(res.Faults))
	for _, f := range res.Faults {
		faults[f.Index] = fmt.Sprintf("%s: %s", f.Phase, f.Message)
	}
	for _, o := range res.Outcomes {
		rule := rs.Rules[o.Index]
		p.Outcomes = append(p.Outcomes, OutcomeRecord{
			Index:       o.Index,
			Fingerprint: fingerprints[o.Index],
			RuleName:    rule.DisplayName(),
			GoalID:      o.Goal,
			Status:      string(o.Status),
			Points:      o.Points,
			Fault:       faults[o.Index],
		})
	}
	return p, nil
}
