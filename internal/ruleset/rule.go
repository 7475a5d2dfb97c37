package ruleset

import (
	"fmt"

	"github.com/Friduric/kattis-cli/internal/expr"
)

// Rule is a condition/point-expression pair contributing to a goal.
type Rule struct {
	Needs    expr.Expr `json:"needs"`
	Towards  string    `json:"towards"`
	Points   expr.Expr `json:"points"`
	Name     string    `json:"name,omitempty"`

	// Deadline and Late ("late" or "after-deadline" in rule files) are
	// informational and kept for older rule files. Resolution never reads
	// them: a rule gives its points regardless of the clock. Per-problem
	// deadline halving is done by the uppgift operator in points.
	Deadline string `json:"deadline,omitempty"`
	Late     string `json:"late,omitempty"`

	// Source is the file the rule was read from (empty for in-memory rules).
	Source string `json:"source,omitempty"`
}

// NewRule creates a rule with the default condition (true) and points (1).
func NewRule(towards string) Rule {
	return Rule{
		Needs:   expr.Bool(true),
		Towards: towards,
		Points:  expr.Number(1),
	}
}

// DisplayName returns the rule name, or a placeholder for unnamed rules.
func (r Rule) DisplayName() string {
	if r.Name == "" {
		return "Unnamed Rule"
	}
	return r.Name
}

// Fingerprint returns the content hash of the rule's identifying fields.
func (r Rule) Fingerprint() (string, error) {
	return expr.RuleFingerprint(r.Needs, r.Towards, r.Points, r.Name)
}

// Ruleset is an ordered collection of rules. Order only affects tie-breaking
// between unrelated rules during scheduling.
type Ruleset struct {
	Rules []Rule `json:"rules"`

	// Files lists every file that contributed rules, root first.
	Files []string `json:"files,omitempty"`
}

// New creates an empty ruleset.
func New(rules ...Rule) *Ruleset {
	rs := &Ruleset{}
	for _, r := range rules {
		rs.Add(r)
	}
	return rs
}

// Add appends a rule.
func (rs *Ruleset) Add(r Rule) {
	rs.Rules = append(rs.Rules, r)
}

// Len returns the number of rules.
func (rs *Ruleset) Len() int {
	return len(rs.Rules)
}

// Targets returns the distinct goal ids named by towards, in first-seen order.
func (rs *Ruleset) Targets() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range rs.Rules {
		if !seen[r.Towards] {
			seen[r.Towards] = true
			out = append(out, r.Towards)
		}
	}
	return out
}

// decodeRule builds a Rule from a schema-checked rule object.
func decodeRule(obj expr.Object, index int, source string) (Rule, error) {
	rule := NewRule("")
	rule.Source = source

	if v, ok := obj["needs"]; ok {
		rule.Needs = v
	}
	if v, ok := obj["points"]; ok {
		rule.Points = v
	}

	strField := func(key string) (string, error) {
		v, ok := obj[key]
		if !ok {
			return "", nil
		}
		s, ok := v.(expr.String)
		if !ok {
			return "", &RuleError{Source: source, Index: index, Field: key, Message: fmt.Sprintf("expected string, got %s", expr.Kind(v))}
		}
		return string(s), nil
	}

	var err error
	if rule.Towards, err = strField("towards"); err != nil {
		return Rule{}, err
	}
	if rule.Towards == "" {
		return Rule{}, &RuleError{Source: source, Index: index, Field: "towards", Message: "towards is required"}
	}
	if rule.Name, err = strField("name"); err != nil {
		return Rule{}, err
	}
	if rule.Deadline, err = strField("deadline"); err != nil {
		return Rule{}, err
	}
	if rule.Late, err = strField("late"); err != nil {
		return Rule{}, err
	}
	if rule.Late == "" {
		if rule.Late, err = strField("after-deadline"); err != nil {
			return Rule{}, err
		}
	}

	return rule, nil
}
