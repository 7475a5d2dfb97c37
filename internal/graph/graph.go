package graph

import (
	"slices"

	"github.com/Friduric/kattis-cli/internal/expr"
	"github.com/Friduric/kattis-cli/internal/ruleset"
)

// Graph is the rule-to-rule dependency relation of a ruleset, indexed by
// rule position.
type Graph struct {
	// DependsOn[i] lists the rules i reads from, ascending. It includes i
	// itself when the rule reads its own goal.
	DependsOn [][]int

	// DependedOnBy is the transpose of DependsOn, ascending.
	DependedOnBy [][]int

	// Pending[i] is the number of other rules i waits for.
	// Self-dependencies are not counted.
	Pending []int

	// SelfLoop[i] is true when rule i reads the goal it contributes to.
	SelfLoop []bool

	// Refs[i] holds the goal ids referenced by rule i, first-appearance order.
	Refs [][]string
}

// Len returns the number of rules in the graph.
func (g *Graph) Len() int {
	return len(g.DependsOn)
}

// References returns the goal ids named by get nodes anywhere in e, in
// first-appearance order without duplicates. Object keys are visited in
// sorted order so the result is deterministic.
func References(e expr.Expr) []string {
	var ids []string
	seen := make(map[string]bool)
	collectRefs(e, seen, &ids)
	return ids
}

func collectRefs(e expr.Expr, seen map[string]bool, ids *[]string) {
	switch v := e.(type) {
	case expr.Object:
		if name, payload, ok := expr.Operator(v); ok && name == "get" {
			if id, isStr := payload.(expr.String); isStr {
				if !seen[string(id)] {
					seen[string(id)] = true
					*ids = append(*ids, string(id))
				}
				return
			}
		}
		for _, k := range v.SortedKeys() {
			collectRefs(v[k], seen, ids)
		}
	case expr.List:
		for _, item := range v {
			collectRefs(item, seen, ids)
		}
	}
}

// RuleReferences returns the goal ids read by a rule, needs first.
func RuleReferences(r ruleset.Rule) []string {
	var ids []string
	seen := make(map[string]bool)
	collectRefs(r.Needs, seen, &ids)
	collectRefs(r.Points, seen, &ids)
	return ids
}

// Build computes the dependency relation for rules.
func Build(rules []ruleset.Rule) *Graph {
	n := len(rules)
	g := &Graph{
		DependsOn:    make([][]int, n),
		DependedOnBy: make([][]int, n),
		Pending:      make([]int, n),
		SelfLoop:     make([]bool, n),
		Refs:         make([][]string, n),
	}

	contributors := make(map[string][]int)
	for i, r := range rules {
		contributors[r.Towards] = append(contributors[r.Towards], i)
	}

	for i, r := range rules {
		g.Refs[i] = RuleReferences(r)

		deps := make(map[int]bool)
		for _, id := range g.Refs[i] {
			for _, j := range contributors[id] {
				deps[j] = true
			}
		}

		for j := range deps {
			g.DependsOn[i] = append(g.DependsOn[i], j)
			g.DependedOnBy[j] = append(g.DependedOnBy[j], i)
			if j == i {
				g.SelfLoop[i] = true
			} else {
				g.Pending[i]++
			}
		}
		slices.Sort(g.DependsOn[i])
	}
	for j := range g.DependedOnBy {
		slices.Sort(g.DependedOnBy[j])
	}
	return g
}
