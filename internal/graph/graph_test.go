package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Friduric/kattis-cli/internal/expr"
	"github.com/Friduric/kattis-cli/internal/ruleset"
)

func rule(towards string, points expr.Expr) ruleset.Rule {
	r := ruleset.NewRule(towards)
	r.Points = points
	return r
}

func TestReferences_NestedAndDeduplicated(t *testing.T) {
	e, err := expr.Parse([]byte(`{"+":[{"get":"b"},{"MAX":[{"get":"a"},{"get":"b"}]},{"<":{"rhs":{"get":"d"},"lhs":{"get":"c"}}}]}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "a", "c", "d"}, References(e))
}

func TestReferences_IgnoresLeavesAndBadGet(t *testing.T) {
	assert.Empty(t, References(expr.Number(3)))
	assert.Empty(t, References(expr.String("get")))
	assert.Empty(t, References(expr.Op("get", expr.Number(1))))
}

func TestReferences_PluginPayloads(t *testing.T) {
	e := expr.Op("uppgift", expr.Obj(expr.O("bonus", expr.Get("labs"))))
	assert.Equal(t, []string{"labs"}, References(e))
}

func TestRuleReferences_NeedsBeforePoints(t *testing.T) {
	r := rule("x", expr.Get("p"))
	r.Needs = expr.Op("positive", expr.Get("n"))
	assert.Equal(t, []string{"n", "p"}, RuleReferences(r))
}

func TestBuild_DependsOnContributors(t *testing.T) {
	rules := []ruleset.Rule{
		rule("A", expr.Get("B")),
		rule("B", expr.Number(3)),
		rule("B", expr.Number(1)),
		rule("C", expr.Number(2)),
	}
	g := Build(rules)

	assert.Equal(t, 4, g.Len())
	assert.Equal(t, []int{1, 2}, g.DependsOn[0])
	assert.Equal(t, []int{0}, g.DependedOnBy[1])
	assert.Equal(t, []int{0}, g.DependedOnBy[2])
	assert.Equal(t, []int{2, 0, 0, 0}, g.Pending)
	assert.Empty(t, g.DependsOn[3])
}

func TestBuild_UnknownGoalHasNoEdge(t *testing.T) {
	g := Build([]ruleset.Rule{rule("A", expr.Get("nobody"))})
	assert.Empty(t, g.DependsOn[0])
	assert.Equal(t, 0, g.Pending[0])
	assert.Equal(t, []string{"nobody"}, g.Refs[0])
}

func TestBuild_SelfLoopNotPending(t *testing.T) {
	g := Build([]ruleset.Rule{rule("X", expr.Reduce("+", expr.Get("X"), expr.Number(1)))})
	assert.True(t, g.SelfLoop[0])
	assert.Equal(t, []int{0}, g.DependsOn[0])
	assert.Equal(t, 0, g.Pending[0])
}

func TestSchedule_StableWithoutDependencies(t *testing.T) {
	rules := []ruleset.Rule{rule("a", expr.Number(1)), rule("b", expr.Number(1)), rule("c", expr.Number(1))}
	plan := Schedule(Build(rules))
	assert.Equal(t, []int{0, 1, 2}, plan.Order)
	assert.Empty(t, plan.Omitted)
}

func TestSchedule_DependencyFirst(t *testing.T) {
	rules := []ruleset.Rule{
		rule("A", expr.Get("B")),
		rule("C", expr.Number(1)),
		rule("B", expr.Number(3)),
	}
	plan := Schedule(Build(rules))
	assert.Equal(t, []int{1, 2, 0}, plan.Order)
}

func TestSchedule_Chain(t *testing.T) {
	rules := []ruleset.Rule{
		rule("total", expr.Reduce("+", expr.Get("labs"), expr.Get("bonus"))),
		rule("bonus", expr.Get("labs")),
		rule("labs", expr.Number(2)),
	}
	plan := Schedule(Build(rules))
	assert.Equal(t, []int{2, 1, 0}, plan.Order)
}

func TestSchedule_SelfLoopIsScheduled(t *testing.T) {
	rules := []ruleset.Rule{
		rule("X", expr.Number(2)),
		rule("X", expr.Get("X")),
	}
	g := Build(rules)
	plan := Schedule(g)

	// Rule 0 also contributes to X, so rule 1 waits for it.
	assert.Equal(t, []int{0, 1}, plan.Order)
	assert.Empty(t, plan.Omitted)
}

func TestSchedule_CycleIsOmitted(t *testing.T) {
	rules := []ruleset.Rule{
		rule("A", expr.Get("B")),
		rule("B", expr.Get("A")),
		rule("C", expr.Number(1)),
		rule("D", expr.Get("A")),
	}
	g := Build(rules)
	plan := Schedule(g)

	assert.Equal(t, []int{2}, plan.Order)
	assert.Equal(t, []int{0, 1, 3}, plan.Omitted)
	assert.Equal(t, []int{1}, WaitingOn(g, plan.Order, 0))
	assert.Equal(t, []int{0}, WaitingOn(g, plan.Order, 3))
}

func TestCycles_DAGHasNone(t *testing.T) {
	rules := []ruleset.Rule{rule("A", expr.Get("B")), rule("B", expr.Number(1))}
	assert.Empty(t, Cycles(Build(rules)))
}

func TestCycles_SelfLoopIsNotACycle(t *testing.T) {
	assert.Empty(t, Cycles(Build([]ruleset.Rule{rule("X", expr.Get("X"))})))
}

func TestCycles_ReportsPath(t *testing.T) {
	rules := []ruleset.Rule{
		rule("A", expr.Get("B")),
		rule("free", expr.Number(1)),
		rule("B", expr.Get("C")),
		rule("C", expr.Get("A")),
	}
	cycles := Cycles(Build(rules))

	require.Len(t, cycles, 1)
	assert.Equal(t, []int{0, 2, 3}, cycles[0].Rules)
	assert.Equal(t, []int{0, 2, 3, 0}, cycles[0].Path)
	assert.Contains(t, cycles[0].Message, "#0 -> #2 -> #3 -> #0")
}

func TestCycles_PathClosesAroundDeadEnd(t *testing.T) {
	// #1 reads #2 and #3; #2 only leads back to #1, #3 leads to #0.
	rules := []ruleset.Rule{
		rule("A", expr.Get("B")),
		rule("B", expr.Reduce("+", expr.Get("C"), expr.Get("D"))),
		rule("C", expr.Get("B")),
		rule("D", expr.Get("A")),
	}
	cycles := Cycles(Build(rules))

	require.Len(t, cycles, 1)
	assert.Equal(t, []int{0, 1, 2, 3}, cycles[0].Rules)
	assert.Equal(t, []int{0, 1, 3, 0}, cycles[0].Path)
	assert.Equal(t, "rules read each other's goals: #0 -> #1 -> #3 -> #0", cycles[0].Message)

	g := Build(rules)
	path := cycles[0].Path
	for i := 0; i+1 < len(path); i++ {
		assert.Contains(t, g.DependsOn[path[i]], path[i+1], "edge #%d -> #%d", path[i], path[i+1])
	}
}

func TestCycles_Deterministic(t *testing.T) {
	rules := []ruleset.Rule{
		rule("A", expr.Get("B")),
		rule("B", expr.Get("A")),
		rule("C", expr.Get("D")),
		rule("D", expr.Get("C")),
	}
	first := Cycles(Build(rules))
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Cycles(Build(rules)))
	}
	require.Len(t, first, 2)
	assert.Equal(t, []int{0, 1}, first[0].Rules)
	assert.Equal(t, []int{2, 3}, first[1].Rules)
}
