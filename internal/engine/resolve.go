package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Friduric/kattis-cli/internal/eval"
	"github.com/Friduric/kattis-cli/internal/graph"
	"github.com/Friduric/kattis-cli/internal/ruleset"
)

// Option configures a resolution pass.
type Option func(*resolver)

// WithLogger sets the logger for per-rule decisions, faults and omissions.
// Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

type resolver struct {
	logger *slog.Logger
}

// Resolve runs one resolution pass of rs against ctx.
//
// The only errors returned are caller mistakes: a nil ruleset, or a nil or
// empty Context (wrapping eval.ErrNoHandlers). Evaluation problems end up in
// Result.Faults.
func Resolve(rs *ruleset.Ruleset, ctx *eval.Context, opts ...Option) (*Result, error) {
	r := &resolver{logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}

	if ctx == nil || ctx.Len() == 0 {
		return nil, fmt.Errorf("resolve: %w", eval.ErrNoHandlers)
	}
	if rs == nil {
		return nil, errors.New("resolve: nil ruleset")
	}

	result := NewResult()
	ctx.Attach(result)
	defer ctx.Detach()

	g := graph.Build(rs.Rules)
	plan := graph.Schedule(g)
	result.Order = plan.Order

	outcomes := make([]Outcome, len(rs.Rules))
	for _, i := range plan.Order {
		outcomes[i] = r.resolveRule(ctx, result, i, rs.Rules[i])
	}

	for _, i := range plan.Omitted {
		rule := rs.Rules[i]
		waiting := graph.WaitingOn(g, plan.Order, i)
		result.Omitted = append(result.Omitted, Omission{Index: i, Rule: rule, WaitingOn: waiting})
		outcomes[i] = Outcome{Index: i, Goal: rule.Towards, Status: StatusOmitted}
		r.logger.Warn("rule omitted: dependencies never resolved",
			"index", i, "rule", rule.DisplayName(), "towards", rule.Towards, "waiting_on", waiting)
	}
	if len(plan.Omitted) > 0 {
		result.Cycles = graph.Cycles(g)
		for _, c := range result.Cycles {
			r.logger.Warn("dependency cycle", "rules", c.Rules, "message", c.Message)
		}
	}

	result.Outcomes = outcomes
	return result, nil
}

func (r *resolver) resolveRule(ctx *eval.Context, result *Result, i int, rule ruleset.Rule) Outcome {
	out := Outcome{Index: i, Goal: rule.Towards}

	ok, err := ctx.EvaluateBool(rule.Needs)
	if err != nil {
		r.fault(result, i, rule, PhaseNeeds, err)
		result.reject(rule)
		out.Status = StatusFaulted
		return out
	}
	if !ok {
		result.reject(rule)
		out.Status = StatusUnresolved
		r.logger.Debug("rule not met", "index", i, "rule", rule.DisplayName(), "towards", rule.Towards)
		return out
	}

	points, err := ctx.EvaluateNumber(rule.Points)
	if err != nil {
		r.fault(result, i, rule, PhasePoints, err)
		result.resolve(i, rule, 0)
		out.Status = StatusFaulted
		return out
	}

	result.resolve(i, rule, points)
	out.Status = StatusResolved
	out.Points = points
	r.logger.Debug("rule resolved", "index", i, "rule", rule.DisplayName(), "towards", rule.Towards, "points", points)
	return out
}

func (r *resolver) fault(result *Result, i int, rule ruleset.Rule, phase Phase, err error) {
	result.Faults = append(result.Faults, Fault{Index: i, Rule: rule, Phase: phase, Message: err.Error(), Err: err})
	r.logger.Warn("rule evaluation failed",
		"index", i, "rule", rule.DisplayName(), "towards", rule.Towards, "phase", string(phase), "error", err)
}
