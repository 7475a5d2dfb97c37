// Package celexpr lets rules embed CEL expressions over a student's
// submission history:
//
//	{"cel": "size(accepted) >= 3 && wrong['hello'] < 5"}
//
// Variables: accepted (list of solved problem ids), attempts and wrong
// (problem id to count, attempted problems only) and student (username).
package celexpr

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/Friduric/kattis-cli/internal/eval"
	"github.com/Friduric/kattis-cli/internal/expr"
	"github.com/Friduric/kattis-cli/internal/kattis"
)

// Operator is the operator name handled by the plugin.
const Operator = "cel"

// costLimit bounds the runtime cost of a single evaluation.
const costLimit = 1000000

// Compiler compiles and caches CEL programs. A Compiler is safe for
// concurrent use and can be shared across passes.
type Compiler struct {
	env      *cel.Env
	programs map[string]cel.Program // source -> program
	mu       sync.RWMutex
}

// NewCompiler creates a Compiler with the history variables declared.
func NewCompiler() (*Compiler, error) {
	env, err := cel.NewEnv(
		cel.Variable("accepted", cel.ListType(cel.StringType)),
		cel.Variable("attempts", cel.MapType(cel.StringType, cel.IntType)),
		cel.Variable("wrong", cel.MapType(cel.StringType, cel.IntType)),
		cel.Variable("student", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Compiler{env: env, programs: make(map[string]cel.Program)}, nil
}

// Compile returns the program for source, compiling it on first use.
func (c *Compiler) Compile(source string) (cel.Program, error) {
	c.mu.RLock()
	prog, ok := c.programs[source]
	c.mu.RUnlock()
	if ok {
		return prog, nil
	}

	ast, issues := c.env.Compile(source)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	prog, err := c.env.Program(ast, cel.CostLimit(costLimit))
	if err != nil {
		return nil, fmt.Errorf("program creation error: %w", err)
	}

	c.mu.Lock()
	c.programs[source] = prog
	c.mu.Unlock()
	return prog, nil
}

// Cached returns the number of compiled programs.
func (c *Compiler) Cached() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.programs)
}

// Handler returns the cel plugin bound to one student's history.
func (c *Compiler) Handler(h *kattis.History) eval.Handler {
	vars := Activation(h)
	return eval.NewHandler(Operator, eval.OperatorMatch(Operator), func(_ *eval.Context, tree expr.Expr) (expr.Expr, error) {
		src, ok := eval.Payload(tree).(expr.String)
		if !ok {
			return nil, &eval.ShapeError{Operator: Operator, Message: "payload must be a CEL source string"}
		}
		prog, err := c.Compile(string(src))
		if err != nil {
			return nil, &eval.ShapeError{Operator: Operator, Message: err.Error()}
		}

		out, _, err := prog.Eval(vars)
		if err != nil {
			return nil, fmt.Errorf("cel %q: %w", string(src), err)
		}

		switch v := out.Value().(type) {
		case bool:
			return expr.Bool(v), nil
		case int64:
			return expr.Number(v), nil
		case uint64:
			return expr.Number(v), nil
		case float64:
			return expr.Number(v), nil
		default:
			got, convErr := expr.FromAny(v)
			if convErr != nil {
				got = expr.String(out.Type().TypeName())
			}
			return nil, &eval.TypeError{Operator: Operator, Want: "bool or number", Got: got}
		}
	})
}

// Activation builds the CEL variables for a history.
func Activation(h *kattis.History) map[string]any {
	attempts := make(map[string]int64)
	wrong := make(map[string]int64)
	for _, p := range h.Problems() {
		attempts[p] = int64(len(h.Attempts(p)))
		wrong[p] = int64(len(h.WrongAnswers(p)))
	}
	accepted := h.Accepted()
	if accepted == nil {
		accepted = []string{}
	}
	return map[string]any{
		"accepted": accepted,
		"attempts": attempts,
		"wrong":    wrong,
		"student":  h.Student.Username,
	}
}
