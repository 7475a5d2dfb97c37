package eval

import (
	"math"

	"github.com/Friduric/kattis-cli/internal/expr"
)

// builtinHandlers returns the structural builtins in priority order.
func builtinHandlers() []Handler {
	hs := []Handler{
		NewHandler("get", OperatorMatch("get"), evalGet),
	}

	for _, r := range []struct {
		name string
		fn   func(a, b float64) (float64, error)
	}{
		{"+", func(a, b float64) (float64, error) { return a + b, nil }},
		{"-", func(a, b float64) (float64, error) { return a - b, nil }},
		{"*", func(a, b float64) (float64, error) { return a * b, nil }},
		{"/", divide},
		{"MAX", func(a, b float64) (float64, error) { return math.Max(a, b), nil }},
		{"MIN", func(a, b float64) (float64, error) { return math.Min(a, b), nil }},
	} {
		hs = append(hs, NewHandler(r.name, OperatorMatch(r.name), numericReducer(r.name, r.fn)))
	}

	hs = append(hs,
		NewHandler("COUNT", OperatorMatch("COUNT"), evalCount),
		NewHandler("AND", OperatorMatch("AND"), boolReducer("AND", true)),
		NewHandler("OR", OperatorMatch("OR"), boolReducer("OR", false)),
		NewHandler("positive", OperatorMatch("positive"), signPredicate("positive", func(f float64) bool { return f > 0 })),
		NewHandler("negative", OperatorMatch("negative"), signPredicate("negative", func(f float64) bool { return f < 0 })),
		NewHandler("zero", OperatorMatch("zero"), signPredicate("zero", func(f float64) bool { return f == 0 })),
	)

	for _, cmp := range []struct {
		name string
		fn   func(a, b float64) bool
	}{
		{"<", func(a, b float64) bool { return a < b }},
		{"<=", func(a, b float64) bool { return a <= b }},
		{">=", func(a, b float64) bool { return a >= b }},
		{">", func(a, b float64) bool { return a > b }},
	} {
		hs = append(hs, NewHandler(cmp.name, OperatorMatch(cmp.name), ordering(cmp.name, cmp.fn)))
	}
	hs = append(hs,
		NewHandler("=", OperatorMatch("="), equality("=", true)),
		NewHandler("!=", OperatorMatch("!="), equality("!=", false)),
	)
	return hs
}

// literalHandlers pass booleans and numbers through unchanged. They sit last
// so any structural handler sees a tree first.
func literalHandlers() []Handler {
	return []Handler{
		NewHandler("bool",
			func(_ *Context, tree expr.Expr) bool { _, ok := tree.(expr.Bool); return ok },
			func(_ *Context, tree expr.Expr) (expr.Expr, error) { return tree, nil }),
		NewHandler("number",
			func(_ *Context, tree expr.Expr) bool { _, ok := tree.(expr.Number); return ok },
			func(_ *Context, tree expr.Expr) (expr.Expr, error) { return tree, nil }),
	}
}

func evalGet(c *Context, tree expr.Expr) (expr.Expr, error) {
	payload := Payload(tree)
	id, ok := payload.(expr.String)
	if !ok {
		return nil, &ShapeError{Operator: "get", Message: "payload must be a goal id string, got " + expr.Kind(payload)}
	}
	return expr.Number(c.GoalPoints(string(id))), nil
}

func divide(a, b float64) (float64, error) {
	if b == 0 {
		return 0, &DivisionError{Dividend: a}
	}
	return a / b, nil
}

func finite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

// operands evaluates every element of a list payload.
func operands(c *Context, name string, tree expr.Expr) ([]expr.Expr, error) {
	list, ok := Payload(tree).(expr.List)
	if !ok {
		return nil, &ShapeError{Operator: name, Message: "payload must be a list, got " + expr.Kind(Payload(tree))}
	}
	values := make([]expr.Expr, len(list))
	for i, item := range list {
		v, err := c.EvaluateValue(item)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// numericReducer folds a non-empty operand list left to right.
func numericReducer(name string, fn func(a, b float64) (float64, error)) Evaluator {
	return func(c *Context, tree expr.Expr) (expr.Expr, error) {
		values, err := operands(c, name, tree)
		if err != nil {
			return nil, err
		}
		if len(values) == 0 {
			return nil, &ArityError{Operator: name, Want: "at least 1", Got: 0}
		}

		acc, err := asNumber(name, values[0])
		if err != nil {
			return nil, err
		}
		for _, v := range values[1:] {
			n, err := asNumber(name, v)
			if err != nil {
				return nil, err
			}
			if acc, err = fn(acc, n); err != nil {
				return nil, err
			}
			if !finite(acc) {
				return nil, &ArithmeticError{Operator: name, Result: acc}
			}
		}
		return expr.Number(acc), nil
	}
}

func evalCount(c *Context, tree expr.Expr) (expr.Expr, error) {
	values, err := operands(c, "COUNT", tree)
	if err != nil {
		return nil, err
	}
	count := 0
	for _, v := range values {
		if expr.Truthy(v) {
			count++
		}
	}
	return expr.Number(count), nil
}

// boolReducer evaluates every operand and then reduces. identity is the
// value of an empty list.
func boolReducer(name string, identity bool) Evaluator {
	return func(c *Context, tree expr.Expr) (expr.Expr, error) {
		values, err := operands(c, name, tree)
		if err != nil {
			return nil, err
		}
		acc := identity
		for _, v := range values {
			b, ok := v.(expr.Bool)
			if !ok {
				return nil, &TypeError{Operator: name, Want: "bool", Got: v}
			}
			if identity {
				acc = acc && bool(b)
			} else {
				acc = acc || bool(b)
			}
		}
		return expr.Bool(acc), nil
	}
}

func signPredicate(name string, test func(float64) bool) Evaluator {
	return func(c *Context, tree expr.Expr) (expr.Expr, error) {
		v, err := c.EvaluateValue(Payload(tree))
		if err != nil {
			return nil, err
		}
		n, err := asNumber(name, v)
		if err != nil {
			return nil, err
		}
		return expr.Bool(test(n)), nil
	}
}

// sides evaluates the lhs and rhs of a comparison payload.
func sides(c *Context, name string, tree expr.Expr) (lhs, rhs expr.Expr, err error) {
	obj, ok := Payload(tree).(expr.Object)
	if !ok {
		return nil, nil, &ShapeError{Operator: name, Message: "payload must be an object with lhs and rhs, got " + expr.Kind(Payload(tree))}
	}
	l, hasL := obj["lhs"]
	r, hasR := obj["rhs"]
	if !hasL || !hasR {
		return nil, nil, &ShapeError{Operator: name, Message: "payload needs both lhs and rhs"}
	}
	if lhs, err = c.EvaluateValue(l); err != nil {
		return nil, nil, err
	}
	if rhs, err = c.EvaluateValue(r); err != nil {
		return nil, nil, err
	}
	return lhs, rhs, nil
}

func ordering(name string, fn func(a, b float64) bool) Evaluator {
	return func(c *Context, tree expr.Expr) (expr.Expr, error) {
		lhs, rhs, err := sides(c, name, tree)
		if err != nil {
			return nil, err
		}
		a, err := asNumber(name, lhs)
		if err != nil {
			return nil, err
		}
		b, err := asNumber(name, rhs)
		if err != nil {
			return nil, err
		}
		return expr.Bool(fn(a, b)), nil
	}
}

func equality(name string, want bool) Evaluator {
	return func(c *Context, tree expr.Expr) (expr.Expr, error) {
		lhs, rhs, err := sides(c, name, tree)
		if err != nil {
			return nil, err
		}
		return expr.Bool(expr.Equal(lhs, rhs) == want), nil
	}
}

func asNumber(name string, v expr.Expr) (float64, error) {
	n, ok := v.(expr.Number)
	if !ok {
		return 0, &TypeError{Operator: name, Want: "number", Got: v}
	}
	return float64(n), nil
}
