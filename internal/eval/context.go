package eval

import (
	"fmt"

	"github.com/Friduric/kattis-cli/internal/expr"
)

// Predicate decides whether a handler applies to a tree. Predicates must
// reject anything they do not recognise without failing.
type Predicate func(c *Context, tree expr.Expr) bool

// Evaluator computes the value of a tree its predicate accepted.
type Evaluator func(c *Context, tree expr.Expr) (expr.Expr, error)

// Handler is one entry in the evaluation registry.
type Handler struct {
	Name  string
	Match Predicate
	Eval  Evaluator
}

// NewHandler builds a handler from a predicate and an evaluator.
func NewHandler(name string, match Predicate, ev Evaluator) Handler {
	return Handler{Name: name, Match: match, Eval: ev}
}

// GoalReader is the view of the goal ledger that evaluation needs.
// engine.Result implements it.
type GoalReader interface {
	GoalPoints(id string) float64
}

// Context holds the ordered handler registry for one resolution pass.
//
// A Context is not safe for concurrent use. Build one per pass.
type Context struct {
	handlers []Handler
	goals    GoalReader
}

// Option configures a Context at construction.
type Option func(*contextConfig)

type contextConfig struct {
	plugins  []Handler
	builtins bool
}

// WithPlugins registers plugin handlers ahead of the builtins. Among the
// plugins, earlier arguments take priority.
func WithPlugins(plugins ...Handler) Option {
	return func(c *contextConfig) {
		c.plugins = append(c.plugins, plugins...)
	}
}

// WithoutBuiltins creates a Context that only holds the given plugins.
// Mostly useful in tests.
func WithoutBuiltins() Option {
	return func(c *contextConfig) {
		c.builtins = false
	}
}

// New creates a Context with the builtin handlers and literal pass-through,
// preceded by any plugins.
func New(opts ...Option) *Context {
	cfg := &contextConfig{builtins: true}
	for _, opt := range opts {
		opt(cfg)
	}

	c := &Context{}
	c.handlers = append(c.handlers, cfg.plugins...)
	if cfg.builtins {
		c.handlers = append(c.handlers, builtinHandlers()...)
		c.handlers = append(c.handlers, literalHandlers()...)
	}
	return c
}

// AddPlugin registers a handler in front of every existing handler, so it
// is tried first and can override builtin operators.
func (c *Context) AddPlugin(h Handler) {
	c.handlers = append([]Handler{h}, c.handlers...)
}

// Attach binds the goal ledger that get reads from.
func (c *Context) Attach(goals GoalReader) {
	c.goals = goals
}

// Detach unbinds the goal ledger.
func (c *Context) Detach() {
	c.goals = nil
}

// Len returns the number of registered handlers.
func (c *Context) Len() int {
	return len(c.handlers)
}

// HandlerNames returns handler names in priority order.
func (c *Context) HandlerNames() []string {
	names := make([]string, len(c.handlers))
	for i, h := range c.handlers {
		names[i] = h.Name
	}
	return names
}

// GoalPoints returns the points accumulated so far by a goal.
// Unknown goals, and a Context with no ledger attached, read as 0.
func (c *Context) GoalPoints(id string) float64 {
	if c.goals == nil {
		return 0
	}
	return c.goals.GoalPoints(id)
}

// EvaluateValue evaluates a tree with the first handler that accepts it.
func (c *Context) EvaluateValue(tree expr.Expr) (expr.Expr, error) {
	for _, h := range c.handlers {
		if h.Match(c, tree) {
			v, err := h.Eval(c, tree)
			if err != nil {
				return nil, err
			}
			return v, nil
		}
	}
	return nil, &NoHandlerError{Node: tree}
}

// EvaluateBool evaluates a tree that must produce a boolean.
func (c *Context) EvaluateBool(tree expr.Expr) (bool, error) {
	v, err := c.EvaluateValue(tree)
	if err != nil {
		return false, err
	}
	b, ok := v.(expr.Bool)
	if !ok {
		return false, &TypeError{Want: "bool", Got: v}
	}
	return bool(b), nil
}

// EvaluateNumber evaluates a tree that must produce a finite number.
func (c *Context) EvaluateNumber(tree expr.Expr) (float64, error) {
	v, err := c.EvaluateValue(tree)
	if err != nil {
		return 0, err
	}
	n, ok := v.(expr.Number)
	if !ok {
		return 0, &TypeError{Want: "number", Got: v}
	}
	if !finite(float64(n)) {
		return 0, &ArithmeticError{Result: float64(n)}
	}
	return float64(n), nil
}

// OperatorMatch returns a predicate accepting operator nodes named name.
// Non-object input is rejected.
func OperatorMatch(name string) Predicate {
	return func(_ *Context, tree expr.Expr) bool {
		return expr.IsOperator(tree, name)
	}
}

// Payload returns the payload of an operator node. Evaluators call it after
// their predicate accepted the tree.
func Payload(tree expr.Expr) expr.Expr {
	_, payload, ok := expr.Operator(tree)
	if !ok {
		panic(fmt.Sprintf("eval: Payload called on non-operator %s", expr.Kind(tree)))
	}
	return payload
}
