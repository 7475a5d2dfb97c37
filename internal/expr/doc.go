// Package expr provides the value model that flows through rule evaluation.
//
// Rule conditions and point formulas are JSON-shaped trees. An operator is a
// single-key object mapping the operator name to its payload:
//
//	{"+": [1, 2, {"get": "goal-id"}]}
//	{"<": {"lhs": 4, "rhs": 2}}
//	{"positive": {"get": "other-goal"}}
//
// Expr is a sealed interface; only Null, Bool, Number, String, List and
// Object implement it. Values are immutable once built and evaluation never
// modifies them.
//
// All other internal packages import expr; expr imports nothing internal.
package expr
