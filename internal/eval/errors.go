package eval

import (
	"errors"
	"fmt"

	"github.com/Friduric/kattis-cli/internal/expr"
)

// ErrNoHandlers is returned when a Context has no handlers registered at all.
// It indicates a programming error rather than a bad rule.
var ErrNoHandlers = errors.New("evaluation context has no handlers")

// NoHandlerError reports an expression node that no registered handler
// accepts.
type NoHandlerError struct {
	Node expr.Expr
}

func (e *NoHandlerError) Error() string {
	return fmt.Sprintf("no handler accepts %s: %s", expr.Kind(e.Node), expr.Format(e.Node))
}

// ArityError reports an operator applied to the wrong number of operands.
type ArityError struct {
	Operator string
	Want     string
	Got      int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("operator %q needs %s operand(s), got %d", e.Operator, e.Want, e.Got)
}

// ShapeError reports an operator payload that does not have the expected
// structure (a list for reducers, lhs/rhs for comparisons).
type ShapeError struct {
	Operator string
	Message  string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("operator %q: %s", e.Operator, e.Message)
}

// TypeError reports an operand or result of the wrong kind.
type TypeError struct {
	Operator string
	Want     string
	Got      expr.Expr
}

func (e *TypeError) Error() string {
	if e.Operator == "" {
		return fmt.Sprintf("expected %s, got %s", e.Want, expr.Kind(e.Got))
	}
	return fmt.Sprintf("operator %q: expected %s, got %s", e.Operator, e.Want, expr.Kind(e.Got))
}

// DivisionError reports a division by zero.
type DivisionError struct {
	Dividend float64
}

func (e *DivisionError) Error() string {
	return fmt.Sprintf("division by zero (%v / 0)", e.Dividend)
}

// ArithmeticError reports a result that is not a finite number, such as an
// overflow to infinity. Operator is empty when the value came from a plugin.
type ArithmeticError struct {
	Operator string
	Result   float64
}

func (e *ArithmeticError) Error() string {
	if e.Operator == "" {
		return fmt.Sprintf("non-finite number %v", e.Result)
	}
	return fmt.Sprintf("%s: result %v is not a finite number", e.Operator, e.Result)
}

// IsEvalError reports whether err is one of the evaluation faults above.
// Uses errors.As so wrapped errors match.
func IsEvalError(err error) bool {
	var (
		noHandler *NoHandlerError
		arity     *ArityError
		shape     *ShapeError
		typ       *TypeError
		div       *DivisionError
		arith     *ArithmeticError
	)
	return errors.As(err, &noHandler) ||
		errors.As(err, &arity) ||
		errors.As(err, &shape) ||
		errors.As(err, &typ) ||
		errors.As(err, &div) ||
		errors.As(err, &arith)
}
