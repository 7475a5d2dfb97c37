package kattis

import (
	"fmt"
	"time"

	"github.com/Friduric/kattis-cli/internal/eval"
	"github.com/Friduric/kattis-cli/internal/expr"
)

// Plugin operator names.
const (
	OpSolved       = "solved"
	OpSolvedBefore = "solved-before"
	OpAttempts     = "attempts"
	OpWrongAnswers = "wrong-answers"
	OpUppgift      = "uppgift"
	OpSession      = "session"
)

// Plugins returns the evaluation handlers backed by h. Each handler only
// accepts its own operator node.
func (h *History) Plugins() []eval.Handler {
	return []eval.Handler{
		eval.NewHandler(OpSolved, eval.OperatorMatch(OpSolved), h.evalSolved),
		eval.NewHandler(OpSolvedBefore, eval.OperatorMatch(OpSolvedBefore), h.evalSolvedBefore),
		eval.NewHandler(OpAttempts, eval.OperatorMatch(OpAttempts), h.evalCount(OpAttempts, h.Attempts)),
		eval.NewHandler(OpWrongAnswers, eval.OperatorMatch(OpWrongAnswers), h.evalCount(OpWrongAnswers, h.WrongAnswers)),
		eval.NewHandler(OpUppgift, eval.OperatorMatch(OpUppgift), h.evalUppgift),
		eval.NewHandler(OpSession, eval.OperatorMatch(OpSession), h.evalSession),
	}
}

func (h *History) evalSolved(_ *eval.Context, tree expr.Expr) (expr.Expr, error) {
	problem, err := stringPayload(OpSolved, tree)
	if err != nil {
		return nil, err
	}
	return expr.Bool(h.Solved(problem)), nil
}

func (h *History) evalSolvedBefore(_ *eval.Context, tree expr.Expr) (expr.Expr, error) {
	obj, ok := eval.Payload(tree).(expr.Object)
	if !ok {
		return nil, &eval.ShapeError{Operator: OpSolvedBefore, Message: "payload must be an object with problem and deadline"}
	}
	problem, ok := obj["problem"].(expr.String)
	if !ok {
		return nil, &eval.ShapeError{Operator: OpSolvedBefore, Message: "problem must be a string"}
	}
	deadline, err := h.payloadDeadline(OpSolvedBefore, obj)
	if err != nil {
		return nil, err
	}
	return expr.Bool(h.SolvedBefore(string(problem), deadline)), nil
}

func (h *History) evalCount(op string, list func(string) []Attempt) eval.Evaluator {
	return func(_ *eval.Context, tree expr.Expr) (expr.Expr, error) {
		problem, err := stringPayload(op, tree)
		if err != nil {
			return nil, err
		}
		return expr.Number(len(list(problem))), nil
	}
}

func (h *History) evalSession(_ *eval.Context, tree expr.Expr) (expr.Expr, error) {
	name, err := stringPayload(OpSession, tree)
	if err != nil {
		return nil, err
	}
	return expr.Number(h.SessionSolved(name)), nil
}

func (h *History) evalUppgift(_ *eval.Context, tree expr.Expr) (expr.Expr, error) {
	rows, err := h.Uppgift(eval.Payload(tree))
	if err != nil {
		return nil, err
	}
	var total float64
	for _, r := range rows {
		total += r.Awarded
	}
	return expr.Number(total), nil
}

// ProblemStatus is the credit breakdown of one problem in an uppgift.
type ProblemStatus struct {
	Problem        string  `json:"problem"`
	Points         float64 `json:"points"`
	Awarded        float64 `json:"awarded"`
	Attempted      bool    `json:"attempted"`
	Accepted       bool    `json:"accepted"`
	ThreeWrong     bool    `json:"three_wrong"`
	BeforeDeadline bool    `json:"before_deadline"`
}

// Uppgift computes the per-problem breakdown of an uppgift payload:
//
//	{"problems": ["p", {"id": "q", "points": 2}], "deadline": "DD-MM-YYYY HH:MM"}
//
// A solved problem awards its points (1 unless given), halved when the first
// accepted attempt is after the deadline.
func (h *History) Uppgift(payload expr.Expr) ([]ProblemStatus, error) {
	obj, ok := payload.(expr.Object)
	if !ok {
		return nil, &eval.ShapeError{Operator: OpUppgift, Message: "payload must be an object with problems"}
	}
	problems, ok := obj["problems"].(expr.List)
	if !ok {
		return nil, &eval.ShapeError{Operator: OpUppgift, Message: "problems must be a list"}
	}
	deadline, err := h.payloadDeadline(OpUppgift, obj)
	if err != nil {
		return nil, err
	}

	rows := make([]ProblemStatus, 0, len(problems))
	for i, p := range problems {
		id, points, err := uppgiftProblem(p)
		if err != nil {
			return nil, &eval.ShapeError{Operator: OpUppgift, Message: fmt.Sprintf("problems[%d]: %s", i, err)}
		}
		row := ProblemStatus{
			Problem:        id,
			Points:         points,
			Attempted:      len(h.Attempts(id)) > 0,
			Accepted:       h.Solved(id),
			ThreeWrong:     len(h.WrongAnswers(id)) >= 3,
			BeforeDeadline: h.SolvedBefore(id, deadline),
		}
		if row.Accepted {
			row.Awarded = points
			if !row.BeforeDeadline {
				row.Awarded /= 2
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func uppgiftProblem(p expr.Expr) (string, float64, error) {
	switch v := p.(type) {
	case expr.String:
		return string(v), 1, nil
	case expr.Object:
		id, ok := v["id"].(expr.String)
		if !ok {
			return "", 0, fmt.Errorf("id must be a string")
		}
		points := 1.0
		if raw, has := v["points"]; has {
			n, ok := raw.(expr.Number)
			if !ok {
				return "", 0, fmt.Errorf("points must be a number")
			}
			points = float64(n)
		}
		return string(id), points, nil
	default:
		return "", 0, fmt.Errorf("expected problem id or object, got %s", expr.Kind(p))
	}
}

func (h *History) payloadDeadline(op string, obj expr.Object) (t time.Time, err error) {
	raw, has := obj["deadline"]
	if !has {
		return h.Deadline("")
	}
	s, ok := raw.(expr.String)
	if !ok {
		return t, &eval.ShapeError{Operator: op, Message: "deadline must be a string"}
	}
	t, err = h.Deadline(string(s))
	if err != nil {
		return t, &eval.ShapeError{Operator: op, Message: err.Error()}
	}
	return t, nil
}

func stringPayload(op string, tree expr.Expr) (string, error) {
	s, ok := eval.Payload(tree).(expr.String)
	if !ok {
		return "", &eval.ShapeError{Operator: op, Message: "payload must be a problem id string"}
	}
	return string(s), nil
}
