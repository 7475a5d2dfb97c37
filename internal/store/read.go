package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a pass does not exist.
var ErrNotFound = errors.New("pass not found")

type scanner interface {
	Scan(dest ...any) error
}

func scanPass(row scanner) (Pass, error) {
	var (
		p         Pass
		createdAt string
	)
	if err := row.Scan(&p.Seq, &p.ID, &p.Username, &p.Name, &p.RulesetHash, &p.RuleCount, &p.Total, &createdAt); err != nil {
		return Pass{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Pass{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	p.CreatedAt = t
	return p, nil
}

const passColumns = `seq, id, username, name, ruleset_hash, rule_count, total, created_at`

// ReadPass returns a pass with its goals (in creation order) and outcomes
// (by rule index).
func (s *Store) ReadPass(ctx context.Context, id string) (Pass, error) {
	p, err := scanPass(s.db.QueryRowContext(ctx, `SELECT `+passColumns+` FROM passes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Pass{}, fmt.Errorf("read pass %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Pass{}, fmt.Errorf("read pass %s: %w", id, err)
	}

	if p.Goals, err = s.readGoals(ctx, id); err != nil {
		return Pass{}, err
	}
	if p.Outcomes, err = s.readOutcomes(ctx, id); err != nil {
		return Pass{}, err
	}
	return p, nil
}

func (s *Store) readGoals(ctx context.Context, passID string) ([]GoalRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT goal_id, name, points FROM goals
		WHERE pass_id = ?
		ORDER BY position ASC
	`, passID)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	goals := []GoalRecord{}
	for rows.Next() {
		var g GoalRecord
		if err := rows.Scan(&g.GoalID, &g.Name, &g.Points); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return goals, nil
}

func (s *Store) readOutcomes(ctx context.Context, passID string) ([]OutcomeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rule_index, fingerprint, rule_name, goal_id, status, points, fault FROM outcomes
		WHERE pass_id = ?
		ORDER BY rule_index ASC
	`, passID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	outcomes := []OutcomeRecord{}
	for rows.Next() {
		var (
			o     OutcomeRecord
			fault sql.NullString
		)
		if err := rows.Scan(&o.Index, &o.Fingerprint, &o.RuleName, &o.GoalID, &o.Status, &o.Points, &fault); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Fault = fault.String
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return outcomes, nil
}

// ListPasses returns pass summaries (without goals or outcomes), newest
// first. An empty username lists every student. limit <= 0 means no limit.
func (s *Store) ListPasses(ctx context.Context, username string, limit int) ([]Pass, error) {
	query := `SELECT ` + passColumns + ` FROM passes`
	var args []any
	if username != "" {
		query += ` WHERE username = ?`
		args = append(args, username)
	}
	query += ` ORDER BY seq DESC, id COLLATE BINARY ASC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query passes: %w", err)
	}
	defer rows.Close()

	passes := []Pass{}
	for rows.Next() {
		p, err := scanPass(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pass: %w", err)
		}
		passes = append(passes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate passes: %w", err)
	}
	return passes, nil
}

// GoalHistory returns the points a student had in a goal across passes,
// oldest first.
func (s *Store) GoalHistory(ctx context.Context, username, goalID string) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT g.points FROM goals g
		JOIN passes p ON g.pass_id = p.id
		WHERE p.username = ? AND g.goal_id = ?
		ORDER BY p.seq ASC
	`, username, goalID)
	if err != nil {
		return nil, fmt.Errorf("query goal history: %w", err)
	}
	defer rows.Close()

	points := []float64{}
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan goal history: %w", err)
		}
		points = append(points, v)
	}
	return points, rows.Err()
}
