package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// WritePass inserts a pass with its goals and outcomes in one transaction.
// The assigned seq is returned.
func (s *Store) WritePass(ctx context.Context, p Pass) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("write pass: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO passes (id, username, name, ruleset_hash, rule_count, total, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Username, p.Name, p.RulesetHash, p.RuleCount, p.Total, p.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("write pass: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("write pass: %w", err)
	}

	for i, g := range p.Goals {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO goals (pass_id, position, goal_id, name, points)
			VALUES (?, ?, ?, ?, ?)
		`, p.ID, i, g.GoalID, g.Name, g.Points); err != nil {
			return 0, fmt.Errorf("write goal %s: %w", g.GoalID, err)
		}
	}

	for _, o := range p.Outcomes {
		var fault sql.NullString
		if o.Fault != "" {
			fault = sql.NullString{String: o.Fault, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO outcomes (pass_id, rule_index, fingerprint, rule_name, goal_id, status, points, fault)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, p.ID, o.Index, o.Fingerprint, o.RuleName, o.GoalID, o.Status, o.Points, fault); err != nil {
			return 0, fmt.Errorf("write outcome %d: %w", o.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("write pass: %w", err)
	}
	return seq, nil
}
