package repository

import (
	"context"
	"fmt"

	"github.com/planloom/planloom/internal/db"
	"github.com/planloom/planloom/internal/domain"
)

// SQLiteConstraintRepo implements ConstraintRepo using a SQLite database.
type SQLiteConstraintRepo struct {
	db db.DBTX
}

// NewSQLiteConstraintRepo creates a new SQLiteConstraintRepo.
func NewSQLiteConstraintRepo(conn db.DBTX) *SQLiteConstraintRepo {
	return &SQLiteConstraintRepo{db: conn}
}

// ReplaceForTask deletes every constraint (and its entries, via cascade)
// currently owned by taskID and inserts the given list in order.
func (r *SQLiteConstraintRepo) ReplaceForTask(ctx context.Context, taskID string, constraints []domain.ResourceConstraint) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM resource_constraint WHERE task_id = ?`, taskID); err != nil {
		return fmt.Errorf("clearing resource constraints: %w", err)
	}
	for i, c := range constraints {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO resource_constraint (id, task_id, optional, speed, position) VALUES (?, ?, ?, ?, ?)`,
			c.ID, taskID, boolToInt(c.Optional), c.Speed, i,
		); err != nil {
			return fmt.Errorf("inserting resource constraint: %w", err)
		}
		for _, e := range c.Entries {
			if _, err := r.db.ExecContext(ctx,
				`INSERT INTO resource_constraint_entry (id, resource_constraint_id, resource_id) VALUES (?, ?, ?)`,
				e.ID, c.ID, e.ResourceID,
			); err != nil {
				return fmt.Errorf("inserting resource constraint entry: %w", err)
			}
		}
	}
	return nil
}

func (r *SQLiteConstraintRepo) ListByTask(ctx context.Context, taskID string) ([]domain.ResourceConstraint, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, optional, speed FROM resource_constraint WHERE task_id = ? ORDER BY position`, taskID)
	if err != nil {
		return nil, fmt.Errorf("listing resource constraints: %w", err)
	}
	var constraints []domain.ResourceConstraint
	for rows.Next() {
		var c domain.ResourceConstraint
		var optional int
		if err := rows.Scan(&c.ID, &optional, &c.Speed); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning resource constraint: %w", err)
		}
		c.Optional = intToBool(int64(optional))
		constraints = append(constraints, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating resource constraints: %w", err)
	}
	rows.Close()

	for i := range constraints {
		entryRows, err := r.db.QueryContext(ctx,
			`SELECT id, resource_id FROM resource_constraint_entry WHERE resource_constraint_id = ?`, constraints[i].ID)
		if err != nil {
			return nil, fmt.Errorf("listing resource constraint entries: %w", err)
		}
		for entryRows.Next() {
			var e domain.ResourceConstraintEntry
			if err := entryRows.Scan(&e.ID, &e.ResourceID); err != nil {
				entryRows.Close()
				return nil, fmt.Errorf("scanning resource constraint entry: %w", err)
			}
			constraints[i].Entries = append(constraints[i].Entries, e)
		}
		if err := entryRows.Err(); err != nil {
			entryRows.Close()
			return nil, fmt.Errorf("iterating resource constraint entries: %w", err)
		}
		entryRows.Close()
	}
	return constraints, nil
}
