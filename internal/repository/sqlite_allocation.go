package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/planloom/planloom/internal/db"
	"github.com/planloom/planloom/internal/domain"
)

// SQLiteAllocationRepo implements AllocationRepo using a SQLite database.
type SQLiteAllocationRepo struct {
	db db.DBTX
}

// NewSQLiteAllocationRepo creates a new SQLiteAllocationRepo.
func NewSQLiteAllocationRepo(conn db.DBTX) *SQLiteAllocationRepo {
	return &SQLiteAllocationRepo{db: conn}
}

// ReplacePlan deletes every existing PLAN allocation (and its allocated
// resources, via cascade) and inserts the given list. BOOKING allocations
// are untouched — they are caller-supplied input, never planner output
// (§4.F).
func (r *SQLiteAllocationRepo) ReplacePlan(ctx context.Context, allocations []domain.Allocation) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM allocation WHERE allocation_type = 'plan'`); err != nil {
		return fmt.Errorf("clearing plan allocations: %w", err)
	}
	for _, a := range allocations {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO allocation (id, task_id, start, "end", allocation_type, final) VALUES (?, ?, ?, ?, ?, ?)`,
			a.ID, a.TaskID, a.Start.Format(timeLayout), a.End.Format(timeLayout), string(a.AllocationType), boolToInt(a.Final),
		); err != nil {
			return fmt.Errorf("inserting allocation: %w", err)
		}
		for _, resID := range a.Resources {
			if _, err := r.db.ExecContext(ctx,
				`INSERT INTO allocated_resource (id, allocation_id, resource_id) VALUES (?, ?, ?)`,
				allocationResourceID(a.ID, resID), a.ID, resID,
			); err != nil {
				return fmt.Errorf("inserting allocated resource: %w", err)
			}
		}
	}
	return nil
}

// allocationResourceID derives a deterministic join-row id from its two
// parents, since allocated_resource carries no other natural key.
func allocationResourceID(allocationID, resourceID string) string {
	return allocationID + ":" + resourceID
}

func (r *SQLiteAllocationRepo) ListByTask(ctx context.Context, taskID string) ([]domain.Allocation, error) {
	return r.list(ctx, `WHERE task_id = ?`, taskID)
}

func (r *SQLiteAllocationRepo) ListByType(ctx context.Context, allocationType domain.AllocationType) ([]domain.Allocation, error) {
	return r.list(ctx, `WHERE allocation_type = ?`, string(allocationType))
}

func (r *SQLiteAllocationRepo) ListAll(ctx context.Context) ([]domain.Allocation, error) {
	return r.list(ctx, ``)
}

func (r *SQLiteAllocationRepo) list(ctx context.Context, where string, args ...any) ([]domain.Allocation, error) {
	query := `SELECT id, task_id, start, "end", allocation_type, final FROM allocation ` + where + ` ORDER BY start`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing allocations: %w", err)
	}
	defer rows.Close()

	var allocations []domain.Allocation
	for rows.Next() {
		var a domain.Allocation
		var start, end, allocType string
		var final int
		if err := rows.Scan(&a.ID, &a.TaskID, &start, &end, &allocType, &final); err != nil {
			return nil, fmt.Errorf("scanning allocation: %w", err)
		}
		a.Start, err = time.Parse(timeLayout, start)
		if err != nil {
			return nil, fmt.Errorf("parsing allocation start: %w", err)
		}
		a.End, err = time.Parse(timeLayout, end)
		if err != nil {
			return nil, fmt.Errorf("parsing allocation end: %w", err)
		}
		a.AllocationType = domain.AllocationType(allocType)
		a.Final = intToBool(int64(final))
		allocations = append(allocations, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating allocations: %w", err)
	}

	for i := range allocations {
		resRows, err := r.db.QueryContext(ctx, `SELECT resource_id FROM allocated_resource WHERE allocation_id = ?`, allocations[i].ID)
		if err != nil {
			return nil, fmt.Errorf("listing allocated resources: %w", err)
		}
		for resRows.Next() {
			var resID string
			if err := resRows.Scan(&resID); err != nil {
				resRows.Close()
				return nil, fmt.Errorf("scanning allocated resource: %w", err)
			}
			allocations[i].Resources = append(allocations[i].Resources, resID)
		}
		if err := resRows.Err(); err != nil {
			resRows.Close()
			return nil, fmt.Errorf("iterating allocated resources: %w", err)
		}
		resRows.Close()
	}
	return allocations, nil
}
