package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/planloom/planloom/internal/db"
	"github.com/planloom/planloom/internal/domain"
)

// SQLiteIssueRepo implements IssueRepo using a SQLite database.
type SQLiteIssueRepo struct {
	db db.DBTX
}

// NewSQLiteIssueRepo creates a new SQLiteIssueRepo.
func NewSQLiteIssueRepo(conn db.DBTX) *SQLiteIssueRepo {
	return &SQLiteIssueRepo{db: conn}
}

// ReplacePlanningIssues deletes every prior PlanningTask/PlanningGeneral
// issue and inserts the given list (§4.F step 3).
func (r *SQLiteIssueRepo) ReplacePlanningIssues(ctx context.Context, issues []domain.Issue) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM issue WHERE type IN ('planning_task', 'planning_general')`); err != nil {
		return fmt.Errorf("clearing planning issues: %w", err)
	}
	for _, iss := range issues {
		var taskID any
		if iss.TaskID != nil {
			taskID = *iss.TaskID
		}
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO issue (id, code, description, type, task_id) VALUES (?, ?, ?, ?, ?)`,
			iss.ID, string(iss.Code), iss.Description, string(iss.Type), taskID,
		); err != nil {
			return fmt.Errorf("inserting issue: %w", err)
		}
	}
	return nil
}

func (r *SQLiteIssueRepo) ListAll(ctx context.Context) ([]domain.Issue, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, code, description, type, task_id FROM issue`)
	if err != nil {
		return nil, fmt.Errorf("listing issues: %w", err)
	}
	defer rows.Close()

	var issues []domain.Issue
	for rows.Next() {
		var iss domain.Issue
		var code, description, typ string
		var taskID sql.NullString
		if err := rows.Scan(&iss.ID, &code, &description, &typ, &taskID); err != nil {
			return nil, fmt.Errorf("scanning issue: %w", err)
		}
		iss.Code = domain.IssueCode(code)
		iss.Description = description
		iss.Type = domain.IssueType(typ)
		if taskID.Valid {
			v := taskID.String
			iss.TaskID = &v
		}
		issues = append(issues, iss)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating issues: %w", err)
	}
	return issues, nil
}
