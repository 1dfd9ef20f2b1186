package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/planloom/planloom/internal/db"
	"github.com/planloom/planloom/internal/domain"
)

// SQLiteTaskRepo implements TaskRepo using a SQLite database.
type SQLiteTaskRepo struct {
	db db.DBTX
}

// NewSQLiteTaskRepo creates a new SQLiteTaskRepo.
func NewSQLiteTaskRepo(conn db.DBTX) *SQLiteTaskRepo {
	return &SQLiteTaskRepo{db: conn}
}

const taskColumns = `id, parent_id, title, description, designation, earliest_start, schedule_target, effort, created_at, updated_at`

func (r *SQLiteTaskRepo) Create(ctx context.Context, t *domain.Task) error {
	query := `INSERT INTO task (` + taskColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		t.ID, nullableStringToValue(t.ParentID), t.Title, t.Description, string(t.Designation),
		nullableTimeToString(t.EarliestStart), nullableTimeToString(t.ScheduleTarget),
		nullableFloatToValue(t.Effort),
		t.CreatedAt.Format(timeLayout), t.UpdatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

func (r *SQLiteTaskRepo) Update(ctx context.Context, t *domain.Task) error {
	query := `UPDATE task SET parent_id = ?, title = ?, description = ?, designation = ?,
		earliest_start = ?, schedule_target = ?, effort = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		nullableStringToValue(t.ParentID), t.Title, t.Description, string(t.Designation),
		nullableTimeToString(t.EarliestStart), nullableTimeToString(t.ScheduleTarget),
		nullableFloatToValue(t.Effort), t.UpdatedAt.Format(timeLayout), t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	return nil
}

func (r *SQLiteTaskRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM task WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	return nil
}

func (r *SQLiteTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM task WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return t, err
}

func (r *SQLiteTaskRepo) ListByIDs(ctx context.Context, ids []string) (map[string]*domain.Task, error) {
	out := make(map[string]*domain.Task, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	query := `SELECT ` + taskColumns + ` FROM task WHERE id IN (` + strings.Join(placeholders, ",") + `)`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tasks by id: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		t, err := scanTaskFromRows(rows)
		if err != nil {
			return nil, err
		}
		out[t.ID] = t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return out, nil
}

func (r *SQLiteTaskRepo) ListAll(ctx context.Context) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM task ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTaskFromRows(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return tasks, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTaskRow(s rowScanner) (*domain.Task, error) {
	var t domain.Task
	var parentID, earliestStart, scheduleTarget sql.NullString
	var effort sql.NullFloat64
	var designation, createdAt, updatedAt string

	if err := s.Scan(&t.ID, &parentID, &t.Title, &t.Description, &designation,
		&earliestStart, &scheduleTarget, &effort, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	t.Designation = domain.TaskDesignation(designation)
	if parentID.Valid {
		v := parentID.String
		t.ParentID = &v
	}
	var err error
	t.EarliestStart, err = parseNullableTime(earliestStart)
	if err != nil {
		return nil, fmt.Errorf("parsing earliest_start: %w", err)
	}
	t.ScheduleTarget, err = parseNullableTime(scheduleTarget)
	if err != nil {
		return nil, fmt.Errorf("parsing schedule_target: %w", err)
	}
	if effort.Valid {
		v := effort.Float64
		t.Effort = &v
	}
	t.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	t.UpdatedAt, err = time.Parse(timeLayout, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &t, nil
}

func scanTask(row *sql.Row) (*domain.Task, error) {
	t, err := scanTaskRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning task: %w", err)
	}
	return t, nil
}

func scanTaskFromRows(rows *sql.Rows) (*domain.Task, error) {
	t, err := scanTaskRow(rows)
	if err != nil {
		return nil, fmt.Errorf("scanning task row: %w", err)
	}
	return t, nil
}
