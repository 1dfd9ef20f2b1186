package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/planloom/planloom/internal/db"
	"github.com/planloom/planloom/internal/domain"
	"github.com/shopspring/decimal"
)

// SQLiteResourceRepo implements ResourceRepo using a SQLite database.
type SQLiteResourceRepo struct {
	db db.DBTX
}

// NewSQLiteResourceRepo creates a new SQLiteResourceRepo.
func NewSQLiteResourceRepo(conn db.DBTX) *SQLiteResourceRepo {
	return &SQLiteResourceRepo{db: conn}
}

const resourceColumns = `id, name, timezone, added, removed, holiday_id`

func (r *SQLiteResourceRepo) Create(ctx context.Context, res *domain.Resource) error {
	query := `INSERT INTO resource (` + resourceColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		res.ID, res.Name, res.Timezone, res.Added.Format(timeLayout),
		nullableTimeToString(res.Removed), nullableStringToValue(res.HolidayID),
	)
	if err != nil {
		return fmt.Errorf("inserting resource: %w", err)
	}
	for i := range res.Availability {
		res.Availability[i].ResourceID = res.ID
		if err := r.AddAvailability(ctx, &res.Availability[i]); err != nil {
			return err
		}
	}
	for i := range res.Vacations {
		res.Vacations[i].ResourceID = res.ID
		if err := r.AddVacation(ctx, &res.Vacations[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteResourceRepo) Update(ctx context.Context, res *domain.Resource) error {
	query := `UPDATE resource SET name = ?, timezone = ?, removed = ?, holiday_id = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, res.Name, res.Timezone,
		nullableTimeToString(res.Removed), nullableStringToValue(res.HolidayID), res.ID)
	if err != nil {
		return fmt.Errorf("updating resource: %w", err)
	}
	return nil
}

func (r *SQLiteResourceRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM resource WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting resource: %w", err)
	}
	return nil
}

func (r *SQLiteResourceRepo) GetByID(ctx context.Context, id string) (*domain.Resource, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+resourceColumns+` FROM resource WHERE id = ?`, id)
	res, err := scanResource(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadAvailabilityAndVacations(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *SQLiteResourceRepo) ListAll(ctx context.Context) ([]domain.Resource, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+resourceColumns+` FROM resource ORDER BY added`)
	if err != nil {
		return nil, fmt.Errorf("listing resources: %w", err)
	}
	defer rows.Close()

	var resources []domain.Resource
	for rows.Next() {
		res, err := scanResourceFromRows(rows)
		if err != nil {
			return nil, err
		}
		resources = append(resources, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating resources: %w", err)
	}
	for i := range resources {
		if err := r.loadAvailabilityAndVacations(ctx, &resources[i]); err != nil {
			return nil, err
		}
	}
	return resources, nil
}

func (r *SQLiteResourceRepo) loadAvailabilityAndVacations(ctx context.Context, res *domain.Resource) error {
	availRows, err := r.db.QueryContext(ctx, `SELECT id, resource_id, weekday, duration FROM availability WHERE resource_id = ?`, res.ID)
	if err != nil {
		return fmt.Errorf("listing availability: %w", err)
	}
	defer availRows.Close()
	for availRows.Next() {
		var a domain.Availability
		var weekday, durationStr string
		if err := availRows.Scan(&a.ID, &a.ResourceID, &weekday, &durationStr); err != nil {
			return fmt.Errorf("scanning availability: %w", err)
		}
		a.Weekday = domain.Weekday(weekday)
		dec, err := decimal.NewFromString(durationStr)
		if err != nil {
			return fmt.Errorf("parsing availability duration: %w", err)
		}
		a.Duration = dec
		res.Availability = append(res.Availability, a)
	}
	if err := availRows.Err(); err != nil {
		return fmt.Errorf("iterating availability: %w", err)
	}

	vacRows, err := r.db.QueryContext(ctx, `SELECT id, resource_id, "from", until FROM vacation WHERE resource_id = ?`, res.ID)
	if err != nil {
		return fmt.Errorf("listing vacations: %w", err)
	}
	defer vacRows.Close()
	for vacRows.Next() {
		var v domain.Vacation
		var from, until string
		if err := vacRows.Scan(&v.ID, &v.ResourceID, &from, &until); err != nil {
			return fmt.Errorf("scanning vacation: %w", err)
		}
		v.From, err = time.Parse(timeLayout, from)
		if err != nil {
			return fmt.Errorf("parsing vacation from: %w", err)
		}
		v.Until, err = time.Parse(timeLayout, until)
		if err != nil {
			return fmt.Errorf("parsing vacation until: %w", err)
		}
		res.Vacations = append(res.Vacations, v)
	}
	if err := vacRows.Err(); err != nil {
		return fmt.Errorf("iterating vacations: %w", err)
	}
	return nil
}

func (r *SQLiteResourceRepo) AddAvailability(ctx context.Context, a *domain.Availability) error {
	query := `INSERT INTO availability (id, resource_id, weekday, duration) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, a.ID, a.ResourceID, string(a.Weekday), a.Duration.String())
	if err != nil {
		return fmt.Errorf("inserting availability: %w", err)
	}
	return nil
}

func (r *SQLiteResourceRepo) RemoveAvailability(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM availability WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting availability: %w", err)
	}
	return nil
}

func (r *SQLiteResourceRepo) AddVacation(ctx context.Context, v *domain.Vacation) error {
	query := `INSERT INTO vacation (id, resource_id, "from", until) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, v.ID, v.ResourceID, v.From.Format(timeLayout), v.Until.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("inserting vacation: %w", err)
	}
	return nil
}

func (r *SQLiteResourceRepo) RemoveVacation(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM vacation WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting vacation: %w", err)
	}
	return nil
}

func scanResourceRow(s rowScanner) (*domain.Resource, error) {
	var res domain.Resource
	var added string
	var removed, holidayID sql.NullString
	if err := s.Scan(&res.ID, &res.Name, &res.Timezone, &added, &removed, &holidayID); err != nil {
		return nil, err
	}
	var err error
	res.Added, err = time.Parse(timeLayout, added)
	if err != nil {
		return nil, fmt.Errorf("parsing added: %w", err)
	}
	res.Removed, err = parseNullableTime(removed)
	if err != nil {
		return nil, fmt.Errorf("parsing removed: %w", err)
	}
	if holidayID.Valid {
		v := holidayID.String
		res.HolidayID = &v
	}
	return &res, nil
}

func scanResource(row *sql.Row) (*domain.Resource, error) {
	res, err := scanResourceRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning resource: %w", err)
	}
	return res, nil
}

func scanResourceFromRows(rows *sql.Rows) (*domain.Resource, error) {
	res, err := scanResourceRow(rows)
	if err != nil {
		return nil, fmt.Errorf("scanning resource row: %w", err)
	}
	return res, nil
}
