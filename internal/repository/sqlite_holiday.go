package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/planloom/planloom/internal/db"
	"github.com/planloom/planloom/internal/domain"
)

// SQLiteHolidayRepo implements HolidayRepo using a SQLite database.
type SQLiteHolidayRepo struct {
	db db.DBTX
}

// NewSQLiteHolidayRepo creates a new SQLiteHolidayRepo.
func NewSQLiteHolidayRepo(conn db.DBTX) *SQLiteHolidayRepo {
	return &SQLiteHolidayRepo{db: conn}
}

func (r *SQLiteHolidayRepo) GetByExternalID(ctx context.Context, externalID string) (*domain.Holiday, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, external_id, name, cached_start, cached_end FROM holiday WHERE external_id = ?`, externalID)
	return r.scanWithEntries(ctx, row)
}

// GetByID looks up a holiday by its primary key, as opposed to its
// upstream-provider external code. Resource.HolidayID references this key.
func (r *SQLiteHolidayRepo) GetByID(ctx context.Context, id string) (*domain.Holiday, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, external_id, name, cached_start, cached_end FROM holiday WHERE id = ?`, id)
	return r.scanWithEntries(ctx, row)
}

func (r *SQLiteHolidayRepo) scanWithEntries(ctx context.Context, row *sql.Row) (*domain.Holiday, error) {
	var h domain.Holiday
	var cachedStart, cachedEnd sql.NullString
	if err := row.Scan(&h.ID, &h.ExternalID, &h.Name, &cachedStart, &cachedEnd); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning holiday: %w", err)
	}
	if cachedStart.Valid && cachedEnd.Valid {
		start, err := time.Parse(timeLayout, cachedStart.String)
		if err != nil {
			return nil, fmt.Errorf("parsing cached_start: %w", err)
		}
		end, err := time.Parse(timeLayout, cachedEnd.String)
		if err != nil {
			return nil, fmt.Errorf("parsing cached_end: %w", err)
		}
		h.CachedRange = &domain.TimeRange{Start: start, End: end}
	}

	entryRows, err := r.db.QueryContext(ctx, `SELECT id, date, name FROM holiday_entry WHERE holiday_id = ? ORDER BY date`, h.ID)
	if err != nil {
		return nil, fmt.Errorf("listing holiday entries: %w", err)
	}
	defer entryRows.Close()
	for entryRows.Next() {
		var e domain.HolidayEntry
		var date string
		var name sql.NullString
		if err := entryRows.Scan(&e.ID, &date, &name); err != nil {
			return nil, fmt.Errorf("scanning holiday entry: %w", err)
		}
		e.Date, err = time.Parse(timeLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parsing holiday entry date: %w", err)
		}
		if name.Valid {
			v := name.String
			e.Name = &v
		}
		h.Entries = append(h.Entries, e)
	}
	if err := entryRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating holiday entries: %w", err)
	}
	return &h, nil
}

// Upsert extends a holiday's cached range (union of the existing and new
// range) rather than overwriting it, per the caching semantics described
// in §3 and §4.C.
func (r *SQLiteHolidayRepo) Upsert(ctx context.Context, h *domain.Holiday) error {
	existing, err := r.GetByExternalID(ctx, h.ExternalID)
	if err != nil && err != ErrNotFound {
		return err
	}
	if existing != nil {
		if h.CachedRange == nil {
			h.CachedRange = existing.CachedRange
		} else if existing.CachedRange != nil {
			if existing.CachedRange.Start.Before(h.CachedRange.Start) {
				h.CachedRange.Start = existing.CachedRange.Start
			}
			if existing.CachedRange.End.After(h.CachedRange.End) {
				h.CachedRange.End = existing.CachedRange.End
			}
		}
		h.ID = existing.ID
	}

	var cachedStart, cachedEnd any
	if h.CachedRange != nil {
		cachedStart = h.CachedRange.Start.Format(timeLayout)
		cachedEnd = h.CachedRange.End.Format(timeLayout)
	}

	query := `INSERT INTO holiday (id, external_id, name, cached_start, cached_end) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, cached_start = excluded.cached_start, cached_end = excluded.cached_end`
	_, err = r.db.ExecContext(ctx, query, h.ID, h.ExternalID, h.Name, cachedStart, cachedEnd)
	if err != nil {
		return fmt.Errorf("upserting holiday: %w", err)
	}
	return nil
}

// UpsertEntries inserts only the entries not already present for
// holidayID, keyed by date (§3/§4.C caching semantics).
func (r *SQLiteHolidayRepo) UpsertEntries(ctx context.Context, holidayID string, entries []domain.HolidayEntry) error {
	for _, e := range entries {
		var name any
		if e.Name != nil {
			name = *e.Name
		}
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO holiday_entry (id, holiday_id, date, name) VALUES (?, ?, ?, ?)
			 ON CONFLICT(holiday_id, date) DO NOTHING`,
			e.ID, holidayID, e.Date.Format(timeLayout), name,
		)
		if err != nil {
			return fmt.Errorf("upserting holiday entry: %w", err)
		}
	}
	return nil
}
