package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS holiday (
		id            TEXT PRIMARY KEY,
		external_id   TEXT NOT NULL,
		name          TEXT NOT NULL,
		cached_start  TEXT,
		cached_end    TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS holiday_entry (
		id         TEXT PRIMARY KEY,
		holiday_id TEXT NOT NULL REFERENCES holiday(id) ON DELETE CASCADE,
		date       TEXT NOT NULL,
		name       TEXT,
		UNIQUE(holiday_id, date)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_holiday_entry_holiday ON holiday_entry(holiday_id)`,

	`CREATE TABLE IF NOT EXISTS resource (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		timezone    TEXT NOT NULL,
		added       TEXT NOT NULL,
		removed     TEXT,
		holiday_id  TEXT REFERENCES holiday(id) ON DELETE SET NULL
	)`,

	`CREATE TABLE IF NOT EXISTS availability (
		id          TEXT PRIMARY KEY,
		resource_id TEXT NOT NULL REFERENCES resource(id) ON DELETE CASCADE,
		weekday     TEXT NOT NULL
		            CHECK(weekday IN ('mon','tue','wed','thu','fri','sat','sun')),
		duration    TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_availability_resource ON availability(resource_id)`,

	`CREATE TABLE IF NOT EXISTS vacation (
		id          TEXT PRIMARY KEY,
		resource_id TEXT NOT NULL REFERENCES resource(id) ON DELETE CASCADE,
		"from"      TEXT NOT NULL,
		until       TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_vacation_resource ON vacation(resource_id)`,

	`CREATE TABLE IF NOT EXISTS task (
		id              TEXT PRIMARY KEY,
		parent_id       TEXT REFERENCES task(id) ON DELETE SET NULL,
		title           TEXT NOT NULL,
		description     TEXT NOT NULL DEFAULT '',
		designation     TEXT NOT NULL
		                CHECK(designation IN ('task','group','requirement','milestone')),
		earliest_start  TEXT,
		schedule_target TEXT,
		effort          REAL,
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_task_parent ON task(parent_id)`,
	`CREATE INDEX IF NOT EXISTS idx_task_designation ON task(designation)`,

	`CREATE TABLE IF NOT EXISTS dependency (
		id             TEXT PRIMARY KEY,
		predecessor_id TEXT NOT NULL REFERENCES task(id) ON DELETE CASCADE,
		successor_id   TEXT NOT NULL REFERENCES task(id) ON DELETE CASCADE,
		UNIQUE(predecessor_id, successor_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_dependency_predecessor ON dependency(predecessor_id)`,
	`CREATE INDEX IF NOT EXISTS idx_dependency_successor ON dependency(successor_id)`,

	`CREATE TABLE IF NOT EXISTS resource_constraint (
		id       TEXT PRIMARY KEY,
		task_id  TEXT NOT NULL REFERENCES task(id) ON DELETE CASCADE,
		optional INTEGER NOT NULL DEFAULT 0,
		speed    REAL NOT NULL DEFAULT 1,
		position INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE INDEX IF NOT EXISTS idx_resource_constraint_task ON resource_constraint(task_id)`,

	`CREATE TABLE IF NOT EXISTS resource_constraint_entry (
		id                     TEXT PRIMARY KEY,
		resource_constraint_id TEXT NOT NULL REFERENCES resource_constraint(id) ON DELETE CASCADE,
		resource_id            TEXT NOT NULL REFERENCES resource(id) ON DELETE RESTRICT
	)`,

	`CREATE INDEX IF NOT EXISTS idx_constraint_entry_constraint ON resource_constraint_entry(resource_constraint_id)`,

	`CREATE TABLE IF NOT EXISTS allocation (
		id              TEXT PRIMARY KEY,
		task_id         TEXT NOT NULL REFERENCES task(id) ON DELETE CASCADE,
		start           TEXT NOT NULL,
		"end"           TEXT NOT NULL,
		allocation_type TEXT NOT NULL CHECK(allocation_type IN ('plan','booking')),
		final           INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE INDEX IF NOT EXISTS idx_allocation_task ON allocation(task_id)`,
	`CREATE INDEX IF NOT EXISTS idx_allocation_type ON allocation(allocation_type)`,

	`CREATE TABLE IF NOT EXISTS allocated_resource (
		id            TEXT PRIMARY KEY,
		allocation_id TEXT NOT NULL REFERENCES allocation(id) ON DELETE CASCADE,
		resource_id   TEXT NOT NULL REFERENCES resource(id) ON DELETE RESTRICT
	)`,

	`CREATE INDEX IF NOT EXISTS idx_allocated_resource_allocation ON allocated_resource(allocation_id)`,

	`CREATE TABLE IF NOT EXISTS issue (
		id          TEXT PRIMARY KEY,
		code        TEXT NOT NULL,
		description TEXT NOT NULL,
		type        TEXT NOT NULL
		            CHECK(type IN ('task','planning_task','planning_general','general')),
		task_id     TEXT REFERENCES task(id) ON DELETE CASCADE
	)`,

	`CREATE INDEX IF NOT EXISTS idx_issue_type ON issue(type)`,
	`CREATE INDEX IF NOT EXISTS idx_issue_task ON issue(task_id)`,
}
