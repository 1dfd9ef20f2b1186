package repository

import (
	"context"

	"github.com/planloom/planloom/internal/domain"
)

// TaskRepo persists task rows (all four designations share one table,
// distinguished by Task.Designation).
type TaskRepo interface {
	Create(ctx context.Context, t *domain.Task) error
	Update(ctx context.Context, t *domain.Task) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	ListByIDs(ctx context.Context, ids []string) (map[string]*domain.Task, error)
	ListAll(ctx context.Context) ([]domain.Task, error)
}

// DependencyRepo persists the predecessor -> successor edges between tasks.
type DependencyRepo interface {
	Create(ctx context.Context, d *domain.Dependency) error
	Delete(ctx context.Context, predecessorID, successorID string) error
	ListAll(ctx context.Context) ([]domain.Dependency, error)
	ListByTask(ctx context.Context, taskID string) (predecessors, successors []domain.Dependency, err error)
}

// ResourceRepo persists resources along with their recurring availability
// rules and vacations.
type ResourceRepo interface {
	Create(ctx context.Context, r *domain.Resource) error
	Update(ctx context.Context, r *domain.Resource) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Resource, error)
	ListAll(ctx context.Context) ([]domain.Resource, error)
	AddAvailability(ctx context.Context, a *domain.Availability) error
	RemoveAvailability(ctx context.Context, id string) error
	AddVacation(ctx context.Context, v *domain.Vacation) error
	RemoveVacation(ctx context.Context, id string) error
}

// ConstraintRepo persists per-task resource constraints and their entries.
type ConstraintRepo interface {
	ReplaceForTask(ctx context.Context, taskID string, constraints []domain.ResourceConstraint) error
	ListByTask(ctx context.Context, taskID string) ([]domain.ResourceConstraint, error)
}

// HolidayRepo persists cached holiday calendars, keyed by their external
// (ISO-code-like) identifier, plus the individual non-working-day entries
// fetched from the upstream provider.
type HolidayRepo interface {
	GetByExternalID(ctx context.Context, externalID string) (*domain.Holiday, error)
	GetByID(ctx context.Context, id string) (*domain.Holiday, error)
	Upsert(ctx context.Context, h *domain.Holiday) error
	UpsertEntries(ctx context.Context, holidayID string, entries []domain.HolidayEntry) error
}

// HolidayProvider is the external calendar client the core consumes; no
// HTTP implementation ships with this module (§6, Non-goals).
type HolidayProvider interface {
	FetchHolidays(ctx context.Context, isoCode string, start, end domain.TimeRange) ([]domain.HolidayEntry, error)
}

// AllocationRepo persists committed plan/booking allocations and the
// resources participating in each.
type AllocationRepo interface {
	ReplacePlan(ctx context.Context, allocations []domain.Allocation) error
	ListByTask(ctx context.Context, taskID string) ([]domain.Allocation, error)
	ListByType(ctx context.Context, allocationType domain.AllocationType) ([]domain.Allocation, error)
	ListAll(ctx context.Context) ([]domain.Allocation, error)
}

// IssueRepo persists the issues produced by the problem builder and the
// placer.
type IssueRepo interface {
	ReplacePlanningIssues(ctx context.Context, issues []domain.Issue) error
	ListAll(ctx context.Context) ([]domain.Issue, error)
}
