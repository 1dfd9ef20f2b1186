package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/planloom/planloom/internal/domain"
	"github.com/shopspring/decimal"
)

// Task options

type TaskOption func(*domain.Task)

func WithParentID(id string) TaskOption {
	return func(t *domain.Task) { t.ParentID = &id }
}

func WithEarliestStart(d time.Time) TaskOption {
	return func(t *domain.Task) { t.EarliestStart = &d }
}

func WithScheduleTarget(d time.Time) TaskOption {
	return func(t *domain.Task) { t.ScheduleTarget = &d }
}

func WithEffort(hours float64) TaskOption {
	return func(t *domain.Task) { t.Effort = &hours }
}

func WithResourceConstraints(constraints ...domain.ResourceConstraint) TaskOption {
	return func(t *domain.Task) { t.ResourceConstraints = constraints }
}

func newTestTask(title string, designation domain.TaskDesignation, opts ...TaskOption) *domain.Task {
	now := time.Now().UTC()
	t := &domain.Task{
		ID:          uuid.New().String(),
		Title:       title,
		Designation: designation,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func NewTestTask(title string, opts ...TaskOption) *domain.Task {
	return newTestTask(title, domain.DesignationTask, opts...)
}

func NewTestGroup(title string, opts ...TaskOption) *domain.Task {
	return newTestTask(title, domain.DesignationGroup, opts...)
}

func NewTestRequirement(title string, earliestStart time.Time, opts ...TaskOption) *domain.Task {
	opts = append([]TaskOption{WithEarliestStart(earliestStart)}, opts...)
	return newTestTask(title, domain.DesignationRequirement, opts...)
}

func NewTestMilestone(title string, scheduleTarget time.Time, opts ...TaskOption) *domain.Task {
	opts = append([]TaskOption{WithScheduleTarget(scheduleTarget)}, opts...)
	return newTestTask(title, domain.DesignationMilestone, opts...)
}

// NewTestConstraint builds a single resource constraint naming the given
// resources as acceptable entries.
func NewTestConstraint(speed float32, optional bool, resourceIDs ...string) domain.ResourceConstraint {
	c := domain.ResourceConstraint{ID: uuid.New().String(), Optional: optional, Speed: speed}
	for _, rid := range resourceIDs {
		c.Entries = append(c.Entries, domain.ResourceConstraintEntry{ID: uuid.New().String(), ResourceID: rid})
	}
	return c
}

func NewTestDependency(predecessorID, successorID string) domain.Dependency {
	return domain.Dependency{ID: uuid.New().String(), PredecessorID: predecessorID, SuccessorID: successorID}
}

// Resource options

type ResourceOption func(*domain.Resource)

func WithTimezone(tz string) ResourceOption {
	return func(r *domain.Resource) { r.Timezone = tz }
}

func WithHolidayID(id string) ResourceOption {
	return func(r *domain.Resource) { r.HolidayID = &id }
}

func WithAvailability(weekday domain.Weekday, hours float64) ResourceOption {
	return func(r *domain.Resource) {
		r.Availability = append(r.Availability, domain.Availability{
			ID:      uuid.New().String(),
			Weekday: weekday,
			Duration: decimal.NewFromFloat(hours),
		})
	}
}

func WithVacation(from, until time.Time) ResourceOption {
	return func(r *domain.Resource) {
		r.Vacations = append(r.Vacations, domain.Vacation{ID: uuid.New().String(), From: from, Until: until})
	}
}

func NewTestResource(name string, opts ...ResourceOption) *domain.Resource {
	r := &domain.Resource{
		ID:       uuid.New().String(),
		Name:     name,
		Timezone: "UTC",
		Added:    time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(r)
	}
	for i := range r.Availability {
		r.Availability[i].ResourceID = r.ID
	}
	for i := range r.Vacations {
		r.Vacations[i].ResourceID = r.ID
	}
	return r
}

// Allocation options

type AllocationOption func(*domain.Allocation)

func WithAllocationType(t domain.AllocationType) AllocationOption {
	return func(a *domain.Allocation) { a.AllocationType = t }
}

func WithFinal(final bool) AllocationOption {
	return func(a *domain.Allocation) { a.Final = final }
}

func NewTestAllocation(taskID string, start, end time.Time, resourceIDs []string, opts ...AllocationOption) *domain.Allocation {
	a := &domain.Allocation{
		ID:             uuid.New().String(),
		TaskID:         taskID,
		Start:          start,
		End:            end,
		AllocationType: domain.AllocationPlan,
		Resources:      resourceIDs,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}
