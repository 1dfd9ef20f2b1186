package domain

import "time"

// Allocation is one interval of committed work on a task, spanning one or
// more resources. PLAN allocations are rewritten wholesale on every
// recalculation; BOOKING allocations are supplied by the caller (e.g.
// logged actual work) and are treated by the planner as locked history,
// never rewritten.
type Allocation struct {
	ID             string
	TaskID         string
	Start          time.Time
	End            time.Time
	AllocationType AllocationType
	// Final marks a BOOKING as the task's completed, terminal work — the
	// task's finished-at time for downstream scheduling purposes.
	Final     bool
	Resources []string // resource IDs participating in this allocation
}

// Issue describes why a task (or the project as a whole) could not be
// (fully) scheduled. Code is drawn from the closed IssueCode enumeration.
type Issue struct {
	ID          string
	Code        IssueCode
	Description string
	Type        IssueType
	TaskID      *string
}
