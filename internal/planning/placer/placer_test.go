package placer

import (
	"testing"
	"time"

	"github.com/planloom/planloom/internal/availability"
	"github.com/planloom/planloom/internal/domain"
	"github.com/planloom/planloom/internal/interval"
	"github.com/planloom/planloom/internal/planning"
	"github.com/planloom/planloom/internal/planning/ga"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2025, 1, n, 0, 0, 0, 0, time.UTC)
}

func openSlot(from, to time.Time) availability.Slot {
	rng := interval.MustNew(interval.StartClosed(from), interval.EndOpen[time.Time](to))
	var ivs interval.Intervals[time.Time]
	ivs = ivs.Insert(rng)
	return availability.Slot{Range: rng, Extensible: false, Intervals: ivs, Duration: to.Sub(from)}
}

func baseProblem(t *testing.T, effort float64, constraints []domain.ResourceConstraint) *planning.Problem {
	t.Helper()
	start := day(1)
	target := day(20)
	req := domain.Task{ID: "req", Designation: domain.DesignationRequirement, EarliestStart: &start}
	mil := domain.Task{ID: "mil", Designation: domain.DesignationMilestone, ScheduleTarget: &target}
	work := domain.Task{ID: "w", Designation: domain.DesignationTask, Effort: &effort, ResourceConstraints: constraints}

	problem, err := planning.Build(planning.BuildInput{
		Tasks: []domain.Task{req, mil, work},
		Dependencies: []domain.Dependency{
			{PredecessorID: "req", SuccessorID: "w"},
			{PredecessorID: "w", SuccessorID: "mil"},
		},
		Resources: []domain.Resource{{ID: "r1", Timezone: "UTC"}, {ID: "r2", Timezone: "UTC"}},
	})
	require.NoError(t, err)
	require.Empty(t, problem.Issues)
	return problem
}

func TestPlace_SingleRequiredResourcePlacesTask(t *testing.T) {
	effort := 2.0 // effort/speed * 8h = 16h duration (placer duration formula)
	constraints := []domain.ResourceConstraint{
		{ID: "c1", Speed: 1, Entries: []domain.ResourceConstraintEntry{{ResourceID: "r1"}}},
	}
	problem := baseProblem(t, effort, constraints)
	problem.Slots["r1"] = []availability.Slot{openSlot(day(1), day(10))}
	problem.Slots["r2"] = []availability.Slot{openSlot(day(1), day(10))}

	ind := &ga.Individual{
		Tasks: []ga.Gene{{
			TaskID:              "w",
			RequiredResourceIDs: map[string]bool{"r1": true},
			TotalSpeed:          1,
		}},
	}

	plan := Place(problem, ind)
	require.Empty(t, plan.Issues)
	require.Len(t, plan.Allocations, 1)
	alloc := plan.Allocations[0]
	assert.Equal(t, "w", alloc.TaskID)
	assert.Equal(t, []string{"r1"}, alloc.Resources)
	assert.Equal(t, day(1).Add(16*time.Hour), alloc.End)

	require.Contains(t, plan.FulfilledMilestones, "mil")
	assert.Equal(t, alloc.End, plan.FulfilledMilestones["mil"])
}

func TestPlace_SelectsSelectableResourceWithEarliestFinish(t *testing.T) {
	effort := 1.0 // duration = 8h
	constraints := []domain.ResourceConstraint{
		{ID: "c1", Speed: 1, Entries: []domain.ResourceConstraintEntry{{ResourceID: "r1"}, {ResourceID: "r2"}}},
	}
	problem := baseProblem(t, effort, constraints)
	// r1 is busy until day 5, r2 is free from day 1: r2 should win.
	problem.Slots["r1"] = []availability.Slot{openSlot(day(5), day(10))}
	problem.Slots["r2"] = []availability.Slot{openSlot(day(1), day(10))}

	ind := &ga.Individual{
		Tasks: []ga.Gene{{
			TaskID:                "w",
			SelectableResourceIDs: []string{"r1", "r2"},
			TotalSpeed:            1,
		}},
	}

	plan := Place(problem, ind)
	require.Empty(t, plan.Issues)
	require.Len(t, plan.Allocations, 1)
	assert.Equal(t, []string{"r2"}, plan.Allocations[0].Resources)
	assert.Equal(t, day(1).Add(8*time.Hour), plan.Allocations[0].End)
}

func TestPlace_NoEffortReportsIssue(t *testing.T) {
	constraints := []domain.ResourceConstraint{
		{ID: "c1", Speed: 1, Entries: []domain.ResourceConstraintEntry{{ResourceID: "r1"}}},
	}
	problem := baseProblem(t, 0, constraints)
	ind := &ga.Individual{Tasks: []ga.Gene{{TaskID: "w", RequiredResourceIDs: map[string]bool{"r1": true}, TotalSpeed: 1}}}

	plan := Place(problem, ind)
	require.Len(t, plan.Issues, 1)
	assert.Equal(t, domain.IssueNoEffort, plan.Issues[0].Code)
	assert.Empty(t, plan.Allocations)
}

func TestPlace_NoSlotFoundWhenResourceFullyBooked(t *testing.T) {
	effort := 8.0
	constraints := []domain.ResourceConstraint{
		{ID: "c1", Speed: 1, Entries: []domain.ResourceConstraintEntry{{ResourceID: "r1"}}},
	}
	problem := baseProblem(t, effort, constraints)
	problem.Slots["r1"] = nil
	problem.Slots["r2"] = nil

	ind := &ga.Individual{
		Tasks: []ga.Gene{{TaskID: "w", RequiredResourceIDs: map[string]bool{"r1": true}, TotalSpeed: 1}},
	}

	plan := Place(problem, ind)
	require.Len(t, plan.Issues, 1)
	assert.Equal(t, domain.IssueNoSlotFound, plan.Issues[0].Code)
}

// TestPlace_TwoRequiredResourcesPlaceOnlyWhereBothAreFree covers scenario
// 3: r1 is free on days 1-4, r2 on days 3-6; a task requiring both can
// only be placed in the overlap, days 3-4, which reduceIntervals selects.
func TestPlace_TwoRequiredResourcesPlaceOnlyWhereBothAreFree(t *testing.T) {
	effort := 4.0 // duration = 32h
	constraints := []domain.ResourceConstraint{
		{ID: "c1", Speed: 1, Entries: []domain.ResourceConstraintEntry{
			{ResourceID: "r1"}, {ResourceID: "r2"},
		}},
	}
	problem := baseProblem(t, effort, constraints)
	problem.Slots["r1"] = []availability.Slot{openSlot(day(1), day(5))} // days 1-4
	problem.Slots["r2"] = []availability.Slot{openSlot(day(3), day(7))} // days 3-6
	// overlap is [day3, day5) = 48h, wide enough to cover the 32h starting
	// at day 3, when both resources are first free together.

	ind := &ga.Individual{
		Tasks: []ga.Gene{{
			TaskID:              "w",
			RequiredResourceIDs: map[string]bool{"r1": true, "r2": true},
			TotalSpeed:          1,
		}},
	}

	plan := Place(problem, ind)
	require.Empty(t, plan.Issues)
	require.Len(t, plan.Allocations, 1)
	alloc := plan.Allocations[0]
	assert.Equal(t, day(3), alloc.Start)
	assert.Equal(t, day(3).Add(32*time.Hour), alloc.End)
	assert.ElementsMatch(t, []string{"r1", "r2"}, alloc.Resources)
}

// TestPlace_VacationGapSplitsAllocationAcrossTwoIntervals covers scenario
// 2: a vacation already subtracted out of the resource's slot (by the
// availability builder) leaves two disjoint open intervals; the placer
// must take from both, in order, to cover the full duration.
func TestPlace_VacationGapSplitsAllocationAcrossTwoIntervals(t *testing.T) {
	effort := 8.0 // duration = 64h
	constraints := []domain.ResourceConstraint{
		{ID: "c1", Speed: 1, Entries: []domain.ResourceConstraintEntry{{ResourceID: "r1"}}},
	}
	problem := baseProblem(t, effort, constraints)
	problem.Slots["r1"] = []availability.Slot{
		openSlot(day(1), day(2)),  // 24h, before the vacation
		openSlot(day(3), day(10)), // after the vacation, plenty of room for the remainder
	}

	ind := &ga.Individual{
		Tasks: []ga.Gene{{
			TaskID:              "w",
			RequiredResourceIDs: map[string]bool{"r1": true},
			TotalSpeed:          1,
		}},
	}

	plan := Place(problem, ind)
	require.Empty(t, plan.Issues)
	require.Len(t, plan.Allocations, 2)
	assert.Equal(t, day(1), plan.Allocations[0].Start)
	assert.Equal(t, day(2), plan.Allocations[0].End)
	assert.Equal(t, day(3), plan.Allocations[1].Start)
	assert.Equal(t, day(3).Add(40*time.Hour), plan.Allocations[1].End)
	for _, a := range plan.Allocations {
		assert.Equal(t, []string{"r1"}, a.Resources)
	}
}

func TestPlace_MilestoneUnfulfilledWhenPredecessorMissing(t *testing.T) {
	effort := 8.0
	constraints := []domain.ResourceConstraint{
		{ID: "c1", Speed: 1, Entries: []domain.ResourceConstraintEntry{{ResourceID: "r1"}}},
	}
	problem := baseProblem(t, effort, constraints)
	problem.Slots["r1"] = nil
	problem.Slots["r2"] = nil

	ind := &ga.Individual{
		Tasks: []ga.Gene{{TaskID: "w", RequiredResourceIDs: map[string]bool{"r1": true}, TotalSpeed: 1}},
	}

	plan := Place(problem, ind)
	assert.NotContains(t, plan.FulfilledMilestones, "mil")
}
