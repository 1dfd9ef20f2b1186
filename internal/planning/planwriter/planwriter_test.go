package planwriter

import (
	"context"
	"testing"
	"time"

	"github.com/planloom/planloom/internal/domain"
	"github.com/planloom/planloom/internal/planning/placer"
	"github.com/planloom/planloom/internal/repository"
	"github.com/planloom/planloom/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite_InsertsAllocationsAndIssues(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	taskRepo := repository.NewSQLiteTaskRepo(database)
	resourceRepo := repository.NewSQLiteResourceRepo(database)
	allocRepo := repository.NewSQLiteAllocationRepo(database)
	issueRepo := repository.NewSQLiteIssueRepo(database)

	task := testutil.NewTestTask("Build", testutil.WithEffort(8))
	milestone := testutil.NewTestMilestone("Ship", time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, taskRepo.Create(ctx, task))
	require.NoError(t, taskRepo.Create(ctx, milestone))
	res := testutil.NewTestResource("r1")
	require.NoError(t, resourceRepo.Create(ctx, res))

	plan := &placer.Plan{
		Allocations: []domain.Allocation{
			*testutil.NewTestAllocation(task.ID, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), []string{res.ID}),
		},
		FulfilledMilestones: map[string]time.Time{
			milestone.ID: time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC),
		},
		Issues: []domain.Issue{
			{ID: "iss-1", Code: domain.IssueNoEffort, Description: "no effort", Type: domain.IssueTypePlanningTask, TaskID: &task.ID},
		},
	}
	structural := []domain.Issue{
		{ID: "iss-2", Code: domain.IssueResourceMissing, Description: "missing resource", Type: domain.IssueTypePlanningGeneral},
	}

	uow := testutil.NewTestUoW(database)
	require.NoError(t, Write(ctx, uow, structural, plan))

	allocs, err := allocRepo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, allocs, 2)

	var sawTaskAlloc, sawMilestoneAlloc bool
	for _, a := range allocs {
		switch a.TaskID {
		case task.ID:
			sawTaskAlloc = true
			assert.Equal(t, []string{res.ID}, a.Resources)
		case milestone.ID:
			sawMilestoneAlloc = true
			assert.True(t, a.Start.Equal(a.End))
			assert.Empty(t, a.Resources)
		}
	}
	assert.True(t, sawTaskAlloc)
	assert.True(t, sawMilestoneAlloc)

	issues, err := issueRepo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, issues, 2)
}

func TestWrite_ReplacesPriorPlanOnRerun(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	taskRepo := repository.NewSQLiteTaskRepo(database)
	allocRepo := repository.NewSQLiteAllocationRepo(database)
	issueRepo := repository.NewSQLiteIssueRepo(database)
	uow := testutil.NewTestUoW(database)

	task := testutil.NewTestTask("Build", testutil.WithEffort(8))
	require.NoError(t, taskRepo.Create(ctx, task))

	first := &placer.Plan{
		FulfilledMilestones: map[string]time.Time{},
		Allocations: []domain.Allocation{
			*testutil.NewTestAllocation(task.ID, day(1), day(2), nil),
		},
		Issues: []domain.Issue{
			{ID: "iss-1", Code: domain.IssueNoEffort, Description: "first", Type: domain.IssueTypePlanningTask, TaskID: &task.ID},
		},
	}
	require.NoError(t, Write(ctx, uow, nil, first))

	second := &placer.Plan{
		FulfilledMilestones: map[string]time.Time{},
		Allocations: []domain.Allocation{
			*testutil.NewTestAllocation(task.ID, day(5), day(6), nil),
		},
	}
	require.NoError(t, Write(ctx, uow, nil, second))

	allocs, err := allocRepo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, allocs, 1)
	assert.True(t, allocs[0].Start.Equal(day(5)))

	issues, err := issueRepo.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func day(n int) time.Time {
	return time.Date(2026, 1, n, 0, 0, 0, 0, time.UTC)
}
