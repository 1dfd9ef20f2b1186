package repository

import (
	"context"
	"testing"

	"github.com/planloom/planloom/internal/domain"
	"github.com/planloom/planloom/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteAllocationRepo_ReplacePlanAndListByTask(t *testing.T) {
	database := testutil.NewTestDB(t)
	taskRepo := NewSQLiteTaskRepo(database)
	resourceRepo := NewSQLiteResourceRepo(database)
	allocRepo := NewSQLiteAllocationRepo(database)
	ctx := context.Background()

	task := testutil.NewTestTask("Build")
	require.NoError(t, taskRepo.Create(ctx, task))
	res := testutil.NewTestResource("r1")
	require.NoError(t, resourceRepo.Create(ctx, res))

	alloc := testutil.NewTestAllocation(task.ID, day(1), day(3), []string{res.ID})
	require.NoError(t, allocRepo.ReplacePlan(ctx, []domain.Allocation{*alloc}))

	got, err := allocRepo.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.AllocationPlan, got[0].AllocationType)
	require.Len(t, got[0].Resources, 1)
	assert.Equal(t, res.ID, got[0].Resources[0])
}

func TestSQLiteAllocationRepo_ReplacePlanLeavesBookingsUntouched(t *testing.T) {
	database := testutil.NewTestDB(t)
	taskRepo := NewSQLiteTaskRepo(database)
	allocRepo := NewSQLiteAllocationRepo(database)
	ctx := context.Background()

	task := testutil.NewTestTask("Build")
	require.NoError(t, taskRepo.Create(ctx, task))

	booking := testutil.NewTestAllocation(task.ID, day(1), day(2), nil, testutil.WithAllocationType(domain.AllocationBooking))
	require.NoError(t, allocRepo.ReplacePlan(ctx, []domain.Allocation{*booking}))

	plan := testutil.NewTestAllocation(task.ID, day(3), day(5), nil)
	require.NoError(t, allocRepo.ReplacePlan(ctx, []domain.Allocation{*plan}))

	all, err := allocRepo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	byType := map[domain.AllocationType]int{}
	for _, a := range all {
		byType[a.AllocationType]++
	}
	assert.Equal(t, 1, byType[domain.AllocationBooking])
	assert.Equal(t, 1, byType[domain.AllocationPlan])
}
