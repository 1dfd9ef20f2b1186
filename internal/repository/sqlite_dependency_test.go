package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/planloom/planloom/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteDependencyRepo_CreateAndListByTask(t *testing.T) {
	database := testutil.NewTestDB(t)
	taskRepo := NewSQLiteTaskRepo(database)
	depRepo := NewSQLiteDependencyRepo(database)
	ctx := context.Background()

	a := testutil.NewTestTask("A")
	b := testutil.NewTestTask("B")
	c := testutil.NewTestTask("C")
	require.NoError(t, taskRepo.Create(ctx, a))
	require.NoError(t, taskRepo.Create(ctx, b))
	require.NoError(t, taskRepo.Create(ctx, c))

	dep1 := testutil.NewTestDependency(a.ID, b.ID)
	dep2 := testutil.NewTestDependency(b.ID, c.ID)
	require.NoError(t, depRepo.Create(ctx, &dep1))
	require.NoError(t, depRepo.Create(ctx, &dep2))

	preds, succs, err := depRepo.ListByTask(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Equal(t, a.ID, preds[0].PredecessorID)
	require.Len(t, succs, 1)
	assert.Equal(t, c.ID, succs[0].SuccessorID)
}

func TestSQLiteDependencyRepo_Delete(t *testing.T) {
	database := testutil.NewTestDB(t)
	taskRepo := NewSQLiteTaskRepo(database)
	depRepo := NewSQLiteDependencyRepo(database)
	ctx := context.Background()

	a := testutil.NewTestTask("A")
	b := testutil.NewTestTask("B")
	require.NoError(t, taskRepo.Create(ctx, a))
	require.NoError(t, taskRepo.Create(ctx, b))
	dep := testutil.NewTestDependency(a.ID, b.ID)
	require.NoError(t, depRepo.Create(ctx, &dep))

	require.NoError(t, depRepo.Delete(ctx, a.ID, b.ID))

	all, err := depRepo.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSQLiteDependencyRepo_CreateRejectsCycle(t *testing.T) {
	database := testutil.NewTestDB(t)
	taskRepo := NewSQLiteTaskRepo(database)
	depRepo := NewSQLiteDependencyRepo(database)
	ctx := context.Background()

	a := testutil.NewTestTask("A")
	b := testutil.NewTestTask("B")
	c := testutil.NewTestTask("C")
	require.NoError(t, taskRepo.Create(ctx, a))
	require.NoError(t, taskRepo.Create(ctx, b))
	require.NoError(t, taskRepo.Create(ctx, c))

	dep1 := testutil.NewTestDependency(a.ID, b.ID)
	dep2 := testutil.NewTestDependency(b.ID, c.ID)
	require.NoError(t, depRepo.Create(ctx, &dep1))
	require.NoError(t, depRepo.Create(ctx, &dep2))

	closing := testutil.NewTestDependency(c.ID, a.ID)
	err := depRepo.Create(ctx, &closing)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	all, err := depRepo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2, "the repository must be left unchanged by a rejected dependency")
}
