package repository

import (
	"context"
	"testing"

	"github.com/planloom/planloom/internal/domain"
	"github.com/planloom/planloom/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteHolidayRepo_UpsertThenGetByExternalID(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := NewSQLiteHolidayRepo(database)
	ctx := context.Background()

	h := &domain.Holiday{
		ID:         "h1",
		ExternalID: "us",
		Name:       "United States",
		CachedRange: &domain.TimeRange{Start: day(1), End: day(10)},
	}
	require.NoError(t, repo.Upsert(ctx, h))

	got, err := repo.GetByExternalID(ctx, "us")
	require.NoError(t, err)
	assert.Equal(t, "United States", got.Name)
	require.NotNil(t, got.CachedRange)
	assert.True(t, got.CachedRange.Start.Equal(day(1)))
	assert.True(t, got.CachedRange.End.Equal(day(10)))
}

func TestSQLiteHolidayRepo_GetByID(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := NewSQLiteHolidayRepo(database)
	ctx := context.Background()

	h := &domain.Holiday{ID: "h1", ExternalID: "us", Name: "United States"}
	require.NoError(t, repo.Upsert(ctx, h))

	got, err := repo.GetByID(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "us", got.ExternalID)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteHolidayRepo_UpsertExtendsCachedRange(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := NewSQLiteHolidayRepo(database)
	ctx := context.Background()

	first := &domain.Holiday{ID: "h1", ExternalID: "us", Name: "United States",
		CachedRange: &domain.TimeRange{Start: day(5), End: day(10)}}
	require.NoError(t, repo.Upsert(ctx, first))

	second := &domain.Holiday{ExternalID: "us", Name: "United States",
		CachedRange: &domain.TimeRange{Start: day(1), End: day(20)}}
	require.NoError(t, repo.Upsert(ctx, second))

	got, err := repo.GetByExternalID(ctx, "us")
	require.NoError(t, err)
	require.NotNil(t, got.CachedRange)
	assert.True(t, got.CachedRange.Start.Equal(day(1)))
	assert.True(t, got.CachedRange.End.Equal(day(20)))

	third := &domain.Holiday{ExternalID: "us", Name: "United States",
		CachedRange: &domain.TimeRange{Start: day(3), End: day(7)}}
	require.NoError(t, repo.Upsert(ctx, third))

	got, err = repo.GetByExternalID(ctx, "us")
	require.NoError(t, err)
	assert.True(t, got.CachedRange.Start.Equal(day(1)))
	assert.True(t, got.CachedRange.End.Equal(day(20)))
}

func TestSQLiteHolidayRepo_UpsertEntriesSkipsExisting(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := NewSQLiteHolidayRepo(database)
	ctx := context.Background()

	h := &domain.Holiday{ID: "h1", ExternalID: "us", Name: "United States"}
	require.NoError(t, repo.Upsert(ctx, h))

	name := "New Year"
	require.NoError(t, repo.UpsertEntries(ctx, h.ID, []domain.HolidayEntry{
		{ID: "e1", Date: day(1), Name: &name},
	}))
	require.NoError(t, repo.UpsertEntries(ctx, h.ID, []domain.HolidayEntry{
		{ID: "e1-dup", Date: day(1), Name: &name},
		{ID: "e2", Date: day(25)},
	}))

	got, err := repo.GetByExternalID(ctx, "us")
	require.NoError(t, err)
	require.Len(t, got.Entries, 2)
}

