package repository

import (
	"context"
	"testing"

	"tokendraw/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryRepository_UpsertAccumulates(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	userRepo := NewUserRepository(testDB.DB)
	drawRepo := NewDrawRepository(testDB.DB)
	entryRepo := NewEntryRepository(testDB.DB)

	user, err := userRepo.Create(ctx, "henry@example.com", "henry")
	require.NoError(t, err)

	draw := testutil.CreateTestDraw("Upsert Prize")
	require.NoError(t, drawRepo.Create(ctx, draw))

	first, err := entryRepo.Upsert(ctx, draw.ID, user.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), first.EntriesCount)

	// Same participant again: one row, accumulated count
	second, err := entryRepo.Upsert(ctx, draw.ID, user.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(5), second.EntriesCount)

	entries, err := entryRepo.ListByDraw(ctx, draw.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(5), entries[0].EntriesCount)

	sum, err := entryRepo.SumByDraw(ctx, draw.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), sum)
}

func TestEntryRepository_ListByDraw_StableOrder(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	userRepo := NewUserRepository(testDB.DB)
	drawRepo := NewDrawRepository(testDB.DB)
	entryRepo := NewEntryRepository(testDB.DB)

	draw := testutil.CreateTestDraw("Order Prize")
	require.NoError(t, drawRepo.Create(ctx, draw))

	var userIDs []int64
	emails := []string{"p1@example.com", "p2@example.com", "p3@example.com"}
	for i, email := range emails {
		user, err := userRepo.Create(ctx, email, email)
		require.NoError(t, err)
		userIDs = append(userIDs, user.ID)

		_, err = entryRepo.Upsert(ctx, draw.ID, user.ID, int64(i+1))
		require.NoError(t, err)
	}

	entries, err := entryRepo.ListByDraw(ctx, draw.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Creation order is the ticket mapping order
	for i, entry := range entries {
		assert.Equal(t, userIDs[i], entry.UserID)
		assert.Equal(t, int64(i+1), entry.EntriesCount)
	}
}

func TestEntryRepository_GetByDrawAndUser(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	userRepo := NewUserRepository(testDB.DB)
	drawRepo := NewDrawRepository(testDB.DB)
	entryRepo := NewEntryRepository(testDB.DB)

	user, err := userRepo.Create(ctx, "iris@example.com", "iris")
	require.NoError(t, err)

	draw := testutil.CreateTestDraw("Lookup Prize")
	require.NoError(t, drawRepo.Create(ctx, draw))

	missing, err := entryRepo.GetByDrawAndUser(ctx, draw.ID, user.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = entryRepo.Upsert(ctx, draw.ID, user.ID, 4)
	require.NoError(t, err)

	found, err := entryRepo.GetByDrawAndUser(ctx, draw.ID, user.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, int64(4), found.EntriesCount)
}
