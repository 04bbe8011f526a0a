package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"tokendraw/models"
	"tokendraw/repository/testutil"
	"tokendraw/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrawRepository_CreateAndGet(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewDrawRepository(testDB.DB)

	draw := testutil.CreateTestDraw("Console")
	require.NoError(t, repo.Create(ctx, draw))
	assert.NotZero(t, draw.ID)
	assert.Equal(t, int64(0), draw.CurrentEntries)

	found, err := repo.GetByID(ctx, draw.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Console", found.PrizeName)
	assert.Equal(t, models.DrawStatusActive, found.Status)

	missing, err := repo.GetByID(ctx, 99999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDrawRepository_IncrementEntries_CapacityBound(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewDrawRepository(testDB.DB)

	draw := testutil.CreateTestDrawWithCapacity("Bounded", 10)
	require.NoError(t, repo.Create(ctx, draw))

	require.NoError(t, repo.IncrementEntries(ctx, draw.ID, 8))

	// Would exceed max_entries
	err := repo.IncrementEntries(ctx, draw.ID, 3)
	assert.ErrorIs(t, err, service.ErrCapacityExceeded)

	// Exactly filling works
	require.NoError(t, repo.IncrementEntries(ctx, draw.ID, 2))

	current, err := repo.GetByID(ctx, draw.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), current.CurrentEntries)
}

func TestDrawRepository_IncrementEntries_Concurrent(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewDrawRepository(testDB.DB)

	draw := testutil.CreateTestDrawWithCapacity("Race", 10)
	require.NoError(t, repo.Create(ctx, draw))

	// 30 goroutines each claim one slot in a draw with 10 slots.
	// The guard admits exactly 10.
	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.IncrementEntries(ctx, draw.ID, 1); err == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, admitted)

	final, err := repo.GetByID(ctx, draw.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), final.CurrentEntries)
}

func TestDrawRepository_IncrementEntries_RejectsInactive(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewDrawRepository(testDB.DB)

	draw := testutil.CreateUpcomingTestDraw("Not Yet", time.Now().Add(time.Hour))
	require.NoError(t, repo.Create(ctx, draw))

	err := repo.IncrementEntries(ctx, draw.ID, 1)
	assert.ErrorIs(t, err, service.ErrCapacityExceeded)
}

func TestDrawRepository_AssignWinner_ExactlyOnce(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	userRepo := NewUserRepository(testDB.DB)
	drawRepo := NewDrawRepository(testDB.DB)

	user, err := userRepo.Create(ctx, "lucky@example.com", "lucky")
	require.NoError(t, err)

	draw := testutil.CreateTestDraw("One Winner")
	require.NoError(t, drawRepo.Create(ctx, draw))

	// Many racers, one conditional update can land
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			updated, err := drawRepo.AssignWinner(ctx, draw.ID, user.ID, "lucky")
			if err == nil && updated {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)

	final, err := drawRepo.GetByID(ctx, draw.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DrawStatusCompleted, final.Status)
	require.NotNil(t, final.WinnerID)
	assert.Equal(t, user.ID, *final.WinnerID)
	require.NotNil(t, final.WinnerUsername)
	assert.Equal(t, "lucky", *final.WinnerUsername)
}

func TestDrawRepository_CompleteWithoutWinner(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewDrawRepository(testDB.DB)

	draw := testutil.CreateTestDraw("Nobody Came")
	require.NoError(t, repo.Create(ctx, draw))

	updated, err := repo.CompleteWithoutWinner(ctx, draw.ID)
	require.NoError(t, err)
	assert.True(t, updated)

	// Second resolution attempt is rejected by the guard
	updated, err = repo.CompleteWithoutWinner(ctx, draw.ID)
	require.NoError(t, err)
	assert.False(t, updated)

	final, err := repo.GetByID(ctx, draw.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DrawStatusCompleted, final.Status)
	assert.Nil(t, final.WinnerID)
}

func TestDrawRepository_Activate(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewDrawRepository(testDB.DB)

	draw := testutil.CreateUpcomingTestDraw("Soon", time.Now().Add(-time.Minute))
	require.NoError(t, repo.Create(ctx, draw))

	activated, err := repo.Activate(ctx, draw.ID)
	require.NoError(t, err)
	assert.True(t, activated)

	// Already active: no-op
	activated, err = repo.Activate(ctx, draw.ID)
	require.NoError(t, err)
	assert.False(t, activated)
}

func TestDrawRepository_SweepQueries(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewDrawRepository(testDB.DB)

	now := time.Now()

	expired := testutil.CreateExpiredTestDraw("Expired")
	require.NoError(t, repo.Create(ctx, expired))

	running := testutil.CreateTestDraw("Still Running")
	require.NoError(t, repo.Create(ctx, running))

	due := testutil.CreateUpcomingTestDraw("Due", now.Add(-time.Minute))
	require.NoError(t, repo.Create(ctx, due))

	notYet := testutil.CreateUpcomingTestDraw("Not Yet", now.Add(time.Hour))
	require.NoError(t, repo.Create(ctx, notYet))

	expiredList, err := repo.GetExpiredActive(ctx, now)
	require.NoError(t, err)
	require.Len(t, expiredList, 1)
	assert.Equal(t, expired.ID, expiredList[0].ID)

	pendingList, err := repo.GetPendingActivation(ctx, now)
	require.NoError(t, err)
	require.Len(t, pendingList, 1)
	assert.Equal(t, due.ID, pendingList[0].ID)
}

func TestDrawRepository_GetActive_EndingSoonest(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewDrawRepository(testDB.DB)

	later := testutil.CreateTestDraw("Later")
	later.EndsAt = time.Now().Add(48 * time.Hour)
	require.NoError(t, repo.Create(ctx, later))

	sooner := testutil.CreateTestDraw("Sooner")
	sooner.EndsAt = time.Now().Add(time.Hour)
	require.NoError(t, repo.Create(ctx, sooner))

	active, err := repo.GetActive(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, sooner.ID, active.ID)
}

func TestDrawRepository_UpdateMetadata(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewDrawRepository(testDB.DB)

	draw := testutil.CreateTestDraw("Before")
	require.NoError(t, repo.Create(ctx, draw))

	draw.PrizeName = "After"
	draw.TokenCost = 25
	require.NoError(t, repo.UpdateMetadata(ctx, draw))

	updated, err := repo.GetByID(ctx, draw.ID)
	require.NoError(t, err)
	assert.Equal(t, "After", updated.PrizeName)
	assert.Equal(t, int64(25), updated.TokenCost)

	missing := testutil.CreateTestDraw("Ghost")
	missing.ID = 99999
	err = repo.UpdateMetadata(ctx, missing)
	assert.ErrorIs(t, err, service.ErrDrawNotFound)
}
