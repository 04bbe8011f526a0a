package repository

import (
	"context"
	"sync"
	"testing"

	"tokendraw/repository/testutil"
	"tokendraw/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewUserRepository(testDB.DB)

	user, err := repo.Create(ctx, "alice@example.com", "alice")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, int64(0), user.TokenBalance)

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "alice@example.com", byID.Email)

	byEmail, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, user.ID, byEmail.ID)

	missing, err := repo.GetByID(ctx, 99999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepository_AddTokens(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewUserRepository(testDB.DB)

	user, err := repo.Create(ctx, "bob@example.com", "bob")
	require.NoError(t, err)

	newBalance, err := repo.AddTokens(ctx, user.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), newBalance)

	newBalance, err = repo.AddTokens(ctx, user.ID, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(150), newBalance)

	_, err = repo.AddTokens(ctx, 99999, 10)
	assert.ErrorIs(t, err, service.ErrUnknownUser)

	_, err = repo.AddTokens(ctx, user.ID, 0)
	assert.ErrorIs(t, err, service.ErrInvalidAmount)
}

func TestUserRepository_DeductTokens_Guard(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewUserRepository(testDB.DB)

	user, err := repo.Create(ctx, "carol@example.com", "carol")
	require.NoError(t, err)

	_, err = repo.AddTokens(ctx, user.ID, 100)
	require.NoError(t, err)

	newBalance, err := repo.DeductTokens(ctx, user.ID, 60)
	require.NoError(t, err)
	assert.Equal(t, int64(40), newBalance)

	// Guard rejects the debit that would go negative
	_, err = repo.DeductTokens(ctx, user.ID, 41)
	assert.ErrorIs(t, err, service.ErrInsufficientBalance)

	// Balance unchanged after the rejected debit
	current, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(40), current.TokenBalance)

	_, err = repo.DeductTokens(ctx, 99999, 10)
	assert.ErrorIs(t, err, service.ErrUnknownUser)
}

func TestUserRepository_DeductTokens_Concurrent(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewUserRepository(testDB.DB)

	user, err := repo.Create(ctx, "dave@example.com", "dave")
	require.NoError(t, err)

	_, err = repo.AddTokens(ctx, user.ID, 50)
	require.NoError(t, err)

	// 20 goroutines each try to debit 10 from a balance of 50.
	// Exactly 5 can succeed.
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.DeductTokens(ctx, user.ID, 10); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)

	final, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), final.TokenBalance)
}
