package repository

import (
	"context"
	"testing"

	"tokendraw/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionRepository_RecordAndSum(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	userRepo := NewUserRepository(testDB.DB)
	txnRepo := NewTransactionRepository(testDB.DB)

	user, err := userRepo.Create(ctx, "eve@example.com", "eve")
	require.NoError(t, err)

	purchase := testutil.CreatePurchaseTransaction(user.ID, 200)
	require.NoError(t, txnRepo.Record(ctx, purchase))
	assert.NotZero(t, purchase.ID)

	_, err = userRepo.AddTokens(ctx, user.ID, 200)
	require.NoError(t, err)

	// Mirror a draw entry: balance debit plus the ledger row
	draw := testutil.CreateTestDraw("Audit Prize")
	drawRepo := NewDrawRepository(testDB.DB)
	require.NoError(t, drawRepo.Create(ctx, draw))

	spend := testutil.CreateSpendTransaction(user.ID, 50, draw.ID)
	require.NoError(t, txnRepo.Record(ctx, spend))

	_, err = userRepo.DeductTokens(ctx, user.ID, 50)
	require.NoError(t, err)

	// The signed ledger sum must equal the cached balance
	sum, err := txnRepo.SumByUser(ctx, user.ID)
	require.NoError(t, err)

	current, err := userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, current.TokenBalance, sum)
	assert.Equal(t, int64(150), sum)
}

func TestTransactionRepository_GetByUser_NewestFirst(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	userRepo := NewUserRepository(testDB.DB)
	txnRepo := NewTransactionRepository(testDB.DB)

	user, err := userRepo.Create(ctx, "frank@example.com", "frank")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		txn := testutil.CreatePurchaseTransaction(user.ID, int64(10*(i+1)))
		require.NoError(t, txnRepo.Record(ctx, txn))
	}

	txns, err := txnRepo.GetByUser(ctx, user.ID, 10)
	require.NoError(t, err)
	require.Len(t, txns, 3)

	// Newest first: the last recorded amount comes back first
	assert.Equal(t, int64(30), txns[0].Amount)
	assert.Equal(t, int64(10), txns[2].Amount)

	limited, err := txnRepo.GetByUser(ctx, user.ID, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestTransactionRepository_SumByUser_Empty(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	userRepo := NewUserRepository(testDB.DB)
	txnRepo := NewTransactionRepository(testDB.DB)

	user, err := userRepo.Create(ctx, "grace@example.com", "grace")
	require.NoError(t, err)

	sum, err := txnRepo.SumByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), sum)
}
