package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"tokendraw/events"
	"tokendraw/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitOfWork_CommitFlushesEvents(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	bus := events.NewBus()
	var mu sync.Mutex
	var received []events.Event
	done := make(chan struct{}, 1)
	bus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, e events.Event) {
		mu.Lock()
		received = append(received, e)
		mu.Unlock()
		done <- struct{}{}
	})

	uow := NewUnitOfWork(testDB.DB, bus)
	require.NoError(t, uow.Begin(ctx))

	user, err := uow.UserRepository().Create(ctx, "flush@example.com", "flush")
	require.NoError(t, err)

	uow.EventBus().Publish(events.BalanceChangeEvent{UserID: user.ID, NewBalance: 0})

	// Nothing emitted before commit
	mu.Lock()
	assert.Empty(t, received)
	mu.Unlock()

	require.NoError(t, uow.Commit())

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("event not emitted after commit")
	}

	mu.Lock()
	assert.Len(t, received, 1)
	mu.Unlock()

	// Row is visible after commit
	repo := NewUserRepository(testDB.DB)
	found, err := repo.GetByEmail(ctx, "flush@example.com")
	require.NoError(t, err)
	assert.NotNil(t, found)
}

func TestUnitOfWork_RollbackDiscards(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	bus := events.NewBus()
	var mu sync.Mutex
	emitted := 0
	bus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, e events.Event) {
		mu.Lock()
		emitted++
		mu.Unlock()
	})

	uow := NewUnitOfWork(testDB.DB, bus)
	require.NoError(t, uow.Begin(ctx))

	_, err := uow.UserRepository().Create(ctx, "discard@example.com", "discard")
	require.NoError(t, err)

	uow.EventBus().Publish(events.BalanceChangeEvent{UserID: 1})

	require.NoError(t, uow.Rollback())

	// Neither the row nor the event survive the rollback
	repo := NewUserRepository(testDB.DB)
	found, err := repo.GetByEmail(ctx, "discard@example.com")
	require.NoError(t, err)
	assert.Nil(t, found)

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	assert.Zero(t, emitted)
	mu.Unlock()
}

func TestUnitOfWork_RollbackAfterCommitIsNoop(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	uow := NewUnitOfWork(testDB.DB, events.NewBus())
	require.NoError(t, uow.Begin(ctx))

	_, err := uow.UserRepository().Create(ctx, "noop@example.com", "noop")
	require.NoError(t, err)

	require.NoError(t, uow.Commit())
	assert.NoError(t, uow.Rollback())
}

func TestUnitOfWork_RepositoriesShareTransaction(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	uow := NewUnitOfWork(testDB.DB, events.NewBus())
	require.NoError(t, uow.Begin(ctx))

	user, err := uow.UserRepository().Create(ctx, "shared@example.com", "shared")
	require.NoError(t, err)

	// The uncommitted user is visible to the ledger repository on the same tx
	txn := testutil.CreatePurchaseTransaction(user.ID, 10)
	require.NoError(t, uow.TransactionRepository().Record(ctx, txn))

	require.NoError(t, uow.Rollback())

	// Both writes rolled back together
	sum, err := NewTransactionRepository(testDB.DB).SumByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, sum)
}
