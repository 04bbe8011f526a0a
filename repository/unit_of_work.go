package repository

import (
	"context"
	"fmt"

	"tokendraw/database"
	"tokendraw/events"
	"tokendraw/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork binds repositories and pending events to a single database
// transaction so a lifecycle operation commits or rolls back as a whole.
type unitOfWork struct {
	db       *database.DB
	eventBus *events.Bus

	tx        pgx.Tx
	txBus     *events.TransactionalBus
	userRepo  *UserRepository
	txnRepo   *TransactionRepository
	drawRepo  *DrawRepository
	entryRepo *EntryRepository
	prizeRepo *PrizeRepository
}

// NewUnitOfWork creates a new unit of work
func NewUnitOfWork(db *database.DB, eventBus *events.Bus) service.UnitOfWork {
	return &unitOfWork{
		db:       db,
		eventBus: eventBus,
	}
}

// Begin starts a transaction and binds all repositories to it
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.txBus = events.NewTransactionalBus(u.eventBus)
	u.userRepo = newUserRepositoryWithTx(tx)
	u.txnRepo = newTransactionRepositoryWithTx(tx)
	u.drawRepo = newDrawRepositoryWithTx(tx)
	u.entryRepo = newEntryRepositoryWithTx(tx)
	u.prizeRepo = newPrizeRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction and flushes pending events. Events are
// emitted only after the commit succeeds.
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	ctx := context.Background()
	if err := u.tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.txBus.Flush(ctx)
	u.reset()

	return nil
}

// Rollback rolls back the transaction and discards pending events.
// Safe to defer after a successful commit.
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(context.Background())
	u.txBus.Discard()
	u.reset()

	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	return nil
}

func (u *unitOfWork) reset() {
	u.tx = nil
	u.txBus = nil
	u.userRepo = nil
	u.txnRepo = nil
	u.drawRepo = nil
	u.entryRepo = nil
	u.prizeRepo = nil
}

// UserRepository returns the transaction-bound user repository
func (u *unitOfWork) UserRepository() service.UserRepository {
	if u.userRepo == nil {
		panic("unit of work not started, call Begin first")
	}
	return u.userRepo
}

// TransactionRepository returns the transaction-bound ledger repository
func (u *unitOfWork) TransactionRepository() service.TransactionRepository {
	if u.txnRepo == nil {
		panic("unit of work not started, call Begin first")
	}
	return u.txnRepo
}

// DrawRepository returns the transaction-bound draw repository
func (u *unitOfWork) DrawRepository() service.DrawRepository {
	if u.drawRepo == nil {
		panic("unit of work not started, call Begin first")
	}
	return u.drawRepo
}

// EntryRepository returns the transaction-bound entry repository
func (u *unitOfWork) EntryRepository() service.EntryRepository {
	if u.entryRepo == nil {
		panic("unit of work not started, call Begin first")
	}
	return u.entryRepo
}

// PrizeRepository returns the transaction-bound prize repository
func (u *unitOfWork) PrizeRepository() service.PrizeRepository {
	if u.prizeRepo == nil {
		panic("unit of work not started, call Begin first")
	}
	return u.prizeRepo
}

// EventBus returns the transactional event bus. Events published here are
// emitted on commit and dropped on rollback.
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.txBus == nil {
		panic("unit of work not started, call Begin first")
	}
	return u.txBus
}

// unitOfWorkFactory creates unit of work instances
type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

// NewUnitOfWorkFactory creates a new unit of work factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

// Create returns a fresh unit of work
func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return NewUnitOfWork(f.db, f.eventBus)
}
