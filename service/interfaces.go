package service

import (
	"context"
	"time"

	"tokendraw/events"
	"tokendraw/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByID retrieves a user by ID, returning nil when not found
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetByEmail retrieves a user by email, returning nil when not found
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// Create creates a new user with a zero token balance
	Create(ctx context.Context, email, username string) (*models.User, error)

	// AddTokens credits tokens to a user's cached balance atomically.
	// Returns ErrUnknownUser when the user does not exist.
	AddTokens(ctx context.Context, userID, amount int64) (newBalance int64, err error)

	// DeductTokens debits tokens with a balance guard in the update predicate.
	// Returns ErrInsufficientBalance when the guard rejects the debit and
	// ErrUnknownUser when the user does not exist.
	DeductTokens(ctx context.Context, userID, amount int64) (newBalance int64, err error)
}

// TransactionRepository defines the interface for the append-only token ledger
type TransactionRepository interface {
	// Record appends a transaction; the row is never updated or deleted
	Record(ctx context.Context, txn *models.TokenTransaction) error

	// GetByUser returns a user's transactions, newest first
	GetByUser(ctx context.Context, userID int64, limit int) ([]*models.TokenTransaction, error)

	// SumByUser returns the signed sum of a user's transaction amounts.
	// The invariant is that this equals the cached balance at all times.
	SumByUser(ctx context.Context, userID int64) (int64, error)
}

// DrawRepository defines the interface for draw data access
type DrawRepository interface {
	// Create inserts a new draw definition
	Create(ctx context.Context, draw *models.Draw) error

	// GetByID retrieves a draw by ID, returning nil when not found
	GetByID(ctx context.Context, id int64) (*models.Draw, error)

	// GetByIDForUpdate retrieves a draw by ID with a row lock
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Draw, error)

	// UpdateMetadata updates the admin-editable draw fields
	UpdateMetadata(ctx context.Context, draw *models.Draw) error

	// Delete removes a draw definition
	Delete(ctx context.Context, id int64) error

	// GetActive returns the active draw ending soonest, or nil
	GetActive(ctx context.Context) (*models.Draw, error)

	// ListByStatus returns draws in the given status
	ListByStatus(ctx context.Context, status models.DrawStatus, limit int) ([]*models.Draw, error)

	// IncrementEntries adds count entry units, guarded so the total never
	// exceeds max_entries and only while the draw is active.
	// Returns ErrCapacityExceeded when the guard rejects the increment.
	IncrementEntries(ctx context.Context, drawID, count int64) error

	// Activate flips an upcoming draw to active; no-op when already past upcoming
	Activate(ctx context.Context, drawID int64) (bool, error)

	// AssignWinner completes the draw and records the winner, conditioned on
	// the winner being unset. Returns false when already resolved.
	AssignWinner(ctx context.Context, drawID, winnerID int64, winnerUsername string) (bool, error)

	// CompleteWithoutWinner completes a draw that had no entries.
	// Returns false when the draw was already resolved.
	CompleteWithoutWinner(ctx context.Context, drawID int64) (bool, error)

	// GetExpiredActive returns active draws with no winner whose deadline passed
	GetExpiredActive(ctx context.Context, now time.Time) ([]*models.Draw, error)

	// GetPendingActivation returns upcoming draws whose start time elapsed
	GetPendingActivation(ctx context.Context, now time.Time) ([]*models.Draw, error)
}

// EntryRepository defines the interface for draw entry data access
type EntryRepository interface {
	// Upsert creates the (draw, user) row or accumulates entries_count into it
	Upsert(ctx context.Context, drawID, userID, count int64) (*models.DrawEntry, error)

	// GetByDrawAndUser returns the entry row for a participant, or nil
	GetByDrawAndUser(ctx context.Context, drawID, userID int64) (*models.DrawEntry, error)

	// ListByDraw returns all entries for a draw in stable creation order
	ListByDraw(ctx context.Context, drawID int64) ([]*models.DrawEntry, error)

	// ListByUser returns all entries for a user
	ListByUser(ctx context.Context, userID int64) ([]*models.DrawEntry, error)

	// SumByDraw returns the total entry units recorded for a draw
	SumByDraw(ctx context.Context, drawID int64) (int64, error)
}

// PrizeRepository defines the interface for prize fulfillment data access
type PrizeRepository interface {
	// Create inserts the prize record for a draw's winner
	Create(ctx context.Context, prize *models.Prize) error

	// GetByID retrieves a prize by ID, returning nil when not found
	GetByID(ctx context.Context, id int64) (*models.Prize, error)

	// GetByDraw retrieves the prize for a draw, returning nil when not found
	GetByDraw(ctx context.Context, drawID int64) (*models.Prize, error)

	// List returns prizes, newest first
	List(ctx context.Context, limit int) ([]*models.Prize, error)

	// MarkDelivered flips a pending prize to delivered, conditioned on
	// status still being pending. Returns nil when the guard rejects.
	MarkDelivered(ctx context.Context, prizeID int64, code *string) (*models.Prize, error)
}

// TokenLedgerService defines the interface for token balance operations
type TokenLedgerService interface {
	// RegisterUser creates a user record for the external auth collaborator
	RegisterUser(ctx context.Context, email, username string) (*models.User, error)

	// PurchaseTokens credits an externally settled token purchase
	PurchaseTokens(ctx context.Context, userID, amount int64) (newBalance int64, err error)

	// Refund credits tokens back, used by administrative reversal only
	Refund(ctx context.Context, userID, amount int64, drawID int64) (newBalance int64, err error)

	// GetBalance returns the user's current token balance
	GetBalance(ctx context.Context, userID int64) (int64, error)

	// ListTransactions returns the user's token history, newest first
	ListTransactions(ctx context.Context, userID int64, limit int) ([]*models.TokenTransaction, error)
}

// EntryResult is returned by a successful draw entry
type EntryResult struct {
	TotalEntries int64
	NewBalance   int64
}

// DrawService defines the interface for draw lifecycle operations
type DrawService interface {
	// EnterDraw admits entriesCount entries or rejects the whole request
	EnterDraw(ctx context.Context, userID, drawID, entriesCount int64) (*EntryResult, error)

	// SelectWinner closes the draw and picks exactly one winner.
	// Idempotent: an already resolved draw returns ErrDrawAlreadyResolved.
	SelectWinner(ctx context.Context, drawID int64) (*models.Draw, error)

	// SweepExpiredDraws resolves every eligible expired draw and activates
	// upcoming draws whose start time elapsed
	SweepExpiredDraws(ctx context.Context) error

	// ActivateDraw flips an upcoming draw to active
	ActivateDraw(ctx context.Context, drawID int64) error

	// CreateDraw validates and inserts a new draw definition
	CreateDraw(ctx context.Context, draw *models.Draw) (*models.Draw, error)

	// UpdateDraw patches admin-editable draw metadata
	UpdateDraw(ctx context.Context, draw *models.Draw) (*models.Draw, error)

	// DeleteDraw removes a draw definition
	DeleteDraw(ctx context.Context, drawID int64) error

	// GetDraw returns a draw by ID, or ErrDrawNotFound
	GetDraw(ctx context.Context, drawID int64) (*models.Draw, error)

	// GetActiveDraw returns the active draw ending soonest, or nil
	GetActiveDraw(ctx context.Context) (*models.Draw, error)

	// ListUpcomingDraws returns upcoming draws
	ListUpcomingDraws(ctx context.Context) ([]*models.Draw, error)

	// ListCompletedDraws returns completed draws, newest first
	ListCompletedDraws(ctx context.Context) ([]*models.Draw, error)

	// ListUserEntries returns the user's entries across draws
	ListUserEntries(ctx context.Context, userID int64) ([]*models.DrawEntry, error)
}

// PrizeService defines the interface for prize fulfillment operations
type PrizeService interface {
	// MarkDelivered flips a pending prize to delivered and emits the
	// delivery notification event
	MarkDelivered(ctx context.Context, prizeID int64, code *string) (*models.Prize, error)

	// ListPrizes returns prizes, newest first
	ListPrizes(ctx context.Context, limit int) ([]*models.Prize, error)

	// GetPrizeByDraw returns the prize for a draw, or nil
	GetPrizeByDraw(ctx context.Context, drawID int64) (*models.Prize, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	TransactionRepository() TransactionRepository
	DrawRepository() DrawRepository
	EntryRepository() EntryRepository
	PrizeRepository() PrizeRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
