package repository

import (
	"context"
	"fmt"

	"tokendraw/database"
	"tokendraw/models"
	"tokendraw/service"

	"github.com/jackc/pgx/v5"
)

// UserRepository implements the service.UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository bound to a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT id, email, username, token_balance, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var user models.User
	err := r.q.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.TokenBalance,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID %d: %w", id, err)
	}

	return &user, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, username, token_balance, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	var user models.User
	err := r.q.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.TokenBalance,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email %s: %w", email, err)
	}

	return &user, nil
}

// Create creates a new user with a zero token balance
func (r *UserRepository) Create(ctx context.Context, email, username string) (*models.User, error) {
	query := `
		INSERT INTO users (email, username)
		VALUES ($1, $2)
		RETURNING id, email, username, token_balance, created_at, updated_at
	`

	var user models.User
	err := r.q.QueryRow(ctx, query, email, username).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.TokenBalance,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", email, err)
	}

	return &user, nil
}

// AddTokens credits tokens to a user's cached balance atomically
func (r *UserRepository) AddTokens(ctx context.Context, userID, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, service.ErrInvalidAmount
	}

	query := `
		UPDATE users
		SET token_balance = token_balance + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING token_balance
	`

	var newBalance int64
	err := r.q.QueryRow(ctx, query, amount, userID).Scan(&newBalance)
	if err == pgx.ErrNoRows {
		return 0, service.ErrUnknownUser
	}
	if err != nil {
		return 0, fmt.Errorf("failed to add tokens for user %d: %w", userID, err)
	}

	return newBalance, nil
}

// DeductTokens debits tokens with the balance guard inside the update
// predicate, so a concurrent debit can never push the balance negative.
func (r *UserRepository) DeductTokens(ctx context.Context, userID, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, service.ErrInvalidAmount
	}

	query := `
		UPDATE users
		SET token_balance = token_balance - $1, updated_at = NOW()
		WHERE id = $2
		  AND token_balance >= $1
		RETURNING token_balance
	`

	var newBalance int64
	err := r.q.QueryRow(ctx, query, amount, userID).Scan(&newBalance)
	if err == pgx.ErrNoRows {
		// Distinguish a missing user from an insufficient balance
		user, getErr := r.GetByID(ctx, userID)
		if getErr != nil {
			return 0, fmt.Errorf("failed to check user %d: %w", userID, getErr)
		}
		if user == nil {
			return 0, service.ErrUnknownUser
		}
		return 0, service.ErrInsufficientBalance
	}
	if err != nil {
		return 0, fmt.Errorf("failed to deduct tokens for user %d: %w", userID, err)
	}

	return newBalance, nil
}
