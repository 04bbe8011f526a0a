package repository

import (
	"context"
	"fmt"

	"tokendraw/database"
	"tokendraw/models"

	"github.com/jackc/pgx/v5"
)

// PrizeRepository implements the service.PrizeRepository interface
type PrizeRepository struct {
	q queryable
}

// NewPrizeRepository creates a new prize repository
func NewPrizeRepository(db *database.DB) *PrizeRepository {
	return &PrizeRepository{q: db.Pool}
}

// newPrizeRepositoryWithTx creates a new prize repository bound to a transaction
func newPrizeRepositoryWithTx(tx queryable) *PrizeRepository {
	return &PrizeRepository{q: tx}
}

// Create inserts the prize record for a draw's winner. The unique constraint
// on draw_id backs the at-most-one-prize-per-draw invariant.
func (r *PrizeRepository) Create(ctx context.Context, prize *models.Prize) error {
	query := `
		INSERT INTO prizes (user_id, draw_id, prize_name, prize_code, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		prize.UserID,
		prize.DrawID,
		prize.PrizeName,
		prize.PrizeCode,
		prize.Status,
	).Scan(&prize.ID, &prize.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create prize for draw %d: %w", prize.DrawID, err)
	}

	return nil
}

// GetByID retrieves a prize by ID
func (r *PrizeRepository) GetByID(ctx context.Context, id int64) (*models.Prize, error) {
	query := `
		SELECT id, user_id, draw_id, prize_name, prize_code, status, delivered_at, created_at
		FROM prizes
		WHERE id = $1
	`

	prize, err := scanPrize(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prize by ID %d: %w", id, err)
	}

	return prize, nil
}

// GetByDraw retrieves the prize for a draw
func (r *PrizeRepository) GetByDraw(ctx context.Context, drawID int64) (*models.Prize, error) {
	query := `
		SELECT id, user_id, draw_id, prize_name, prize_code, status, delivered_at, created_at
		FROM prizes
		WHERE draw_id = $1
	`

	prize, err := scanPrize(r.q.QueryRow(ctx, query, drawID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prize for draw %d: %w", drawID, err)
	}

	return prize, nil
}

// List returns prizes, newest first
func (r *PrizeRepository) List(ctx context.Context, limit int) ([]*models.Prize, error) {
	query := `
		SELECT id, user_id, draw_id, prize_name, prize_code, status, delivered_at, created_at
		FROM prizes
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list prizes: %w", err)
	}
	defer rows.Close()

	var prizes []*models.Prize
	for rows.Next() {
		prize, err := scanPrize(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prize: %w", err)
		}
		prizes = append(prizes, prize)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate prizes: %w", err)
	}

	return prizes, nil
}

// MarkDelivered flips a pending prize to delivered. The status guard in the
// predicate makes delivery a one-way, once-only transition; a nil result
// means the guard rejected the update.
func (r *PrizeRepository) MarkDelivered(ctx context.Context, prizeID int64, code *string) (*models.Prize, error) {
	query := `
		UPDATE prizes
		SET status = 'delivered',
		    delivered_at = NOW(),
		    prize_code = COALESCE($2, prize_code)
		WHERE id = $1
		  AND status = 'pending'
		RETURNING id, user_id, draw_id, prize_name, prize_code, status, delivered_at, created_at
	`

	prize, err := scanPrize(r.q.QueryRow(ctx, query, prizeID, code))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark prize %d delivered: %w", prizeID, err)
	}

	return prize, nil
}

func scanPrize(row pgx.Row) (*models.Prize, error) {
	var prize models.Prize
	err := row.Scan(
		&prize.ID,
		&prize.UserID,
		&prize.DrawID,
		&prize.PrizeName,
		&prize.PrizeCode,
		&prize.Status,
		&prize.DeliveredAt,
		&prize.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &prize, nil
}
