package repository

import (
	"context"
	"fmt"
	"time"

	"tokendraw/database"
	"tokendraw/models"
	"tokendraw/service"

	"github.com/jackc/pgx/v5"
)

const drawColumns = `id, prize_name, prize_subtitle, prize_emoji, prize_type, prize_code,
	       token_cost, max_entries, current_entries, status, starts_at, ends_at,
	       winner_id, winner_username, created_at`

// DrawRepository implements the service.DrawRepository interface
type DrawRepository struct {
	q queryable
}

// NewDrawRepository creates a new draw repository
func NewDrawRepository(db *database.DB) *DrawRepository {
	return &DrawRepository{q: db.Pool}
}

// newDrawRepositoryWithTx creates a new draw repository bound to a transaction
func newDrawRepositoryWithTx(tx queryable) *DrawRepository {
	return &DrawRepository{q: tx}
}

func scanDraw(row pgx.Row) (*models.Draw, error) {
	var draw models.Draw
	err := row.Scan(
		&draw.ID,
		&draw.PrizeName,
		&draw.PrizeSubtitle,
		&draw.PrizeEmoji,
		&draw.PrizeType,
		&draw.PrizeCode,
		&draw.TokenCost,
		&draw.MaxEntries,
		&draw.CurrentEntries,
		&draw.Status,
		&draw.StartsAt,
		&draw.EndsAt,
		&draw.WinnerID,
		&draw.WinnerUsername,
		&draw.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &draw, nil
}

// Create inserts a new draw definition
func (r *DrawRepository) Create(ctx context.Context, draw *models.Draw) error {
	query := `
		INSERT INTO draws (prize_name, prize_subtitle, prize_emoji, prize_type, prize_code,
		                   token_cost, max_entries, status, starts_at, ends_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, current_entries, created_at
	`

	err := r.q.QueryRow(ctx, query,
		draw.PrizeName,
		draw.PrizeSubtitle,
		draw.PrizeEmoji,
		draw.PrizeType,
		draw.PrizeCode,
		draw.TokenCost,
		draw.MaxEntries,
		draw.Status,
		draw.StartsAt,
		draw.EndsAt,
	).Scan(&draw.ID, &draw.CurrentEntries, &draw.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create draw: %w", err)
	}

	return nil
}

// GetByID retrieves a draw by its ID
func (r *DrawRepository) GetByID(ctx context.Context, id int64) (*models.Draw, error) {
	query := `SELECT ` + drawColumns + ` FROM draws WHERE id = $1`

	draw, err := scanDraw(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draw by ID %d: %w", id, err)
	}

	return draw, nil
}

// GetByIDForUpdate retrieves a draw by ID with a row lock, serializing
// concurrent admissions and winner selection on the same draw.
func (r *DrawRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Draw, error) {
	query := `SELECT ` + drawColumns + ` FROM draws WHERE id = $1 FOR UPDATE`

	draw, err := scanDraw(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draw for update by ID %d: %w", id, err)
	}

	return draw, nil
}

// UpdateMetadata updates the admin-editable draw fields. Counters, status and
// winner are owned by the lifecycle operations and are not touched here.
func (r *DrawRepository) UpdateMetadata(ctx context.Context, draw *models.Draw) error {
	query := `
		UPDATE draws
		SET prize_name = $2,
		    prize_subtitle = $3,
		    prize_emoji = $4,
		    prize_type = $5,
		    prize_code = $6,
		    token_cost = $7,
		    max_entries = $8,
		    starts_at = $9,
		    ends_at = $10
		WHERE id = $1
	`

	result, err := r.q.Exec(ctx, query,
		draw.ID,
		draw.PrizeName,
		draw.PrizeSubtitle,
		draw.PrizeEmoji,
		draw.PrizeType,
		draw.PrizeCode,
		draw.TokenCost,
		draw.MaxEntries,
		draw.StartsAt,
		draw.EndsAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update draw %d: %w", draw.ID, err)
	}

	if result.RowsAffected() == 0 {
		return service.ErrDrawNotFound
	}

	return nil
}

// Delete removes a draw definition
func (r *DrawRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.q.Exec(ctx, `DELETE FROM draws WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete draw %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return service.ErrDrawNotFound
	}

	return nil
}

// GetActive returns the active draw ending soonest
func (r *DrawRepository) GetActive(ctx context.Context) (*models.Draw, error) {
	query := `
		SELECT ` + drawColumns + `
		FROM draws
		WHERE status = 'active'
		ORDER BY ends_at ASC
		LIMIT 1
	`

	draw, err := scanDraw(r.q.QueryRow(ctx, query))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active draw: %w", err)
	}

	return draw, nil
}

// ListByStatus returns draws in the given status. Upcoming and active draws
// are ordered by soonest deadline, completed draws newest first.
func (r *DrawRepository) ListByStatus(ctx context.Context, status models.DrawStatus, limit int) ([]*models.Draw, error) {
	order := "ends_at ASC"
	if status == models.DrawStatusCompleted {
		order = "ends_at DESC"
	}

	query := `
		SELECT ` + drawColumns + `
		FROM draws
		WHERE status = $1
		ORDER BY ` + order + `
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list draws with status %s: %w", status, err)
	}
	defer rows.Close()

	return collectDraws(rows)
}

// IncrementEntries adds count entry units to the draw's counter. The guard in
// the predicate keeps the counter at or below max_entries and rejects
// increments on non-active draws, so over-admission is impossible even under
// concurrent callers.
func (r *DrawRepository) IncrementEntries(ctx context.Context, drawID, count int64) error {
	query := `
		UPDATE draws
		SET current_entries = current_entries + $2
		WHERE id = $1
		  AND status = 'active'
		  AND current_entries + $2 <= max_entries
	`

	result, err := r.q.Exec(ctx, query, drawID, count)
	if err != nil {
		return fmt.Errorf("failed to increment entries for draw %d: %w", drawID, err)
	}

	if result.RowsAffected() == 0 {
		return service.ErrCapacityExceeded
	}

	return nil
}

// Activate flips an upcoming draw to active
func (r *DrawRepository) Activate(ctx context.Context, drawID int64) (bool, error) {
	query := `
		UPDATE draws
		SET status = 'active'
		WHERE id = $1
		  AND status = 'upcoming'
	`

	result, err := r.q.Exec(ctx, query, drawID)
	if err != nil {
		return false, fmt.Errorf("failed to activate draw %d: %w", drawID, err)
	}

	return result.RowsAffected() > 0, nil
}

// AssignWinner completes the draw and records the winner. The winner-unset
// condition makes resolution exactly-once: the losing racer sees zero rows
// affected and treats the draw as already resolved.
func (r *DrawRepository) AssignWinner(ctx context.Context, drawID, winnerID int64, winnerUsername string) (bool, error) {
	query := `
		UPDATE draws
		SET status = 'completed', winner_id = $2, winner_username = $3
		WHERE id = $1
		  AND winner_id IS NULL
		  AND status = 'active'
	`

	result, err := r.q.Exec(ctx, query, drawID, winnerID, winnerUsername)
	if err != nil {
		return false, fmt.Errorf("failed to assign winner for draw %d: %w", drawID, err)
	}

	return result.RowsAffected() > 0, nil
}

// CompleteWithoutWinner completes a draw that expired with no entries
func (r *DrawRepository) CompleteWithoutWinner(ctx context.Context, drawID int64) (bool, error) {
	query := `
		UPDATE draws
		SET status = 'completed'
		WHERE id = $1
		  AND winner_id IS NULL
		  AND status = 'active'
	`

	result, err := r.q.Exec(ctx, query, drawID)
	if err != nil {
		return false, fmt.Errorf("failed to complete draw %d: %w", drawID, err)
	}

	return result.RowsAffected() > 0, nil
}

// GetExpiredActive returns active draws with no winner whose deadline passed
func (r *DrawRepository) GetExpiredActive(ctx context.Context, now time.Time) ([]*models.Draw, error) {
	query := `
		SELECT ` + drawColumns + `
		FROM draws
		WHERE status = 'active'
		  AND winner_id IS NULL
		  AND ends_at < $1
		ORDER BY ends_at ASC
	`

	rows, err := r.q.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get expired draws: %w", err)
	}
	defer rows.Close()

	return collectDraws(rows)
}

// GetPendingActivation returns upcoming draws whose start time elapsed
func (r *DrawRepository) GetPendingActivation(ctx context.Context, now time.Time) ([]*models.Draw, error) {
	query := `
		SELECT ` + drawColumns + `
		FROM draws
		WHERE status = 'upcoming'
		  AND starts_at IS NOT NULL
		  AND starts_at <= $1
		ORDER BY starts_at ASC
	`

	rows, err := r.q.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get draws pending activation: %w", err)
	}
	defer rows.Close()

	return collectDraws(rows)
}

func collectDraws(rows pgx.Rows) ([]*models.Draw, error) {
	var draws []*models.Draw
	for rows.Next() {
		draw, err := scanDraw(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan draw: %w", err)
		}
		draws = append(draws, draw)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate draws: %w", err)
	}

	return draws, nil
}
