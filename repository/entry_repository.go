package repository

import (
	"context"
	"fmt"

	"tokendraw/database"
	"tokendraw/models"

	"github.com/jackc/pgx/v5"
)

// EntryRepository implements the service.EntryRepository interface
type EntryRepository struct {
	q queryable
}

// NewEntryRepository creates a new entry repository
func NewEntryRepository(db *database.DB) *EntryRepository {
	return &EntryRepository{q: db.Pool}
}

// newEntryRepositoryWithTx creates a new entry repository bound to a transaction
func newEntryRepositoryWithTx(tx queryable) *EntryRepository {
	return &EntryRepository{q: tx}
}

// Upsert creates the (draw, user) row or accumulates entries_count into the
// existing one. One row per participant per draw.
func (r *EntryRepository) Upsert(ctx context.Context, drawID, userID, count int64) (*models.DrawEntry, error) {
	query := `
		INSERT INTO draw_entries (draw_id, user_id, entries_count)
		VALUES ($1, $2, $3)
		ON CONFLICT (draw_id, user_id)
		DO UPDATE SET entries_count = draw_entries.entries_count + EXCLUDED.entries_count,
		              updated_at = NOW()
		RETURNING id, draw_id, user_id, entries_count, created_at, updated_at
	`

	var entry models.DrawEntry
	err := r.q.QueryRow(ctx, query, drawID, userID, count).Scan(
		&entry.ID,
		&entry.DrawID,
		&entry.UserID,
		&entry.EntriesCount,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert entry for user %d in draw %d: %w", userID, drawID, err)
	}

	return &entry, nil
}

// GetByDrawAndUser returns the entry row for a participant
func (r *EntryRepository) GetByDrawAndUser(ctx context.Context, drawID, userID int64) (*models.DrawEntry, error) {
	query := `
		SELECT id, draw_id, user_id, entries_count, created_at, updated_at
		FROM draw_entries
		WHERE draw_id = $1 AND user_id = $2
	`

	var entry models.DrawEntry
	err := r.q.QueryRow(ctx, query, drawID, userID).Scan(
		&entry.ID,
		&entry.DrawID,
		&entry.UserID,
		&entry.EntriesCount,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry for user %d in draw %d: %w", userID, drawID, err)
	}

	return &entry, nil
}

// ListByDraw returns all entries for a draw in stable creation order, the
// ordering winner selection maps ticket indexes against.
func (r *EntryRepository) ListByDraw(ctx context.Context, drawID int64) ([]*models.DrawEntry, error) {
	query := `
		SELECT id, draw_id, user_id, entries_count, created_at, updated_at
		FROM draw_entries
		WHERE draw_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.q.Query(ctx, query, drawID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries for draw %d: %w", drawID, err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

// ListByUser returns all entries for a user
func (r *EntryRepository) ListByUser(ctx context.Context, userID int64) ([]*models.DrawEntry, error) {
	query := `
		SELECT id, draw_id, user_id, entries_count, created_at, updated_at
		FROM draw_entries
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries for user %d: %w", userID, err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

// SumByDraw returns the total entry units recorded for a draw
func (r *EntryRepository) SumByDraw(ctx context.Context, drawID int64) (int64, error) {
	query := `
		SELECT COALESCE(SUM(entries_count), 0)
		FROM draw_entries
		WHERE draw_id = $1
	`

	var sum int64
	err := r.q.QueryRow(ctx, query, drawID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum entries for draw %d: %w", drawID, err)
	}

	return sum, nil
}

func collectEntries(rows pgx.Rows) ([]*models.DrawEntry, error) {
	var entries []*models.DrawEntry
	for rows.Next() {
		var entry models.DrawEntry
		err := rows.Scan(
			&entry.ID,
			&entry.DrawID,
			&entry.UserID,
			&entry.EntriesCount,
			&entry.CreatedAt,
			&entry.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}

	return entries, nil
}
