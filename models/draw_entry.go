package models

import (
	"time"
)

// DrawEntry represents a user's accumulated entries in one draw.
// Repeat entries by the same user accumulate into a single row.
type DrawEntry struct {
	ID           int64     `db:"id"`
	DrawID       int64     `db:"draw_id"`
	UserID       int64     `db:"user_id"`
	EntriesCount int64     `db:"entries_count"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}
