package models

import (
	"time"
)

// DrawStatus represents the lifecycle state of a draw
type DrawStatus string

const (
	DrawStatusUpcoming  DrawStatus = "upcoming"
	DrawStatusActive    DrawStatus = "active"
	DrawStatusCompleted DrawStatus = "completed"
)

// Draw represents a time-boxed raffle with a fixed prize, entry cost and capacity
type Draw struct {
	ID             int64      `db:"id"`
	PrizeName      string     `db:"prize_name"`
	PrizeSubtitle  *string    `db:"prize_subtitle"`
	PrizeEmoji     *string    `db:"prize_emoji"`
	PrizeType      string     `db:"prize_type"`
	PrizeCode      *string    `db:"prize_code"`
	TokenCost      int64      `db:"token_cost"`
	MaxEntries     int64      `db:"max_entries"`
	CurrentEntries int64      `db:"current_entries"`
	Status         DrawStatus `db:"status"`
	StartsAt       *time.Time `db:"starts_at"`
	EndsAt         time.Time  `db:"ends_at"`
	WinnerID       *int64     `db:"winner_id"`
	WinnerUsername *string    `db:"winner_username"`
	CreatedAt      time.Time  `db:"created_at"`
}

// IsOpenForEntry reports whether the draw can currently admit entries
func (d *Draw) IsOpenForEntry(now time.Time) bool {
	return d.Status == DrawStatusActive && now.Before(d.EndsAt)
}

// IsResolved reports whether a winner has already been recorded
func (d *Draw) IsResolved() bool {
	return d.WinnerID != nil
}

// RemainingCapacity returns how many entry units the draw can still admit
func (d *Draw) RemainingCapacity() int64 {
	return d.MaxEntries - d.CurrentEntries
}

// ShouldActivate reports whether an upcoming draw's start time has elapsed
func (d *Draw) ShouldActivate(now time.Time) bool {
	return d.Status == DrawStatusUpcoming && d.StartsAt != nil && !now.Before(*d.StartsAt)
}
