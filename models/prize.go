package models

import (
	"time"
)

// PrizeStatus represents the delivery state of a prize
type PrizeStatus string

const (
	PrizeStatusPending   PrizeStatus = "pending"
	PrizeStatusDelivered PrizeStatus = "delivered"
)

// Prize represents the fulfillment record created for a draw's winner.
// At most one prize exists per draw.
type Prize struct {
	ID          int64       `db:"id"`
	UserID      int64       `db:"user_id"`
	DrawID      int64       `db:"draw_id"`
	PrizeName   string      `db:"prize_name"`
	PrizeCode   *string     `db:"prize_code"`
	Status      PrizeStatus `db:"status"`
	DeliveredAt *time.Time  `db:"delivered_at"`
	CreatedAt   time.Time   `db:"created_at"`
}
