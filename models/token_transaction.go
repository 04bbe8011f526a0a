package models

import (
	"time"
)

// TransactionKind represents the type of balance change
type TransactionKind string

const (
	TransactionKindPurchase TransactionKind = "purchase"
	TransactionKindSpend    TransactionKind = "spend"
	TransactionKindRefund   TransactionKind = "refund"
)

// PaymentStatusCompleted marks a purchase whose settlement was authorized
// externally before the credit reached the ledger.
const PaymentStatusCompleted = "completed"

// TokenTransaction represents an append-only balance-affecting event.
// The signed sum of a user's transactions always equals their cached balance.
type TokenTransaction struct {
	ID            int64           `db:"id"`
	UserID        int64           `db:"user_id"`
	Amount        int64           `db:"amount"` // signed: positive credit, negative debit
	Kind          TransactionKind `db:"kind"`
	DrawID        *int64          `db:"draw_id"`
	Description   string          `db:"description"`
	PaymentStatus *string         `db:"payment_status"`
	CreatedAt     time.Time       `db:"created_at"`
}
