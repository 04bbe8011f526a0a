package service

import "errors"

// Business outcomes surfaced to callers as typed results. These are expected
// conditions, matched with errors.Is, never panics escaping the transaction
// boundary.
var (
	// ErrInvalidAmount is returned when a token amount or entry count is not positive
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrUnknownUser is returned when the referenced user does not exist
	ErrUnknownUser = errors.New("user not found")

	// ErrInsufficientBalance is returned when a debit exceeds the user's balance
	ErrInsufficientBalance = errors.New("insufficient token balance")

	// ErrDrawNotFound is returned when the referenced draw does not exist
	ErrDrawNotFound = errors.New("draw not found")

	// ErrDrawNotActive is returned when entering a draw that is not accepting entries
	ErrDrawNotActive = errors.New("draw is not active")

	// ErrDrawExpired is returned when entering a draw past its deadline
	ErrDrawExpired = errors.New("draw has expired")

	// ErrCapacityExceeded is returned when a request would overflow max entries
	ErrCapacityExceeded = errors.New("draw capacity exceeded")

	// ErrDrawAlreadyResolved is returned when winner selection finds the draw
	// already completed. Callers treat this as benign.
	ErrDrawAlreadyResolved = errors.New("draw already resolved")

	// ErrPrizeNotFound is returned when the referenced prize does not exist
	ErrPrizeNotFound = errors.New("prize not found")

	// ErrPrizeNotPending is returned when delivering a prize that is not pending
	ErrPrizeNotPending = errors.New("prize is not pending")
)
