package service

import (
	"context"
	"fmt"

	"tokendraw/events"
	"tokendraw/models"

	log "github.com/sirupsen/logrus"
)

type tokenLedgerService struct {
	uowFactory UnitOfWorkFactory
}

// NewTokenLedgerService creates a new token ledger service
func NewTokenLedgerService(uowFactory UnitOfWorkFactory) TokenLedgerService {
	return &tokenLedgerService{
		uowFactory: uowFactory,
	}
}

func (s *tokenLedgerService) RegisterUser(ctx context.Context, email, username string) (*models.User, error) {
	if email == "" || username == "" {
		return nil, fmt.Errorf("email and username are required")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	// Registration is idempotent on email
	existing, err := uow.UserRepository().GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	user, err := uow.UserRepository().Create(ctx, email, username)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":   user.ID,
		"username": user.Username,
	}).Info("Registered new user")

	return user, nil
}

func (s *tokenLedgerService) PurchaseTokens(ctx context.Context, userID, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	newBalance, err := uow.UserRepository().AddTokens(ctx, userID, amount)
	if err != nil {
		return 0, err
	}

	// Settlement happened before this credit reaches the ledger
	paymentStatus := models.PaymentStatusCompleted
	txn := &models.TokenTransaction{
		UserID:        userID,
		Amount:        amount,
		Kind:          models.TransactionKindPurchase,
		Description:   fmt.Sprintf("Purchased %d tokens", amount),
		PaymentStatus: &paymentStatus,
	}
	if err := uow.TransactionRepository().Record(ctx, txn); err != nil {
		return 0, fmt.Errorf("failed to record purchase: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:       userID,
		NewBalance:   newBalance,
		ChangeAmount: amount,
		Kind:         models.TransactionKindPurchase,
	})

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":     userID,
		"amount":     amount,
		"newBalance": newBalance,
	}).Info("Credited token purchase")

	return newBalance, nil
}

func (s *tokenLedgerService) Refund(ctx context.Context, userID, amount int64, drawID int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	newBalance, err := uow.UserRepository().AddTokens(ctx, userID, amount)
	if err != nil {
		return 0, err
	}

	txn := &models.TokenTransaction{
		UserID:      userID,
		Amount:      amount,
		Kind:        models.TransactionKindRefund,
		DrawID:      &drawID,
		Description: fmt.Sprintf("Refund for draw %d", drawID),
	}
	if err := uow.TransactionRepository().Record(ctx, txn); err != nil {
		return 0, fmt.Errorf("failed to record refund: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:       userID,
		NewBalance:   newBalance,
		ChangeAmount: amount,
		Kind:         models.TransactionKindRefund,
		DrawID:       &drawID,
	})

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID": userID,
		"amount": amount,
		"drawID": drawID,
	}).Info("Refunded tokens")

	return newBalance, nil
}

func (s *tokenLedgerService) GetBalance(ctx context.Context, userID int64) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return 0, ErrUnknownUser
	}

	return user.TokenBalance, nil
}

func (s *tokenLedgerService) ListTransactions(ctx context.Context, userID int64, limit int) ([]*models.TokenTransaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUnknownUser
	}

	txns, err := uow.TransactionRepository().GetByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	return txns, nil
}
