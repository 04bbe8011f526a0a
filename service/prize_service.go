package service

import (
	"context"
	"fmt"

	"tokendraw/events"
	"tokendraw/models"

	log "github.com/sirupsen/logrus"
)

type prizeService struct {
	uowFactory UnitOfWorkFactory
}

// NewPrizeService creates a new prize fulfillment service
func NewPrizeService(uowFactory UnitOfWorkFactory) PrizeService {
	return &prizeService{
		uowFactory: uowFactory,
	}
}

// MarkDelivered flips a pending prize to delivered and publishes the delivery
// event for the notification collaborator. Delivery is one-way: a prize
// already delivered returns ErrPrizeNotPending.
func (s *prizeService) MarkDelivered(ctx context.Context, prizeID int64, code *string) (*models.Prize, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	prize, err := uow.PrizeRepository().MarkDelivered(ctx, prizeID, code)
	if err != nil {
		return nil, err
	}
	if prize == nil {
		// Guard rejected: distinguish missing from already delivered
		existing, getErr := uow.PrizeRepository().GetByID(ctx, prizeID)
		if getErr != nil {
			return nil, fmt.Errorf("failed to check prize: %w", getErr)
		}
		if existing == nil {
			return nil, ErrPrizeNotFound
		}
		return nil, ErrPrizeNotPending
	}

	winner, err := uow.UserRepository().GetByID(ctx, prize.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get winner: %w", err)
	}
	if winner == nil {
		return nil, fmt.Errorf("winner %d not found for prize %d", prize.UserID, prizeID)
	}

	var prizeCode string
	if prize.PrizeCode != nil {
		prizeCode = *prize.PrizeCode
	}

	uow.EventBus().Publish(events.PrizeDeliveredEvent{
		PrizeID:     prize.ID,
		DrawID:      prize.DrawID,
		WinnerEmail: winner.Email,
		WinnerName:  winner.Username,
		PrizeName:   prize.PrizeName,
		PrizeCode:   prizeCode,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"prizeID": prizeID,
		"drawID":  prize.DrawID,
		"winner":  winner.Username,
	}).Info("Marked prize delivered")

	return prize, nil
}

func (s *prizeService) ListPrizes(ctx context.Context, limit int) ([]*models.Prize, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	return uow.PrizeRepository().List(ctx, limit)
}

func (s *prizeService) GetPrizeByDraw(ctx context.Context, drawID int64) (*models.Prize, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	return uow.PrizeRepository().GetByDraw(ctx, drawID)
}
