package service

import (
	"context"
	"testing"

	"tokendraw/events"
	"tokendraw/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrizeService_MarkDelivered_Success(t *testing.T) {
	ctx := context.Background()

	mockUoW := NewMockUnitOfWork()
	svc := NewPrizeService(NewMockUnitOfWorkFactory(mockUoW))

	code := "GIFT-1234"
	delivered := &models.Prize{
		ID:        3,
		UserID:    42,
		DrawID:    7,
		PrizeName: "Test Prize",
		PrizeCode: &code,
		Status:    models.PrizeStatusDelivered,
	}
	winner := &models.User{ID: 42, Email: "w@x.y", Username: "winner"}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUoW.PrizeRepo.On("MarkDelivered", ctx, int64(3), &code).Return(delivered, nil)
	mockUoW.UserRepo.On("GetByID", ctx, int64(42)).Return(winner, nil)

	prize, err := svc.MarkDelivered(ctx, 3, &code)

	require.NoError(t, err)
	assert.Equal(t, models.PrizeStatusDelivered, prize.Status)

	// Delivery event carries everything the email worker needs
	require.Len(t, mockUoW.Publisher.Events, 1)
	event := mockUoW.Publisher.Events[0].(events.PrizeDeliveredEvent)
	assert.Equal(t, "w@x.y", event.WinnerEmail)
	assert.Equal(t, "winner", event.WinnerName)
	assert.Equal(t, "Test Prize", event.PrizeName)
	assert.Equal(t, "GIFT-1234", event.PrizeCode)

	mockUoW.AssertExpectations(t)
}

func TestPrizeService_MarkDelivered_NotFound(t *testing.T) {
	ctx := context.Background()

	mockUoW := NewMockUnitOfWork()
	svc := NewPrizeService(NewMockUnitOfWorkFactory(mockUoW))

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUoW.PrizeRepo.On("MarkDelivered", ctx, int64(99), (*string)(nil)).Return(nil, nil)
	mockUoW.PrizeRepo.On("GetByID", ctx, int64(99)).Return(nil, nil)

	_, err := svc.MarkDelivered(ctx, 99, nil)

	assert.ErrorIs(t, err, ErrPrizeNotFound)
	assert.Empty(t, mockUoW.Publisher.Events)
}

func TestPrizeService_MarkDelivered_AlreadyDelivered(t *testing.T) {
	ctx := context.Background()

	mockUoW := NewMockUnitOfWork()
	svc := NewPrizeService(NewMockUnitOfWorkFactory(mockUoW))

	existing := &models.Prize{ID: 3, Status: models.PrizeStatusDelivered}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	// Guard rejected the update because the prize left pending already
	mockUoW.PrizeRepo.On("MarkDelivered", ctx, int64(3), (*string)(nil)).Return(nil, nil)
	mockUoW.PrizeRepo.On("GetByID", ctx, int64(3)).Return(existing, nil)

	_, err := svc.MarkDelivered(ctx, 3, nil)

	assert.ErrorIs(t, err, ErrPrizeNotPending)
	assert.Empty(t, mockUoW.Publisher.Events)
	mockUoW.AssertNotCalled(t, "Commit")
}
