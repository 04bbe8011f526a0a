package testutil

import (
	"time"

	"tokendraw/models"
)

// CreateTestDraw creates an active test draw with default values
func CreateTestDraw(prizeName string) *models.Draw {
	return &models.Draw{
		PrizeName:  prizeName,
		PrizeType:  "gift_card",
		TokenCost:  10,
		MaxEntries: 100,
		Status:     models.DrawStatusActive,
		EndsAt:     time.Now().Add(24 * time.Hour),
	}
}

// CreateTestDrawWithCapacity creates an active test draw with a specific capacity
func CreateTestDrawWithCapacity(prizeName string, maxEntries int64) *models.Draw {
	draw := CreateTestDraw(prizeName)
	draw.MaxEntries = maxEntries
	return draw
}

// CreateUpcomingTestDraw creates an upcoming test draw starting at the given time
func CreateUpcomingTestDraw(prizeName string, startsAt time.Time) *models.Draw {
	draw := CreateTestDraw(prizeName)
	draw.Status = models.DrawStatusUpcoming
	draw.StartsAt = &startsAt
	draw.EndsAt = startsAt.Add(24 * time.Hour)
	return draw
}

// CreateExpiredTestDraw creates an active test draw whose deadline already passed
func CreateExpiredTestDraw(prizeName string) *models.Draw {
	draw := CreateTestDraw(prizeName)
	draw.EndsAt = time.Now().Add(-time.Hour)
	return draw
}

// CreateTestPrize creates a pending test prize for a winner
func CreateTestPrize(userID, drawID int64, prizeName string) *models.Prize {
	return &models.Prize{
		UserID:    userID,
		DrawID:    drawID,
		PrizeName: prizeName,
		Status:    models.PrizeStatusPending,
	}
}

// CreatePurchaseTransaction creates a completed purchase transaction
func CreatePurchaseTransaction(userID, amount int64) *models.TokenTransaction {
	status := models.PaymentStatusCompleted
	return &models.TokenTransaction{
		UserID:        userID,
		Amount:        amount,
		Kind:          models.TransactionKindPurchase,
		Description:   "Token purchase",
		PaymentStatus: &status,
	}
}

// CreateSpendTransaction creates a spend transaction tied to a draw
func CreateSpendTransaction(userID, amount, drawID int64) *models.TokenTransaction {
	return &models.TokenTransaction{
		UserID:      userID,
		Amount:      -amount,
		Kind:        models.TransactionKindSpend,
		DrawID:      &drawID,
		Description: "Draw entry",
	}
}
