package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"tokendraw/events"
	"tokendraw/models"

	log "github.com/sirupsen/logrus"
)

type drawService struct {
	uowFactory UnitOfWorkFactory
}

// NewDrawService creates a new draw lifecycle service
func NewDrawService(uowFactory UnitOfWorkFactory) DrawService {
	return &drawService{
		uowFactory: uowFactory,
	}
}

// EnterDraw admits entriesCount entries for the user or rejects the whole
// request. Balance debit, entry accumulation, counter increment and the
// ledger row all land in one transaction; the draw row is locked first so
// concurrent admissions serialize instead of double-admitting on stale reads.
func (s *drawService) EnterDraw(ctx context.Context, userID, drawID, entriesCount int64) (*EntryResult, error) {
	if entriesCount <= 0 {
		return nil, ErrInvalidAmount
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	draw, err := uow.DrawRepository().GetByIDForUpdate(ctx, drawID)
	if err != nil {
		return nil, fmt.Errorf("failed to get draw: %w", err)
	}
	if draw == nil {
		return nil, ErrDrawNotFound
	}

	now := time.Now()
	if draw.Status != models.DrawStatusActive {
		return nil, ErrDrawNotActive
	}
	if !now.Before(draw.EndsAt) {
		return nil, ErrDrawExpired
	}
	if entriesCount > draw.RemainingCapacity() {
		return nil, ErrCapacityExceeded
	}

	cost := draw.TokenCost * entriesCount

	newBalance, err := uow.UserRepository().DeductTokens(ctx, userID, cost)
	if err != nil {
		return nil, err
	}

	entry, err := uow.EntryRepository().Upsert(ctx, drawID, userID, entriesCount)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert entry: %w", err)
	}

	// The guard re-checks capacity inside the update, so even if two
	// admissions both passed the check above only one can land the last slot.
	if err := uow.DrawRepository().IncrementEntries(ctx, drawID, entriesCount); err != nil {
		return nil, err
	}

	txn := &models.TokenTransaction{
		UserID:      userID,
		Amount:      -cost,
		Kind:        models.TransactionKindSpend,
		DrawID:      &drawID,
		Description: fmt.Sprintf("Draw entry (x%d)", entriesCount),
	}
	if err := uow.TransactionRepository().Record(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to record entry spend: %w", err)
	}

	currentEntries := draw.CurrentEntries + entriesCount
	capacityFull := currentEntries >= draw.MaxEntries

	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:       userID,
		NewBalance:   newBalance,
		ChangeAmount: -cost,
		Kind:         models.TransactionKindSpend,
		DrawID:       &drawID,
	})
	uow.EventBus().Publish(events.DrawEnteredEvent{
		DrawID:         drawID,
		UserID:         userID,
		EntriesAdded:   entriesCount,
		TotalEntries:   entry.EntriesCount,
		CurrentEntries: currentEntries,
		CapacityFull:   capacityFull,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":         userID,
		"drawID":         drawID,
		"entries":        entriesCount,
		"currentEntries": currentEntries,
	}).Info("Admitted draw entries")

	// Capacity triggers resolution. Runs in its own transaction after the
	// admission commits; if it fails the expiry sweep resolves the draw later.
	if capacityFull {
		if _, err := s.SelectWinner(ctx, drawID); err != nil && err != ErrDrawAlreadyResolved {
			log.WithError(err).WithField("drawID", drawID).
				Error("Failed to select winner after capacity fill, sweep will retry")
		}
	}

	return &EntryResult{
		TotalEntries: entry.EntriesCount,
		NewBalance:   newBalance,
	}, nil
}

// SelectWinner closes the draw and picks exactly one winner, weighted by each
// participant's entry count. Resolving an already resolved draw returns
// ErrDrawAlreadyResolved, never a second winner.
func (s *drawService) SelectWinner(ctx context.Context, drawID int64) (*models.Draw, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	draw, err := uow.DrawRepository().GetByIDForUpdate(ctx, drawID)
	if err != nil {
		return nil, fmt.Errorf("failed to get draw: %w", err)
	}
	if draw == nil {
		return nil, ErrDrawNotFound
	}
	if draw.IsResolved() || draw.Status == models.DrawStatusCompleted {
		return nil, ErrDrawAlreadyResolved
	}

	entries, err := uow.EntryRepository().ListByDraw(ctx, drawID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	if len(entries) == 0 {
		updated, err := uow.DrawRepository().CompleteWithoutWinner(ctx, drawID)
		if err != nil {
			return nil, err
		}
		if !updated {
			return nil, ErrDrawAlreadyResolved
		}

		uow.EventBus().Publish(events.DrawCompletedEvent{
			DrawID:    drawID,
			PrizeName: draw.PrizeName,
		})

		if err := uow.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}

		log.WithField("drawID", drawID).Info("Completed draw with no entries")

		draw.Status = models.DrawStatusCompleted
		return draw, nil
	}

	winner, totalTickets, err := pickWeightedWinner(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to pick winner: %w", err)
	}

	winnerUser, err := uow.UserRepository().GetByID(ctx, winner.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get winning user: %w", err)
	}
	if winnerUser == nil {
		return nil, fmt.Errorf("winning user %d not found", winner.UserID)
	}

	updated, err := uow.DrawRepository().AssignWinner(ctx, drawID, winnerUser.ID, winnerUser.Username)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, ErrDrawAlreadyResolved
	}

	prize := &models.Prize{
		UserID:    winnerUser.ID,
		DrawID:    drawID,
		PrizeName: draw.PrizeName,
		PrizeCode: draw.PrizeCode,
		Status:    models.PrizeStatusPending,
	}
	if err := uow.PrizeRepository().Create(ctx, prize); err != nil {
		return nil, fmt.Errorf("failed to create prize: %w", err)
	}

	uow.EventBus().Publish(events.WinnerSelectedEvent{
		DrawID:         drawID,
		WinnerID:       winnerUser.ID,
		WinnerUsername: winnerUser.Username,
		PrizeID:        prize.ID,
		PrizeName:      draw.PrizeName,
		TotalTickets:   totalTickets,
	})
	uow.EventBus().Publish(events.DrawCompletedEvent{
		DrawID:    drawID,
		PrizeName: draw.PrizeName,
		WinnerID:  &winnerUser.ID,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"drawID":       drawID,
		"winnerID":     winnerUser.ID,
		"winner":       winnerUser.Username,
		"totalTickets": totalTickets,
	}).Info("Selected draw winner")

	draw.Status = models.DrawStatusCompleted
	draw.WinnerID = &winnerUser.ID
	draw.WinnerUsername = &winnerUser.Username
	return draw, nil
}

// pickWeightedWinner maps each entry's count onto a contiguous ticket range
// and draws one ticket with crypto/rand. Entries arrive in stable creation
// order so the mapping is deterministic for a given ticket number.
func pickWeightedWinner(entries []*models.DrawEntry) (*models.DrawEntry, int64, error) {
	var totalTickets int64
	for _, e := range entries {
		totalTickets += e.EntriesCount
	}
	if totalTickets <= 0 {
		return nil, 0, fmt.Errorf("no tickets to draw from")
	}

	n, err := rand.Int(rand.Reader, big.NewInt(totalTickets))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to generate random ticket: %w", err)
	}
	ticket := n.Int64()

	var cumulative int64
	for _, e := range entries {
		cumulative += e.EntriesCount
		if ticket < cumulative {
			return e, totalTickets, nil
		}
	}

	// Unreachable: ticket < totalTickets == cumulative after the loop
	return entries[len(entries)-1], totalTickets, nil
}

// SweepExpiredDraws activates upcoming draws whose start time elapsed and
// resolves every expired active draw. Idempotent: concurrent sweeps or a
// sweep racing the capacity trigger settle on exactly one winner per draw.
func (s *drawService) SweepExpiredDraws(ctx context.Context) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	now := time.Now()

	pending, err := uow.DrawRepository().GetPendingActivation(ctx, now)
	if err != nil {
		uow.Rollback()
		return fmt.Errorf("failed to get draws pending activation: %w", err)
	}
	expired, err := uow.DrawRepository().GetExpiredActive(ctx, now)
	if err != nil {
		uow.Rollback()
		return fmt.Errorf("failed to get expired draws: %w", err)
	}
	uow.Rollback()

	for _, draw := range pending {
		if err := s.ActivateDraw(ctx, draw.ID); err != nil {
			log.WithError(err).WithField("drawID", draw.ID).Error("Failed to activate draw")
		}
	}

	for _, draw := range expired {
		_, err := s.SelectWinner(ctx, draw.ID)
		if err == ErrDrawAlreadyResolved {
			continue
		}
		if err != nil {
			log.WithError(err).WithField("drawID", draw.ID).Error("Failed to resolve expired draw")
		}
	}

	return nil
}

func (s *drawService) ActivateDraw(ctx context.Context, drawID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	draw, err := uow.DrawRepository().GetByID(ctx, drawID)
	if err != nil {
		return fmt.Errorf("failed to get draw: %w", err)
	}
	if draw == nil {
		return ErrDrawNotFound
	}

	activated, err := uow.DrawRepository().Activate(ctx, drawID)
	if err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	if activated {
		log.WithField("drawID", drawID).Info("Activated draw")
	}

	return nil
}

func (s *drawService) CreateDraw(ctx context.Context, draw *models.Draw) (*models.Draw, error) {
	if err := validateDraw(draw); err != nil {
		return nil, err
	}
	if draw.Status == "" {
		draw.Status = models.DrawStatusUpcoming
	}
	if draw.Status != models.DrawStatusUpcoming && draw.Status != models.DrawStatusActive {
		return nil, fmt.Errorf("new draws must be upcoming or active")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	if err := uow.DrawRepository().Create(ctx, draw); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"drawID": draw.ID,
		"prize":  draw.PrizeName,
	}).Info("Created draw")

	return draw, nil
}

func (s *drawService) UpdateDraw(ctx context.Context, draw *models.Draw) (*models.Draw, error) {
	if err := validateDraw(draw); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	existing, err := uow.DrawRepository().GetByIDForUpdate(ctx, draw.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get draw: %w", err)
	}
	if existing == nil {
		return nil, ErrDrawNotFound
	}
	if existing.IsResolved() || existing.Status == models.DrawStatusCompleted {
		return nil, ErrDrawAlreadyResolved
	}
	if draw.MaxEntries < existing.CurrentEntries {
		return nil, fmt.Errorf("max entries %d below current entries %d", draw.MaxEntries, existing.CurrentEntries)
	}

	if err := uow.DrawRepository().UpdateMetadata(ctx, draw); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return s.GetDraw(ctx, draw.ID)
}

func (s *drawService) DeleteDraw(ctx context.Context, drawID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	if err := uow.DrawRepository().Delete(ctx, drawID); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("drawID", drawID).Info("Deleted draw")

	return nil
}

// GetDraw returns a draw by ID
func (s *drawService) GetDraw(ctx context.Context, drawID int64) (*models.Draw, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	draw, err := uow.DrawRepository().GetByID(ctx, drawID)
	if err != nil {
		return nil, fmt.Errorf("failed to get draw: %w", err)
	}
	if draw == nil {
		return nil, ErrDrawNotFound
	}

	return draw, nil
}

func (s *drawService) GetActiveDraw(ctx context.Context) (*models.Draw, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	return uow.DrawRepository().GetActive(ctx)
}

func (s *drawService) ListUpcomingDraws(ctx context.Context) ([]*models.Draw, error) {
	return s.listByStatus(ctx, models.DrawStatusUpcoming)
}

func (s *drawService) ListCompletedDraws(ctx context.Context) ([]*models.Draw, error) {
	return s.listByStatus(ctx, models.DrawStatusCompleted)
}

func (s *drawService) listByStatus(ctx context.Context, status models.DrawStatus) ([]*models.Draw, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	return uow.DrawRepository().ListByStatus(ctx, status, 50)
}

func (s *drawService) ListUserEntries(ctx context.Context, userID int64) ([]*models.DrawEntry, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	return uow.EntryRepository().ListByUser(ctx, userID)
}

func validateDraw(draw *models.Draw) error {
	if draw.PrizeName == "" {
		return fmt.Errorf("prize name is required")
	}
	if draw.TokenCost <= 0 {
		return fmt.Errorf("token cost must be positive")
	}
	if draw.MaxEntries <= 0 {
		return fmt.Errorf("max entries must be positive")
	}
	if draw.EndsAt.IsZero() {
		return fmt.Errorf("end time is required")
	}
	if draw.StartsAt != nil && !draw.StartsAt.Before(draw.EndsAt) {
		return fmt.Errorf("start time must be before end time")
	}
	return nil
}
