package events

import (
	"context"
	"sync"

	"tokendraw/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange  EventType = "balance_change"
	EventTypeDrawEntered    EventType = "draw_entered"
	EventTypeDrawCompleted  EventType = "draw_completed"
	EventTypeWinnerSelected EventType = "winner_selected"
	EventTypePrizeDelivered EventType = "prize_delivered"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a committed balance change
type BalanceChangeEvent struct {
	UserID       int64
	NewBalance   int64
	ChangeAmount int64
	Kind         models.TransactionKind
	DrawID       *int64
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// DrawEnteredEvent represents admitted entries into a draw
type DrawEnteredEvent struct {
	DrawID         int64
	UserID         int64
	EntriesAdded   int64
	TotalEntries   int64
	CurrentEntries int64
	CapacityFull   bool
}

func (e DrawEnteredEvent) Type() EventType {
	return EventTypeDrawEntered
}

// DrawCompletedEvent represents a draw reaching its terminal state
type DrawCompletedEvent struct {
	DrawID    int64
	PrizeName string
	WinnerID  *int64 // nil when the draw completed with no entries
}

func (e DrawCompletedEvent) Type() EventType {
	return EventTypeDrawCompleted
}

// WinnerSelectedEvent represents a winner being recorded for a draw
type WinnerSelectedEvent struct {
	DrawID         int64
	WinnerID       int64
	WinnerUsername string
	PrizeID        int64
	PrizeName      string
	TotalTickets   int64
}

func (e WinnerSelectedEvent) Type() EventType {
	return EventTypeWinnerSelected
}

// PrizeDeliveredEvent represents a prize marked as delivered.
// Consumed by the external notification collaborator.
type PrizeDeliveredEvent struct {
	PrizeID     int64
	DrawID      int64
	WinnerEmail string
	WinnerName  string
	PrizeName   string
	PrizeCode   string
}

func (e PrizeDeliveredEvent) Type() EventType {
	return EventTypePrizeDelivered
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds pending events coupled to a unit of work.
// Events are flushed to the underlying bus only after the database
// transaction commits, and discarded on rollback, so subscribers never
// observe uncommitted state.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

// NewTransactionalBus creates a transactional bus wrapping the real bus
func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

// Publish stashes an event until Flush
func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits all pending events. Called after successful commit.
func (b *TransactionalBus) Flush(ctx context.Context) {
	// Events outlive the transaction context
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard drops all pending events. Called after rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
