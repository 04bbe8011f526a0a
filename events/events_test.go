package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBus_EmitReachesSubscribers(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	var got []Event
	done := make(chan struct{}, 2)

	handler := func(ctx context.Context, e Event) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
		done <- struct{}{}
	}

	bus.Subscribe(EventTypeBalanceChange, handler)
	bus.Subscribe(EventTypeBalanceChange, handler)
	bus.Subscribe(EventTypeDrawEntered, handler)

	bus.Emit(context.Background(), BalanceChangeEvent{UserID: 1, NewBalance: 10})

	// Both balance subscribers fire, the draw subscriber does not
	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("handler not invoked")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, got, 2)
	for _, e := range got {
		assert.Equal(t, EventTypeBalanceChange, e.Type())
	}
}

func TestBus_HandlerPanicIsContained(t *testing.T) {
	bus := NewBus()

	done := make(chan struct{}, 1)
	bus.Subscribe(EventTypeDrawCompleted, func(ctx context.Context, e Event) {
		panic("boom")
	})
	bus.Subscribe(EventTypeDrawCompleted, func(ctx context.Context, e Event) {
		done <- struct{}{}
	})

	bus.Emit(context.Background(), DrawCompletedEvent{DrawID: 1})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("surviving handler not invoked")
	}
}

func TestTransactionalBus_FlushAndDiscard(t *testing.T) {
	real := NewBus()

	var mu sync.Mutex
	emitted := 0
	done := make(chan struct{}, 4)
	real.Subscribe(EventTypeWinnerSelected, func(ctx context.Context, e Event) {
		mu.Lock()
		emitted++
		mu.Unlock()
		done <- struct{}{}
	})

	txBus := NewTransactionalBus(real)
	txBus.Publish(WinnerSelectedEvent{DrawID: 1})
	txBus.Publish(WinnerSelectedEvent{DrawID: 2})

	// Nothing reaches the real bus before flush
	mu.Lock()
	assert.Zero(t, emitted)
	mu.Unlock()

	txBus.Flush(context.Background())

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("event not flushed")
		}
	}

	// Flush clears the pending list, a second flush emits nothing new
	txBus.Flush(context.Background())
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	assert.Equal(t, 2, emitted)
	mu.Unlock()
}

func TestTransactionalBus_DiscardDropsPending(t *testing.T) {
	real := NewBus()

	var mu sync.Mutex
	emitted := 0
	real.Subscribe(EventTypePrizeDelivered, func(ctx context.Context, e Event) {
		mu.Lock()
		emitted++
		mu.Unlock()
	})

	txBus := NewTransactionalBus(real)
	txBus.Publish(PrizeDeliveredEvent{PrizeID: 1})
	txBus.Discard()
	txBus.Flush(context.Background())

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	assert.Zero(t, emitted)
	mu.Unlock()
}
