package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tokendraw/events"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// SubjectPrizeDelivered is the subject the delivery notifier publishes to.
// The downstream email worker consumes it.
const SubjectPrizeDelivered = "tokendraw.prize.delivered"

// Envelope wraps an event payload for the wire
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// Notifier publishes prize delivery notifications
type Notifier interface {
	NotifyPrizeDelivered(ctx context.Context, event events.PrizeDeliveredEvent) error
	Close()
}

// NATSNotifier publishes delivery notifications to NATS
type NATSNotifier struct {
	nc *nats.Conn
}

// NewNATSNotifier connects to NATS and returns a notifier
func NewNATSNotifier(url string) (*NATSNotifier, error) {
	opts := []nats.Option{
		nats.Name("tokendraw"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Error("NATS disconnected with error")
			} else {
				log.Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSNotifier{nc: nc}, nil
}

// NotifyPrizeDelivered publishes the delivery event for the email worker
func (n *NATSNotifier) NotifyPrizeDelivered(ctx context.Context, event events.PrizeDeliveredEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := Envelope{
		EventID:       uuid.New().String(),
		EventType:     string(event.Type()),
		Timestamp:     time.Now().UTC(),
		SourceService: "tokendraw",
		Payload:       payload,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	if err := n.nc.Publish(SubjectPrizeDelivered, data); err != nil {
		return fmt.Errorf("failed to publish to NATS: %w", err)
	}

	log.WithFields(log.Fields{
		"eventId": envelope.EventID,
		"prizeId": event.PrizeID,
		"subject": SubjectPrizeDelivered,
	}).Debug("Published prize delivery notification")

	return nil
}

// Close drains and closes the NATS connection
func (n *NATSNotifier) Close() {
	if err := n.nc.Drain(); err != nil {
		log.WithError(err).Warn("Failed to drain NATS connection")
	}
}

// NoopNotifier discards notifications. Used when no NATS URL is configured.
type NoopNotifier struct{}

func (NoopNotifier) NotifyPrizeDelivered(ctx context.Context, event events.PrizeDeliveredEvent) error {
	log.WithField("prizeId", event.PrizeID).Debug("Prize delivery notification skipped, NATS not configured")
	return nil
}

func (NoopNotifier) Close() {}

// SubscribeToBus wires the notifier to the in-process event bus. Notification
// failures are logged, never propagated: delivery state already committed.
func SubscribeToBus(bus *events.Bus, notifier Notifier) {
	bus.Subscribe(events.EventTypePrizeDelivered, func(ctx context.Context, event events.Event) {
		delivered, ok := event.(events.PrizeDeliveredEvent)
		if !ok {
			log.Error("Unexpected event type on prize delivered subscription")
			return
		}
		if err := notifier.NotifyPrizeDelivered(ctx, delivered); err != nil {
			log.WithError(err).WithField("prizeId", delivered.PrizeID).
				Error("Failed to publish prize delivery notification")
		}
	})
}
