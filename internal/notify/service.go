package notify

import (
	"context"
	"fmt"
	"log/slog"

	kafkax "github.com/ariefcatur/go-seller-marketplace/internal/kafka"
	"github.com/ariefcatur/go-seller-marketplace/internal/orders"
	kafkago "github.com/segmentio/kafka-go"
)

// Deduper claims event ids; see redisx.Deduper.
type Deduper interface {
	FirstSeen(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

// Notifier pushes to a user's live streams.
type Notifier interface {
	Emit(ctx context.Context, userID, event string, payload any) error
}

// Service turns order events into pushes for the party that has to act on them.
type Service struct {
	Dedup    Deduper
	Notifier Notifier
	log      *slog.Logger
}

func NewService(dedup Deduper, notifier Notifier) *Service {
	return &Service{Dedup: dedup, Notifier: notifier, log: slog.Default().With("component", "notifier")}
}

// recipient picks who hears about an event: sellers about work assigned to them,
// the creating admin about the seller's answer.
func recipient(eventType string, p orders.OrderEventPayload) string {
	switch eventType {
	case orders.EventOrderAccepted, orders.EventOrderRejected:
		return p.CreatedBy
	case orders.EventOrderCreated, orders.EventOrderStatusChanged, orders.EventOrderDelivered,
		orders.EventOrderUpdated, orders.EventOrderDeleted:
		return p.SellerID
	}
	return ""
}

// HandleOrderEvent is installed as the consumer handler. A returned error leaves the offset
// uncommitted; undecodable messages are logged and skipped.
func (s *Service) HandleOrderEvent(ctx context.Context, m kafkago.Message) error {
	env, err := kafkax.UnmarshalEnvelope(m.Value)
	if err != nil {
		s.log.WarnContext(ctx, "skip message", "offset", m.Offset, "err", err)
		return nil
	}

	var userID string
	var payload any
	switch env.EventType {
	case orders.EventCreditToppedUp:
		p, err := kafkax.UnwrapPayload[orders.CreditPayload](env.Payload)
		if err != nil {
			s.log.WarnContext(ctx, "skip message", "event_id", env.EventID, "err", err)
			return nil
		}
		userID, payload = p.SellerID, p
	default:
		p, err := kafkax.UnwrapPayload[orders.OrderEventPayload](env.Payload)
		if err != nil {
			s.log.WarnContext(ctx, "skip message", "event_id", env.EventID, "err", err)
			return nil
		}
		userID, payload = recipient(env.EventType, p), p
	}
	if userID == "" {
		return nil
	}

	first, err := s.Dedup.FirstSeen(ctx, env.EventID)
	if err != nil {
		return fmt.Errorf("dedup %s: %w", env.EventID, err)
	}
	if !first {
		s.log.DebugContext(ctx, "duplicate event", "event_id", env.EventID)
		return nil
	}

	if err := s.Notifier.Emit(ctx, userID, env.EventType, payload); err != nil {
		if ferr := s.Dedup.Forget(ctx, env.EventID); ferr != nil {
			s.log.WarnContext(ctx, "release dedup claim", "event_id", env.EventID, "err", ferr)
		}
		return fmt.Errorf("notify %s: %w", userID, err)
	}
	s.log.InfoContext(ctx, "notified", "event_type", env.EventType, "event_id", env.EventID, "user_id", userID, "trace_id", env.TraceID)
	return nil
}
