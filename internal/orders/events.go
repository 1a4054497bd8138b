package orders

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderAccepted      = "order.accepted"
	EventOrderRejected      = "order.rejected"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderDelivered     = "order.delivered"
	EventOrderUpdated       = "order.updated"
	EventOrderDeleted       = "order.deleted"
	EventCreditToppedUp     = "seller.credit_topped_up"
)

// Events publishes domain events. Delivery is best effort; the database stays the source of truth.
type Events interface {
	Emit(ctx context.Context, key, eventType string, payload any) error
}

// OrderEventPayload is shared by every order lifecycle event.
type OrderEventPayload struct {
	OrderID        string          `json:"order_id"`
	OrderNumber    string          `json:"order_number"`
	SellerID       string          `json:"seller_id"`
	CreatedBy      string          `json:"created_by"`
	ActorID        string          `json:"actor_id"`
	Status         Status          `json:"status"`
	PreviousStatus Status          `json:"previous_status,omitempty"`
	SellerResponse Response        `json:"seller_response"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	TotalProfit    decimal.Decimal `json:"total_profit"`
	Reason         string          `json:"reason,omitempty"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

type CreditPayload struct {
	SellerID string          `json:"seller_id"`
	Amount   decimal.Decimal `json:"amount"`
	Credit   decimal.Decimal `json:"credit"`
}

func payloadFor(o Order, actorID string, prev Status, at time.Time) OrderEventPayload {
	return OrderEventPayload{
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		SellerID:       o.SellerID,
		CreatedBy:      o.CreatedBy,
		ActorID:        actorID,
		Status:         o.Status,
		PreviousStatus: prev,
		SellerResponse: o.SellerResponse,
		TotalAmount:    o.TotalAmount,
		TotalProfit:    o.TotalProfit,
		Reason:         o.RejectionReason,
		OccurredAt:     at,
	}
}

func (s *Service) emit(ctx context.Context, key, eventType string, payload any) {
	if s.events == nil {
		return
	}
	if err := s.events.Emit(ctx, key, eventType, payload); err != nil {
		slog.WarnContext(ctx, "publish event", "event_type", eventType, "key", key, "err", err)
	}
}
