package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ariefcatur/go-seller-marketplace/internal/apperr"
	"github.com/ariefcatur/go-seller-marketplace/internal/auth"
	"github.com/ariefcatur/go-seller-marketplace/internal/users"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// SellerDirectory resolves users; a missing user yields an apperr NotFound error.
type SellerDirectory interface {
	Get(ctx context.Context, id string) (users.User, error)
}

type Service struct {
	store    Store
	sellers  SellerDirectory
	products ProductCatalog
	events   Events
	now      func() time.Time
}

func NewService(store Store, sellers SellerDirectory, products ProductCatalog, events Events) *Service {
	return &Service{store: store, sellers: sellers, products: products, events: events, now: time.Now}
}

func notFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("order")
	}
	return err
}

// resolveSeller checks that id names an approved seller.
func (s *Service) resolveSeller(ctx context.Context, id string) (users.User, error) {
	u, err := s.sellers.Get(ctx, id)
	if apperr.KindOf(err) == apperr.KindNotFound {
		return users.User{}, apperr.Validation("invalid or unapproved seller")
	}
	if err != nil {
		return users.User{}, err
	}
	if u.Role != auth.RoleSeller || !u.Approved {
		return users.User{}, apperr.Validation("invalid or unapproved seller")
	}
	return u, nil
}

func (s *Service) CreateOrder(ctx context.Context, in CreateInput, actor auth.Actor) (Order, error) {
	if !actor.IsAdmin() {
		return Order{}, apperr.Forbidden("only admin can create orders")
	}
	if strings.TrimSpace(in.SellerID) == "" {
		return Order{}, apperr.Validation("sellerId is required")
	}
	if len(in.Items) == 0 {
		return Order{}, apperr.Validation("order must contain at least one item")
	}
	if _, err := s.resolveSeller(ctx, in.SellerID); err != nil {
		return Order{}, err
	}
	items, err := priceItems(ctx, s.products, in.Items)
	if err != nil {
		return Order{}, err
	}

	seq, err := s.store.NextSequence(ctx)
	if err != nil {
		return Order{}, fmt.Errorf("next order sequence: %w", err)
	}
	now := s.now().UTC()
	o := Order{
		ID:             uuid.NewString(),
		OrderNumber:    fmt.Sprintf("ORD-%d-%04d", now.UnixMilli(), seq),
		SellerID:       in.SellerID,
		CreatedBy:      actor.ID,
		Status:         StatusPending,
		SellerResponse: ResponsePending,
		Notes:          strings.TrimSpace(in.Notes),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	o.setItems(items)
	if err := s.store.Insert(ctx, &o); err != nil {
		return Order{}, fmt.Errorf("insert order: %w", err)
	}

	slog.InfoContext(ctx, "order created", "order_id", o.ID, "order_number", o.OrderNumber, "seller_id", o.SellerID,
		"total_amount", o.TotalAmount.String())
	s.emit(ctx, o.ID, EventOrderCreated, payloadFor(o, actor.ID, "", now))
	return o, nil
}

func (s *Service) ListOrders(ctx context.Context, actor auth.Actor) ([]Order, error) {
	if actor.IsAdmin() {
		return s.store.List(ctx, "")
	}
	return s.store.List(ctx, actor.ID)
}

func (s *Service) GetOrder(ctx context.Context, id string, actor auth.Actor) (Order, error) {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return Order{}, notFound(err)
	}
	if !actor.IsAdmin() && o.SellerID != actor.ID {
		return Order{}, apperr.Forbidden("order belongs to another seller")
	}
	return o, nil
}

// SellerOrderResponse records the seller's single accept/reject decision.
// Accepting moves totalAmount from credit to pending in the same transaction as the order write.
func (s *Service) SellerOrderResponse(ctx context.Context, id string, in ResponseInput, actor auth.Actor) (Order, error) {
	if !actor.IsSeller() {
		return Order{}, apperr.Forbidden("only sellers can respond to orders")
	}
	resp, ok := ParseResponse(in.Response)
	if !ok {
		return Order{}, apperr.Validation("response must be accepted or rejected")
	}

	now := s.now().UTC()
	var o Order
	var prev Status
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		if o, err = tx.OrderForUpdate(ctx, id); err != nil {
			return notFound(err)
		}
		if o.SellerID != actor.ID {
			return apperr.Forbidden("order belongs to another seller")
		}
		if o.SellerResponse != ResponsePending {
			return apperr.Conflict("order has already been %s", o.SellerResponse)
		}
		prev = o.Status

		switch resp {
		case ResponseAccepted:
			b, err := tx.BalanceForUpdate(ctx, o.SellerID)
			if err != nil {
				return err
			}
			nb, err := b.Accept(o.TotalAmount)
			if err != nil {
				return err
			}
			if err := tx.SaveBalance(ctx, o.SellerID, nb); err != nil {
				return err
			}
			o.Status = StatusProcessing
			o.AcceptedAt = &now
		case ResponseRejected:
			o.RejectionReason = strings.TrimSpace(in.RejectionReason)
			o.Status = StatusRejected
		}
		o.SellerResponse = resp
		o.UpdatedAt = now
		return tx.SaveOrder(ctx, o)
	})
	if err != nil {
		return Order{}, err
	}

	slog.InfoContext(ctx, "seller responded to order", "order_id", o.ID, "seller_id", o.SellerID, "response", resp,
		"total_amount", o.TotalAmount.String())
	ev := EventOrderAccepted
	if resp == ResponseRejected {
		ev = EventOrderRejected
	}
	s.emit(ctx, o.ID, ev, payloadFor(o, actor.ID, prev, now))
	return o, nil
}

// UpdateOrderStatus applies an admin status change. The first transition into delivered
// releases the reservation and realizes profit; repeating it has no further effect.
func (s *Service) UpdateOrderStatus(ctx context.Context, id, status string, actor auth.Actor) (Order, error) {
	if !actor.IsAdmin() {
		return Order{}, apperr.Forbidden("only admin can update order status")
	}
	next, ok := ParseAdminStatus(status)
	if !ok {
		return Order{}, apperr.Validation("invalid status %q", status)
	}

	now := s.now().UTC()
	var o Order
	var prev Status
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		if o, err = tx.OrderForUpdate(ctx, id); err != nil {
			return notFound(err)
		}
		prev = o.Status
		if !CanTransition(prev, next) {
			return apperr.Conflict("cannot move order from %s to %s", prev, next)
		}
		if next == StatusDelivered && prev != StatusDelivered {
			if o.SellerResponse != ResponseAccepted {
				return apperr.Conflict("order must be accepted by the seller before delivery")
			}
			b, err := tx.BalanceForUpdate(ctx, o.SellerID)
			if err != nil {
				return err
			}
			if err := tx.SaveBalance(ctx, o.SellerID, b.Deliver(o.TotalAmount, o.TotalProfit)); err != nil {
				return err
			}
			o.DeliveredAt = &now
		}
		o.Status = next
		o.UpdatedAt = now
		return tx.SaveOrder(ctx, o)
	})
	if err != nil {
		return Order{}, err
	}

	if prev == next {
		return o, nil
	}
	slog.InfoContext(ctx, "order status changed", "order_id", o.ID, "from", prev, "to", next)
	ev := EventOrderStatusChanged
	if next == StatusDelivered {
		ev = EventOrderDelivered
	}
	s.emit(ctx, o.ID, ev, payloadFor(o, actor.ID, prev, now))
	return o, nil
}

// UpdateOrder edits an order the seller has not accepted yet.
func (s *Service) UpdateOrder(ctx context.Context, id string, p Patch, actor auth.Actor) (Order, error) {
	if !actor.IsAdmin() {
		return Order{}, apperr.Forbidden("only admin can update orders")
	}
	if p.SellerID != nil {
		if _, err := s.resolveSeller(ctx, *p.SellerID); err != nil {
			return Order{}, err
		}
	}
	var items []Item
	if p.Items != nil {
		var err error
		if items, err = priceItems(ctx, s.products, p.Items); err != nil {
			return Order{}, err
		}
	}

	now := s.now().UTC()
	var o Order
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		if o, err = tx.OrderForUpdate(ctx, id); err != nil {
			return notFound(err)
		}
		if o.SellerResponse == ResponseAccepted {
			return apperr.Conflict("cannot update an order that has been accepted")
		}
		if p.SellerID != nil {
			o.SellerID = *p.SellerID
		}
		if items != nil {
			o.setItems(items)
		}
		if p.Notes != nil {
			o.Notes = strings.TrimSpace(*p.Notes)
		}
		o.UpdatedAt = now
		return tx.SaveOrder(ctx, o)
	})
	if err != nil {
		return Order{}, err
	}
	s.emit(ctx, o.ID, EventOrderUpdated, payloadFor(o, actor.ID, "", now))
	return o, nil
}

// DeleteOrder removes an order. An accepted order that was not delivered returns its reservation to credit;
// a delivered order already settled, so nothing is refunded.
func (s *Service) DeleteOrder(ctx context.Context, id string, actor auth.Actor) error {
	if !actor.IsAdmin() {
		return apperr.Forbidden("only admin can delete orders")
	}
	var o Order
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		if o, err = tx.OrderForUpdate(ctx, id); err != nil {
			return notFound(err)
		}
		if o.SellerResponse == ResponseAccepted && o.Status != StatusDelivered {
			b, err := tx.BalanceForUpdate(ctx, o.SellerID)
			if err != nil {
				return err
			}
			if err := tx.SaveBalance(ctx, o.SellerID, b.Refund(o.TotalAmount)); err != nil {
				return err
			}
		}
		return tx.DeleteOrder(ctx, id)
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "order deleted", "order_id", o.ID, "seller_id", o.SellerID, "status", o.Status,
		"seller_response", o.SellerResponse)
	s.emit(ctx, o.ID, EventOrderDeleted, payloadFor(o, actor.ID, "", s.now().UTC()))
	return nil
}

// TopUpCredit adds spendable credit to a seller account.
func (s *Service) TopUpCredit(ctx context.Context, sellerID string, amount decimal.Decimal, actor auth.Actor) (Balance, error) {
	if !actor.IsAdmin() {
		return Balance{}, apperr.Forbidden("only admin can top up credit")
	}
	if !amount.IsPositive() {
		return Balance{}, apperr.Validation("amount must be positive")
	}
	u, err := s.sellers.Get(ctx, sellerID)
	if err != nil {
		return Balance{}, err
	}
	if u.Role != auth.RoleSeller {
		return Balance{}, apperr.NotFound("seller")
	}
	var nb Balance
	err = s.store.InTx(ctx, func(tx Tx) error {
		b, err := tx.BalanceForUpdate(ctx, sellerID)
		if err != nil {
			return err
		}
		nb = b.TopUp(amount)
		return tx.SaveBalance(ctx, sellerID, nb)
	})
	if err != nil {
		return Balance{}, err
	}
	slog.InfoContext(ctx, "seller credit topped up", "seller_id", sellerID, "amount", amount.String(), "credit", nb.Credit.String())
	s.emit(ctx, sellerID, EventCreditToppedUp, CreditPayload{SellerID: sellerID, Amount: amount, Credit: nb.Credit})
	return nb, nil
}

// GetOrderStats is read-only. Sellers may only read their own stats; an empty sellerID means self.
func (s *Service) GetOrderStats(ctx context.Context, sellerID string, actor auth.Actor) (Stats, error) {
	switch {
	case actor.IsSeller() && sellerID == "":
		sellerID = actor.ID
	case actor.IsSeller() && sellerID != actor.ID:
		return Stats{}, apperr.Forbidden("sellers can only view their own stats")
	case sellerID == "":
		return Stats{}, apperr.Validation("sellerId is required")
	}

	var (
		seller users.User
		agg    Aggregate
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		seller, err = s.sellers.Get(gctx, sellerID)
		if apperr.KindOf(err) == apperr.KindNotFound {
			return apperr.NotFound("seller")
		}
		return err
	})
	g.Go(func() error {
		var err error
		agg, err = s.store.Aggregate(gctx, sellerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	return Stats{
		TotalOrders:        agg.TotalOrders,
		TotalRevenue:       agg.TotalRevenue,
		TotalProfit:        agg.TotalProfit,
		PendingOrders:      agg.PendingOrders,
		AcceptedOrders:     agg.AcceptedOrders,
		RejectedOrders:     agg.RejectedOrders,
		DeliveredOrders:    agg.DeliveredOrders,
		PendingOrderAmount: agg.PendingOrderAmount,
		AvailableAmount:    agg.AvailableAmount,
		CreditAmount:       seller.CreditAmount,
		PendingAmount:      seller.PendingAmount,
		AvailableBalance:   agg.AvailableAmount.Sub(seller.PendingAmount),
	}, nil
}
