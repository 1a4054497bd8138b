package orders

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-seller-marketplace/internal/apperr"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ledgerTx locks the order row, then the seller row (FOR UPDATE) so concurrent
// responses, deliveries and deletes on one seller serialize. Nothing is committed unless InTx's fn succeeds.
type ledgerTx struct{ tx pgx.Tx }

func (t *ledgerTx) OrderForUpdate(ctx context.Context, id string) (Order, error) {
	if uuid.Validate(id) != nil {
		return Order{}, ErrNotFound
	}
	o, err := scanOrder(t.tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return Order{}, err
	}
	if err := loadItems(ctx, t.tx, []*Order{&o}); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (t *ledgerTx) BalanceForUpdate(ctx context.Context, sellerID string) (Balance, error) {
	var b Balance
	err := t.tx.QueryRow(ctx, `
		SELECT credit_amount, pending_amount, total_orders FROM users WHERE id=$1 FOR UPDATE`, sellerID,
	).Scan(&b.Credit, &b.Pending, &b.TotalOrders)
	if errors.Is(err, pgx.ErrNoRows) {
		return Balance{}, apperr.NotFound("seller")
	}
	return b, err
}

func (t *ledgerTx) SaveBalance(ctx context.Context, sellerID string, b Balance) error {
	if b.Credit.IsNegative() || b.Pending.IsNegative() {
		return errors.New("refusing to store negative balance")
	}
	ct, err := t.tx.Exec(ctx, `
		UPDATE users SET credit_amount=$2, pending_amount=$3, total_orders=$4, updated_at=NOW() WHERE id=$1`,
		sellerID, b.Credit, b.Pending, b.TotalOrders)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return apperr.NotFound("seller")
	}
	return nil
}

func (t *ledgerTx) SaveOrder(ctx context.Context, o Order) error {
	ct, err := t.tx.Exec(ctx, `
		UPDATE orders SET seller_id=$2, total_amount=$3, total_profit=$4, status=$5, seller_response=$6, notes=$7,
		       rejection_reason=$8, accepted_at=$9, delivered_at=$10, updated_at=$11
		WHERE id=$1`,
		o.ID, o.SellerID, o.TotalAmount, o.TotalProfit, o.Status, o.SellerResponse, o.Notes, o.RejectionReason,
		o.AcceptedAt, o.DeliveredAt, o.UpdatedAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	if _, err := t.tx.Exec(ctx, `DELETE FROM order_items WHERE order_id=$1`, o.ID); err != nil {
		return err
	}
	return insertItems(ctx, t.tx, o.ID, o.Items)
}

func (t *ledgerTx) DeleteOrder(ctx context.Context, id string) error {
	ct, err := t.tx.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}
