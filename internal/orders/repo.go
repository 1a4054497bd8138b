package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const orderColumns = `id, order_number, seller_id, created_by, total_amount, total_profit, status, seller_response,
	notes, rejection_reason, accepted_at, delivered_at, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.SellerID, &o.CreatedBy, &o.TotalAmount, &o.TotalProfit, &o.Status,
		&o.SellerResponse, &o.Notes, &o.RejectionReason, &o.AcceptedAt, &o.DeliveredAt, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	return o, err
}

func (r *Repo) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&ledgerTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repo) Get(ctx context.Context, id string) (Order, error) {
	if uuid.Validate(id) != nil {
		return Order{}, ErrNotFound
	}
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if err != nil {
		return Order{}, err
	}
	if err := loadItems(ctx, r.DB, []*Order{&o}); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *Repo) List(ctx context.Context, sellerID string) ([]Order, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if sellerID == "" {
		rows, err = r.DB.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
	} else {
		rows, err = r.DB.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE seller_id=$1 ORDER BY created_at DESC`, sellerID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	ptrs := make([]*Order, len(out))
	for i := range out {
		ptrs[i] = &out[i]
	}
	return out, loadItems(ctx, r.DB, ptrs)
}

func loadItems(ctx context.Context, q querier, os []*Order) error {
	if len(os) == 0 {
		return nil
	}
	byID := make(map[string]*Order, len(os))
	ids := make([]string, 0, len(os))
	for _, o := range os {
		o.Items = []Item{}
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}
	rows, err := q.Query(ctx, `
		SELECT i.order_id, i.product_id, COALESCE(p.name, ''), i.quantity, i.original_price, i.discounted_price,
		       i.total_price, i.profit
		FROM order_items i LEFT JOIN products p ON p.id = i.product_id
		WHERE i.order_id::text = ANY($1)
		ORDER BY i.order_id, i.position`, ids)
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var orderID string
		var it Item
		if err := rows.Scan(&orderID, &it.ProductID, &it.Name, &it.Quantity, &it.OriginalPrice, &it.DiscountedPrice,
			&it.TotalPrice, &it.Profit); err != nil {
			return err
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

func (r *Repo) NextSequence(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRow(ctx, `SELECT nextval('order_number_seq')`).Scan(&n)
	return n, err
}

func (r *Repo) Insert(ctx context.Context, o *Order) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO orders(id, order_number, seller_id, created_by, total_amount, total_profit, status, seller_response,
		                   notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		o.ID, o.OrderNumber, o.SellerID, o.CreatedBy, o.TotalAmount, o.TotalProfit, o.Status, o.SellerResponse,
		o.Notes, o.CreatedAt, o.UpdatedAt,
	); err != nil {
		return err
	}
	if err := insertItems(ctx, tx, o.ID, o.Items); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertItems(ctx context.Context, tx pgx.Tx, orderID string, items []Item) error {
	for i, it := range items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(order_id, position, product_id, quantity, original_price, discounted_price, total_price, profit)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			orderID, i, it.ProductID, it.Quantity, it.OriginalPrice, it.DiscountedPrice, it.TotalPrice, it.Profit,
		); err != nil {
			return fmt.Errorf("insert order item %d: %w", i, err)
		}
	}
	return nil
}

func (r *Repo) Aggregate(ctx context.Context, sellerID string) (Aggregate, error) {
	var a Aggregate
	err := r.DB.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(total_amount), 0),
		       COALESCE(SUM(total_profit), 0),
		       COUNT(*) FILTER (WHERE seller_response = 'pending'),
		       COUNT(*) FILTER (WHERE seller_response = 'accepted'),
		       COUNT(*) FILTER (WHERE seller_response = 'rejected'),
		       COUNT(*) FILTER (WHERE status = 'delivered'),
		       COALESCE(SUM(total_amount) FILTER (WHERE seller_response = 'accepted' AND status <> 'delivered'), 0),
		       COALESCE(SUM(total_amount) FILTER (WHERE status = 'delivered'), 0)
		FROM orders WHERE seller_id = $1`, sellerID,
	).Scan(&a.TotalOrders, &a.TotalRevenue, &a.TotalProfit, &a.PendingOrders, &a.AcceptedOrders, &a.RejectedOrders,
		&a.DeliveredOrders, &a.PendingOrderAmount, &a.AvailableAmount)
	return a, err
}
