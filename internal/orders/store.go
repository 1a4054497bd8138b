package orders

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("order not found")

// Store persists orders. Every balance change runs inside InTx together with the order write.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
	Get(ctx context.Context, id string) (Order, error)
	// List returns orders newest first; sellerID "" lists every order.
	List(ctx context.Context, sellerID string) ([]Order, error)
	NextSequence(ctx context.Context) (int64, error)
	Insert(ctx context.Context, o *Order) error
	Aggregate(ctx context.Context, sellerID string) (Aggregate, error)
}

// Tx locks rows it reads until the surrounding InTx returns.
type Tx interface {
	OrderForUpdate(ctx context.Context, id string) (Order, error)
	BalanceForUpdate(ctx context.Context, sellerID string) (Balance, error)
	SaveBalance(ctx context.Context, sellerID string, b Balance) error
	SaveOrder(ctx context.Context, o Order) error
	DeleteOrder(ctx context.Context, id string) error
}
