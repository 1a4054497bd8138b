package orders

import (
	"context"
	"sort"
	"sync"

	"github.com/ariefcatur/go-seller-marketplace/internal/apperr"
	"github.com/ariefcatur/go-seller-marketplace/internal/auth"
	"github.com/ariefcatur/go-seller-marketplace/internal/catalog"
	"github.com/ariefcatur/go-seller-marketplace/internal/users"
	"github.com/shopspring/decimal"
)

// memStore serializes transactions with one mutex and applies their writes only on success.
type memStore struct {
	mu       sync.Mutex
	orders   map[string]Order
	balances map[string]Balance
	seq      int64
}

func newMemStore() *memStore {
	return &memStore{orders: map[string]Order{}, balances: map[string]Balance{}}
}

type memTx struct {
	orders   map[string]Order
	balances map[string]Balance
}

func (m *memStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &memTx{orders: map[string]Order{}, balances: map[string]Balance{}}
	for k, v := range m.orders {
		tx.orders[k] = v
	}
	for k, v := range m.balances {
		tx.balances[k] = v
	}
	if err := fn(tx); err != nil {
		return err
	}
	m.orders, m.balances = tx.orders, tx.balances
	return nil
}

func (m *memStore) Get(ctx context.Context, id string) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (m *memStore) List(ctx context.Context, sellerID string) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Order{}
	for _, o := range m.orders {
		if sellerID == "" || o.SellerID == sellerID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) NextSequence(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return m.seq, nil
}

func (m *memStore) Insert(ctx context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = *o
	return nil
}

func (m *memStore) Aggregate(ctx context.Context, sellerID string) (Aggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var a Aggregate
	for _, o := range m.orders {
		if o.SellerID != sellerID {
			continue
		}
		a.TotalOrders++
		a.TotalRevenue = a.TotalRevenue.Add(o.TotalAmount)
		a.TotalProfit = a.TotalProfit.Add(o.TotalProfit)
		switch o.SellerResponse {
		case ResponsePending:
			a.PendingOrders++
		case ResponseAccepted:
			a.AcceptedOrders++
			if o.Status != StatusDelivered {
				a.PendingOrderAmount = a.PendingOrderAmount.Add(o.TotalAmount)
			}
		case ResponseRejected:
			a.RejectedOrders++
		}
		if o.Status == StatusDelivered {
			a.DeliveredOrders++
			a.AvailableAmount = a.AvailableAmount.Add(o.TotalAmount)
		}
	}
	return a, nil
}

func (m *memStore) balance(id string) Balance {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[id]
}

func (t *memTx) OrderForUpdate(ctx context.Context, id string) (Order, error) {
	o, ok := t.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (t *memTx) BalanceForUpdate(ctx context.Context, sellerID string) (Balance, error) {
	b, ok := t.balances[sellerID]
	if !ok {
		return Balance{}, apperr.NotFound("seller")
	}
	return b, nil
}

func (t *memTx) SaveBalance(ctx context.Context, sellerID string, b Balance) error {
	t.balances[sellerID] = b
	return nil
}

func (t *memTx) SaveOrder(ctx context.Context, o Order) error {
	if _, ok := t.orders[o.ID]; !ok {
		return ErrNotFound
	}
	t.orders[o.ID] = o
	return nil
}

func (t *memTx) DeleteOrder(ctx context.Context, id string) error {
	if _, ok := t.orders[id]; !ok {
		return ErrNotFound
	}
	delete(t.orders, id)
	return nil
}

// stubDirectory serves users and reads balances back from the store.
type stubDirectory struct {
	users map[string]users.User
	store *memStore
}

func (d *stubDirectory) Get(ctx context.Context, id string) (users.User, error) {
	u, ok := d.users[id]
	if !ok {
		return users.User{}, apperr.NotFound("user")
	}
	b := d.store.balance(id)
	u.CreditAmount, u.PendingAmount, u.TotalOrders = b.Credit, b.Pending, b.TotalOrders
	return u, nil
}

type stubCatalog map[string]catalog.Product

func (c stubCatalog) Lookup(ctx context.Context, ids []string) (map[string]catalog.Product, error) {
	out := map[string]catalog.Product{}
	for _, id := range ids {
		if p, ok := c[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type recordedEvent struct {
	Key, Type string
	Payload   any
}

type stubEvents struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (e *stubEvents) Emit(ctx context.Context, key, eventType string, payload any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, recordedEvent{Key: key, Type: eventType, Payload: payload})
	return nil
}

func (e *stubEvents) types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.events))
	for _, ev := range e.events {
		out = append(out, ev.Type)
	}
	return out
}

var (
	adminActor  = auth.Actor{ID: "admin-1", Role: auth.RoleAdmin}
	sellerActor = auth.Actor{ID: "seller-1", Role: auth.RoleSeller}
	otherSeller = auth.Actor{ID: "seller-2", Role: auth.RoleSeller}
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

type fixture struct {
	svc    *Service
	store  *memStore
	events *stubEvents
}

// newFixture: seller-1 approved with the given credit, seller-2 approved, seller-3 not approved,
// product P1 price 100 sold at 80, product P2 price 50 without discount.
func newFixture(credit int64) *fixture {
	store := newMemStore()
	store.balances["seller-1"] = Balance{Credit: dec(credit)}
	store.balances["seller-2"] = Balance{}
	store.balances["seller-3"] = Balance{}
	dir := &stubDirectory{store: store, users: map[string]users.User{
		"admin-1":  {ID: "admin-1", Role: auth.RoleAdmin, Approved: true},
		"seller-1": {ID: "seller-1", Role: auth.RoleSeller, Approved: true},
		"seller-2": {ID: "seller-2", Role: auth.RoleSeller, Approved: true},
		"seller-3": {ID: "seller-3", Role: auth.RoleSeller, Approved: false},
	}}
	cat := stubCatalog{
		"P1": {ID: "P1", Name: "Rice", Price: dec(100), DiscountedPrice: decimal.NewNullDecimal(dec(80))},
		"P2": {ID: "P2", Name: "Oil", Price: dec(50)},
	}
	events := &stubEvents{}
	return &fixture{svc: NewService(store, dir, cat, events), store: store, events: events}
}
