package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is a priced snapshot of a product at order time.
type Item struct {
	ProductID       string          `json:"productId"`
	Name            string          `json:"name"`
	Quantity        int             `json:"quantity"`
	OriginalPrice   decimal.Decimal `json:"originalPrice"`
	DiscountedPrice decimal.Decimal `json:"discountedPrice"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	Profit          decimal.Decimal `json:"profit"`
}

type Order struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"orderNumber"`
	SellerID        string          `json:"sellerId"`
	CreatedBy       string          `json:"createdBy"`
	Items           []Item          `json:"items"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	TotalProfit     decimal.Decimal `json:"totalProfit"`
	Status          Status          `json:"status"`
	SellerResponse  Response        `json:"sellerResponse"`
	Notes           string          `json:"notes"`
	RejectionReason string          `json:"rejectionReason,omitempty"`
	AcceptedAt      *time.Time      `json:"acceptedAt,omitempty"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// setItems replaces the line items and recomputes the totals from them.
func (o *Order) setItems(items []Item) {
	o.Items = items
	o.TotalAmount = decimal.Zero
	o.TotalProfit = decimal.Zero
	for _, it := range items {
		o.TotalAmount = o.TotalAmount.Add(it.TotalPrice)
		o.TotalProfit = o.TotalProfit.Add(it.Profit)
	}
}

type ItemInput struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type CreateInput struct {
	SellerID string      `json:"sellerId"`
	Items    []ItemInput `json:"items"`
	Notes    string      `json:"notes"`
}

// Patch holds the fields an admin may change; nil means unchanged.
type Patch struct {
	SellerID *string     `json:"sellerId"`
	Items    []ItemInput `json:"items"`
	Notes    *string     `json:"notes"`
}

type ResponseInput struct {
	Response        string `json:"response"`
	RejectionReason string `json:"rejectionReason"`
}

// Aggregate is what the store computes over one seller's orders.
type Aggregate struct {
	TotalOrders        int
	TotalRevenue       decimal.Decimal
	TotalProfit        decimal.Decimal
	PendingOrders      int
	AcceptedOrders     int
	RejectedOrders     int
	DeliveredOrders    int
	PendingOrderAmount decimal.Decimal
	AvailableAmount    decimal.Decimal
}

type Stats struct {
	TotalOrders        int             `json:"totalOrders"`
	TotalRevenue       decimal.Decimal `json:"totalRevenue"`
	TotalProfit        decimal.Decimal `json:"totalProfit"`
	PendingOrders      int             `json:"pendingOrders"`
	AcceptedOrders     int             `json:"acceptedOrders"`
	RejectedOrders     int             `json:"rejectedOrders"`
	DeliveredOrders    int             `json:"deliveredOrders"`
	PendingOrderAmount decimal.Decimal `json:"pendingOrderAmount"`
	AvailableAmount    decimal.Decimal `json:"availableAmount"`
	CreditAmount       decimal.Decimal `json:"creditAmount"`
	PendingAmount      decimal.Decimal `json:"pendingAmount"`
	AvailableBalance   decimal.Decimal `json:"availableBalance"`
}
