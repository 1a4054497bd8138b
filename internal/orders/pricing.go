package orders

import (
	"context"
	"fmt"

	"github.com/ariefcatur/go-seller-marketplace/internal/apperr"
	"github.com/ariefcatur/go-seller-marketplace/internal/catalog"
	"github.com/shopspring/decimal"
)

type ProductCatalog interface {
	Lookup(ctx context.Context, ids []string) (map[string]catalog.Product, error)
}

// priceItems snapshots pricing for each requested item. Quantity 0 means 1.
func priceItems(ctx context.Context, products ProductCatalog, in []ItemInput) ([]Item, error) {
	if len(in) == 0 {
		return nil, apperr.Validation("order must contain at least one item")
	}
	ids := make([]string, 0, len(in))
	for _, it := range in {
		if it.ProductID == "" {
			return nil, apperr.Validation("productId is required for every item")
		}
		if it.Quantity < 0 {
			return nil, apperr.Validation("quantity must be at least 1")
		}
		ids = append(ids, it.ProductID)
	}
	found, err := products.Lookup(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("lookup products: %w", err)
	}

	items := make([]Item, 0, len(in))
	for _, it := range in {
		p, ok := found[it.ProductID]
		if !ok {
			return nil, apperr.NotFound("product " + it.ProductID)
		}
		qty := it.Quantity
		if qty == 0 {
			qty = 1
		}
		q := decimal.NewFromInt(int64(qty))
		sale := p.SalePrice()
		items = append(items, Item{
			ProductID:       p.ID,
			Name:            p.Name,
			Quantity:        qty,
			OriginalPrice:   p.Price,
			DiscountedPrice: sale,
			TotalPrice:      sale.Mul(q),
			Profit:          p.Price.Sub(sale).Mul(q),
		})
	}
	return items, nil
}
