package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	Description     string              `json:"description"`
	Image           string              `json:"image"`
	Price           decimal.Decimal     `json:"price"`
	DiscountedPrice decimal.NullDecimal `json:"discountedPrice"`
	Quantity        int                 `json:"quantity"`
	Category        string              `json:"category"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

// SalePrice is the discounted price when set, the list price otherwise.
func (p Product) SalePrice() decimal.Decimal {
	if p.DiscountedPrice.Valid {
		return p.DiscountedPrice.Decimal
	}
	return p.Price
}

type CreateInput struct {
	Name            string           `json:"name" validate:"required"`
	Description     string           `json:"description"`
	Image           string           `json:"image"`
	Price           decimal.Decimal  `json:"price"`
	DiscountedPrice *decimal.Decimal `json:"discountedPrice"`
	Quantity        int              `json:"quantity" validate:"gte=0"`
	Category        string           `json:"category"`
}
