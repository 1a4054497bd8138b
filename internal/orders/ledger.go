package orders

import (
	"github.com/ariefcatur/go-seller-marketplace/internal/apperr"
	"github.com/shopspring/decimal"
)

// Balance is the financial state of one seller. Both amounts stay >= 0.
type Balance struct {
	Credit      decimal.Decimal
	Pending     decimal.Decimal
	TotalOrders int
}

// Accept reserves amount: credit -= amount, pending += amount.
func (b Balance) Accept(amount decimal.Decimal) (Balance, error) {
	if b.Credit.LessThan(amount) {
		return b, apperr.InsufficientBalance(amount, b.Credit)
	}
	b.Credit = b.Credit.Sub(amount)
	b.Pending = b.Pending.Add(amount)
	return b, nil
}

// Deliver releases the reservation and realizes profit on top of the reserved amount.
func (b Balance) Deliver(total, profit decimal.Decimal) Balance {
	b.Pending = floorZero(b.Pending.Sub(total))
	b.Credit = b.Credit.Add(total).Add(profit)
	b.TotalOrders++
	return b
}

// Refund reverses a reservation that was never delivered.
func (b Balance) Refund(total decimal.Decimal) Balance {
	b.Credit = b.Credit.Add(total)
	b.Pending = floorZero(b.Pending.Sub(total))
	return b
}

func (b Balance) TopUp(amount decimal.Decimal) Balance {
	b.Credit = b.Credit.Add(amount)
	return b
}

func floorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
