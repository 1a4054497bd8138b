package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("accept order: %w", Conflict("order already responded"))

	assert.Equal(t, KindConflict, KindOf(err))
	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("boom")))
}

func TestInsufficientBalanceCarriesAmounts(t *testing.T) {
	err := InsufficientBalance(decimal.NewFromInt(160), decimal.NewFromInt(40))

	var e *Error
	assert.True(t, errors.As(err, &e))
	d, ok := e.Details.(BalanceDetails)
	assert.True(t, ok)
	assert.True(t, d.Required.Equal(decimal.NewFromInt(160)))
	assert.True(t, d.Available.Equal(decimal.NewFromInt(40)))
}

func TestNotFoundMessage(t *testing.T) {
	assert.Equal(t, "product not found", NotFound("product").Error())
}
