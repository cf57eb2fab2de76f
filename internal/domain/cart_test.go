package domain

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCartTotals_ExactDecimal(t *testing.T) {
	cart := &Cart{Entries: []CartEntry{
		{Product: Product{ID: 1, Price: decimal.RequireFromString("7990.00")}, Quantity: 1},
		{Product: Product{ID: 2, Price: decimal.RequireFromString("3590.00")}, Quantity: 2},
	}}

	assert.Equal(t, 3, cart.TotalQuantity())
	assert.True(t, cart.TotalAmount().Equal(decimal.RequireFromString("15170.00")))
	assert.Equal(t, "15170.00", cart.TotalAmount().StringFixed(2))
}

func TestCartTotals_NoFloatDrift(t *testing.T) {
	cart := &Cart{Entries: []CartEntry{
		{Product: Product{ID: 1, Price: decimal.RequireFromString("0.10")}, Quantity: 3},
		{Product: Product{ID: 2, Price: decimal.RequireFromString("0.20")}, Quantity: 1},
	}}

	assert.Equal(t, "0.50", cart.TotalAmount().StringFixed(2))
}

func TestCartTotals_Empty(t *testing.T) {
	cart := &Cart{}

	assert.True(t, cart.IsEmpty())
	assert.Equal(t, 0, cart.TotalQuantity())
	assert.True(t, cart.TotalAmount().IsZero())
}

func TestCartLines_KeepsInsertionOrder(t *testing.T) {
	var lines CartLines
	lines = lines.Set(3, 1)
	lines = lines.Set(1, 2)
	lines = lines.Set(2, 5)
	lines = lines.Set(3, 4)

	assert.Equal(t, []int64{3, 1, 2}, lines.ProductIDs())
	q, ok := lines.Get(3)
	assert.True(t, ok)
	assert.Equal(t, 4, q)
}

func TestCartLines_DeleteMissingIsNoop(t *testing.T) {
	lines := CartLines{{ProductID: 1, Quantity: 1}}

	lines = lines.Delete(42)
	assert.Len(t, lines, 1)

	lines = lines.Delete(1)
	lines = lines.Delete(1)
	assert.Empty(t, lines)
}

func TestCartFind(t *testing.T) {
	cart := &Cart{Entries: []CartEntry{{Product: Product{ID: 7}, Quantity: 2}}}

	entry, ok := cart.Find(7)
	assert.True(t, ok)
	assert.Equal(t, 2, entry.Quantity)

	_, ok = cart.Find(8)
	assert.False(t, ok)
}

func TestClampQuantity(t *testing.T) {
	assert.Equal(t, 1, ClampQuantity(0))
	assert.Equal(t, 1, ClampQuantity(math.MinInt))
	assert.Equal(t, 7, ClampQuantity(7))
	assert.Equal(t, MaxQuantity, ClampQuantity(MaxQuantity+1))
	assert.Equal(t, MaxQuantity, ClampQuantity(math.MaxInt))
}
