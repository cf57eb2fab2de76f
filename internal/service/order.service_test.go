package service

import (
	"context"
	"testing"

	"github.com/OCCASS/rml/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOrderFromCart_SnapshotsPrices(t *testing.T) {
	orders := newFakeOrderRepo()
	svc := NewOrderService(orders)

	jacket := product(1, "jacket", "7990.00")
	c := &domain.Cart{Entries: []domain.CartEntry{
		{Product: jacket, Quantity: 1},
		{Product: product(2, "cap", "3590.00"), Quantity: 2},
	}}

	order, err := svc.BuildOrderFromCart(context.Background(), c, map[string]string{domain.MetaSource: domain.SourceCart})
	require.NoError(t, err)

	assert.Equal(t, domain.OrderPending, order.Status)
	assert.Equal(t, domain.Currency, order.Currency)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("15170")))
	require.Len(t, order.Items, 2)
	require.Len(t, order.CartSnapshot, 2)
	assert.Equal(t, "3590.00", order.CartSnapshot[1].UnitPrice)

	// Repricing the product after the fact must not touch the order.
	c.Entries[0].Product.Price = decimal.RequireFromString("9999.00")
	c.Entries[0].Product.Name = "renamed"

	stored := orders.get(order.ID)
	assert.Equal(t, "jacket", stored.Items[0].ProductName)
	assert.True(t, stored.Items[0].UnitPrice.Equal(decimal.RequireFromString("7990.00")))
}

func TestBuildOrderFromCart_EmptyCart(t *testing.T) {
	orders := newFakeOrderRepo()
	svc := NewOrderService(orders)

	_, err := svc.BuildOrderFromCart(context.Background(), &domain.Cart{}, nil)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, orders.orders)
}

func TestBuildOrderFromCart_RepoFailure(t *testing.T) {
	orders := newFakeOrderRepo()
	orders.createErr = errBoom
	svc := NewOrderService(orders)

	c := &domain.Cart{Entries: []domain.CartEntry{{Product: product(1, "jacket", "1"), Quantity: 1}}}
	_, err := svc.BuildOrderFromCart(context.Background(), c, nil)
	assert.ErrorIs(t, err, errBoom)
}
