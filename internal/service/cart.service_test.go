package service

import (
	"context"
	"math"
	"testing"

	"github.com/OCCASS/rml/internal/cart"
	"github.com/OCCASS/rml/internal/domain"
	"github.com/OCCASS/rml/internal/session"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCartFixture() (CartService, *fakeProductRepo, *cart.SessionStore) {
	products := newFakeProductRepo(
		product(1, "jacket", "7990.00"),
		product(2, "cap", "3590.00"),
		product(3, "scarf", "1500.50"),
	)
	store := cart.NewSessionStore("")
	return NewCartService(products, store), products, store
}

func TestCartService_AddAccumulatesAndReplaces(t *testing.T) {
	svc, _, _ := newCartFixture()
	ctx := context.Background()
	sess := session.New()

	_, err := svc.AddToCart(ctx, sess, 1, 2, false)
	require.NoError(t, err)
	c, err := svc.AddToCart(ctx, sess, 1, 3, false)
	require.NoError(t, err)
	entry, ok := c.Find(1)
	require.True(t, ok)
	assert.Equal(t, 5, entry.Quantity)

	c, err = svc.AddToCart(ctx, sess, 1, 4, true)
	require.NoError(t, err)
	entry, _ = c.Find(1)
	assert.Equal(t, 4, entry.Quantity)
	assert.True(t, sess.Modified())
}

func TestCartService_QuantityIsCapped(t *testing.T) {
	svc, _, _ := newCartFixture()
	ctx := context.Background()
	sess := session.New()

	_, err := svc.AddToCart(ctx, sess, 1, math.MaxInt, false)
	require.NoError(t, err)
	c, err := svc.AddToCart(ctx, sess, 1, 1, false)
	require.NoError(t, err)
	entry, ok := c.Find(1)
	require.True(t, ok)
	assert.Equal(t, domain.MaxQuantity, entry.Quantity)
	assert.True(t, c.TotalAmount().IsPositive())

	c, err = svc.AddToCart(ctx, sess, 1, 3000000000, true)
	require.NoError(t, err)
	entry, _ = c.Find(1)
	assert.Equal(t, domain.MaxQuantity, entry.Quantity)

	c, err = svc.AddToCart(ctx, sess, 1, 0, true)
	require.NoError(t, err)
	entry, _ = c.Find(1)
	assert.Equal(t, 1, entry.Quantity)
}

func TestCartService_TotalsAndOrder(t *testing.T) {
	svc, _, _ := newCartFixture()
	ctx := context.Background()
	sess := session.New()

	_, err := svc.AddToCart(ctx, sess, 2, 2, false)
	require.NoError(t, err)
	c, err := svc.AddToCart(ctx, sess, 1, 1, false)
	require.NoError(t, err)

	require.Len(t, c.Entries, 2)
	assert.EqualValues(t, 2, c.Entries[0].Product.ID)
	assert.EqualValues(t, 1, c.Entries[1].Product.ID)
	assert.Equal(t, 3, c.TotalQuantity())
	assert.True(t, c.TotalAmount().Equal(decimal.RequireFromString("15170.00")))
}

func TestCartService_RemoveIsIdempotent(t *testing.T) {
	svc, _, _ := newCartFixture()
	ctx := context.Background()
	sess := session.New()

	_, err := svc.AddToCart(ctx, sess, 1, 1, false)
	require.NoError(t, err)

	c, err := svc.RemoveFromCart(ctx, sess, 1)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())

	c, err = svc.RemoveFromCart(ctx, sess, 1)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestCartService_MissingProductSkippedWithoutWriteBack(t *testing.T) {
	svc, products, store := newCartFixture()
	ctx := context.Background()
	sess := session.New()

	_, err := svc.AddToCart(ctx, sess, 1, 1, false)
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, sess, 3, 2, false)
	require.NoError(t, err)

	delete(products.products, 3)
	c, err := svc.GetCart(ctx, sess)
	require.NoError(t, err)
	require.Len(t, c.Entries, 1)
	assert.EqualValues(t, 1, c.Entries[0].Product.ID)

	lines, err := store.Load(sess)
	require.NoError(t, err)
	assert.Equal(t, domain.CartLines{{ProductID: 1, Quantity: 1}, {ProductID: 3, Quantity: 2}}, lines)
}

func TestCartService_GetCartBatchesLookups(t *testing.T) {
	svc, products, _ := newCartFixture()
	ctx := context.Background()
	sess := session.New()
	store := cart.NewSessionStore("")
	require.NoError(t, store.Save(sess, domain.CartLines{{ProductID: 1, Quantity: 1}, {ProductID: 2, Quantity: 1}, {ProductID: 3, Quantity: 1}}))

	products.calls = 0
	c, err := svc.GetCart(ctx, sess)
	require.NoError(t, err)
	assert.Len(t, c.Entries, 3)
	assert.Equal(t, 1, products.calls)
}

func TestCartService_Clear(t *testing.T) {
	svc, _, _ := newCartFixture()
	ctx := context.Background()
	sess := session.New()

	svc.ClearCart(sess)
	_, err := svc.AddToCart(ctx, sess, 1, 1, false)
	require.NoError(t, err)
	svc.ClearCart(sess)

	c, err := svc.GetCart(ctx, sess)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestSerializeCart(t *testing.T) {
	c := &domain.Cart{Entries: []domain.CartEntry{
		{Product: product(3, "scarf", "1500.5"), Quantity: 2},
	}}

	assert.Equal(t, []domain.CartSnapshotItem{
		{ProductID: 3, ProductName: "scarf", Quantity: 2, UnitPrice: "1500.50"},
	}, SerializeCart(c))
}
