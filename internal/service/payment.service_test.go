package service

import (
	"context"
	"testing"

	"github.com/OCCASS/rml/internal/domain"
	"github.com/OCCASS/rml/internal/infrastructure/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchPayment_EmptyID(t *testing.T) {
	svc := NewPaymentService(newFakeOrderRepo(), payment.NewMockGateway(false), discardLogger())

	p, err := svc.FetchPayment(context.Background(), "")
	assert.NoError(t, err)
	assert.Nil(t, p)
}

func TestCreatePayment_ConfigurationError(t *testing.T) {
	orders := newFakeOrderRepo()
	gw := payment.NewYooKassaGateway(payment.YooKassaConfig{}, nil)
	svc := NewPaymentService(orders, gw, discardLogger())

	order := &domain.Order{Status: domain.OrderPending, Currency: domain.Currency}
	require.NoError(t, orders.CreateOrder(context.Background(), order))

	_, err := svc.CreatePayment(context.Background(), order, "http://x", "d")
	assert.True(t, payment.IsConfiguration(err))
	assert.Equal(t, domain.OrderPending, order.Status)
}

func TestCreatePayment_PersistFailureRestoresOrder(t *testing.T) {
	orders := newFakeOrderRepo()
	svc := NewPaymentService(orders, payment.NewMockGateway(false), discardLogger())

	order := &domain.Order{Status: domain.OrderPending, Currency: domain.Currency}
	require.NoError(t, orders.CreateOrder(context.Background(), order))
	orders.updateErr = errBoom

	_, err := svc.CreatePayment(context.Background(), order, "http://x", "d")
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, domain.OrderPending, order.Status)
	assert.Empty(t, order.PaymentID)
}

func TestUpdateOrderStatusFromPayment_PersistsRepeatedStatus(t *testing.T) {
	orders := newFakeOrderRepo()
	svc := NewPaymentService(orders, payment.NewMockGateway(false), discardLogger())

	order := &domain.Order{Status: domain.OrderAwaitingConfirmation, Currency: domain.Currency}
	require.NoError(t, orders.CreateOrder(context.Background(), order))

	updated, err := svc.UpdateOrderStatusFromPayment(context.Background(), order, &domain.Payment{Status: domain.PaymentPending})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderAwaitingConfirmation, updated.Status)

	orders.updateErr = errBoom
	_, err = svc.UpdateOrderStatusFromPayment(context.Background(), order, &domain.Payment{Status: domain.PaymentSucceeded})
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, domain.OrderAwaitingConfirmation, order.Status)
}
