package domain

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the gateway's status vocabulary, not ours.
type PaymentStatus string

const (
	PaymentSucceeded          PaymentStatus = "succeeded"
	PaymentCanceled           PaymentStatus = "canceled"
	PaymentCanceledByMerchant PaymentStatus = "canceled_by_merchant"
	PaymentPending            PaymentStatus = "pending"
	PaymentWaitingForCapture  PaymentStatus = "waiting_for_capture"
)

// MetaOrderID is the payment metadata key carrying our order id.
const MetaOrderID = "order_id"

// Payment is the decoded view of a remote payment resource. Every field may be
// empty; absence is a normal case.
type Payment struct {
	ID              string
	Status          PaymentStatus
	ConfirmationURL string
	Amount          decimal.Decimal
	Currency        string
	Description     string
	Metadata        map[string]string
}

// OrderID returns the order id stored in the payment metadata, if any.
func (p *Payment) OrderID() (int64, bool) {
	if p == nil || p.Metadata == nil {
		return 0, false
	}
	raw, ok := p.Metadata[MetaOrderID]
	if !ok || raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// OrderStatusFromPayment translates a remote payment status into an order status.
// Anything unknown, including an empty status, is a failure.
func OrderStatusFromPayment(status PaymentStatus) OrderStatus {
	switch status {
	case PaymentSucceeded:
		return OrderPaid
	case PaymentCanceled, PaymentCanceledByMerchant:
		return OrderCanceled
	case PaymentPending, PaymentWaitingForCapture:
		return OrderAwaitingConfirmation
	default:
		return OrderFailed
	}
}
