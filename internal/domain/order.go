package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending              OrderStatus = "pending"
	OrderAwaitingConfirmation OrderStatus = "awaiting_confirmation"
	OrderPaid                 OrderStatus = "paid"
	OrderCanceled             OrderStatus = "canceled"
	OrderFailed               OrderStatus = "failed"
)

// Currency is the only currency the shop charges in.
const Currency = "RUB"

// Metadata keys written at order creation.
const (
	MetaSource          = "source"
	MetaCustomerName    = "customer_name"
	MetaCustomerPhone   = "customer_phone"
	MetaCustomerAddress = "customer_address"
	MetaProductSlug     = "product_slug"

	SourceCart    = "cart"
	SourceProduct = "product"
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderPaid || s == OrderCanceled || s == OrderFailed
}

func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo reports whether the checkout flow may move an order from s to next.
// Re-applying the current status is always allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case OrderPending:
		return next != OrderPending
	case OrderAwaitingConfirmation:
		return next == OrderPaid || next == OrderCanceled || next == OrderFailed
	default:
		return false
	}
}

type Order struct {
	ID           int64
	Status       OrderStatus
	PaymentID    string
	TotalAmount  decimal.Decimal
	Currency     string
	Metadata     map[string]string
	CartSnapshot []CartSnapshotItem
	NotifiedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Items        []OrderItem
}

// OrderItem keeps its own copy of the product name and price so that later
// catalog edits never change what the customer paid.
type OrderItem struct {
	ID          int64
	OrderID     int64
	ProductID   *int64
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// HumanReadable renders the items as "name xN — total CUR" joined with "; ".
func (o *Order) HumanReadable() string {
	lines := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		lines = append(lines, fmt.Sprintf("%s x%d — %s %s", item.ProductName, item.Quantity, item.LineTotal().StringFixed(2), o.Currency))
	}
	return strings.Join(lines, "; ")
}
