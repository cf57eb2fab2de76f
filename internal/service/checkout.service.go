package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/OCCASS/rml/internal/domain"
	"github.com/OCCASS/rml/internal/metrics"
	"github.com/OCCASS/rml/internal/repo"
)

var ErrNoConfirmationURL = errors.New("payment has no confirmation url")

// Notifier is the part of the notification dispatcher checkout needs.
type Notifier interface {
	Enabled() bool
	OrderPaid(ctx context.Context, order *domain.Order)
}

type CustomerDetails struct {
	FullName string
	Phone    string
	Address  string
}

// Reconciliation is what the return page knows after a payment round trip.
// Any field may be empty.
type Reconciliation struct {
	PaymentID string
	Order     *domain.Order
	Payment   *domain.Payment
	FetchErr  error
	// Reconciled is set once an order and its payment were matched and the
	// resulting status was stored.
	Reconciled bool
}

func (r *Reconciliation) PaymentStatus() domain.PaymentStatus {
	if r.Payment == nil {
		return ""
	}
	return r.Payment.Status
}

type CheckoutService interface {
	PlaceCartOrder(ctx context.Context, c *domain.Cart, customer CustomerDetails) (*domain.Order, error)
	PlaceProductOrder(ctx context.Context, product domain.Product, quantity int) (*domain.Order, error)
	// StartPayment returns the payment to redirect the visitor to. A payment
	// without a confirmation URL is returned together with ErrNoConfirmationURL.
	StartPayment(ctx context.Context, order *domain.Order, returnURL string) (*domain.Payment, error)
	// Reconcile never fails; problems are reported inside the result.
	Reconcile(ctx context.Context, paymentID string) *Reconciliation
	// ReconcileOrder refreshes one order that already carries a payment id.
	ReconcileOrder(ctx context.Context, order *domain.Order) error
}

type checkoutService struct {
	orderRepo    repo.OrderRepo
	orderService OrderService
	paymentSvc   PaymentService
	notifier     Notifier
	log          *slog.Logger
}

func NewCheckoutService(
	orderRepo repo.OrderRepo,
	orderService OrderService,
	paymentSvc PaymentService,
	notifier Notifier,
	log *slog.Logger,
) CheckoutService {
	return &checkoutService{
		orderRepo:    orderRepo,
		orderService: orderService,
		paymentSvc:   paymentSvc,
		notifier:     notifier,
		log:          log,
	}
}

func (s *checkoutService) PlaceCartOrder(ctx context.Context, c *domain.Cart, customer CustomerDetails) (*domain.Order, error) {
	order, err := s.orderService.BuildOrderFromCart(ctx, c, map[string]string{
		domain.MetaSource:          domain.SourceCart,
		domain.MetaCustomerName:    customer.FullName,
		domain.MetaCustomerPhone:   customer.Phone,
		domain.MetaCustomerAddress: customer.Address,
	})
	metrics.RecordCheckout("place_cart_order", err == nil)
	return order, err
}

func (s *checkoutService) PlaceProductOrder(ctx context.Context, product domain.Product, quantity int) (*domain.Order, error) {
	c := &domain.Cart{Entries: []domain.CartEntry{{Product: product, Quantity: domain.ClampQuantity(quantity)}}}
	order, err := s.orderService.BuildOrderFromCart(ctx, c, map[string]string{
		domain.MetaSource:      domain.SourceProduct,
		domain.MetaProductSlug: product.Slug,
	})
	metrics.RecordCheckout("place_product_order", err == nil)
	return order, err
}

func (s *checkoutService) StartPayment(ctx context.Context, order *domain.Order, returnURL string) (*domain.Payment, error) {
	description := fmt.Sprintf("Заказ #%d в RML", order.ID)
	p, err := s.paymentSvc.CreatePayment(ctx, order, returnURL, description)
	if err != nil {
		metrics.RecordCheckout("start_payment", false)
		s.log.Error("Failed to create payment", "order_id", order.ID, "error", err)
		return nil, err
	}
	if p.ConfirmationURL == "" {
		metrics.RecordCheckout("start_payment", false)
		s.log.Error("Payment has no confirmation url", "order_id", order.ID, "payment_id", p.ID)
		return p, ErrNoConfirmationURL
	}
	metrics.RecordCheckout("start_payment", true)
	s.log.Info("Payment created", "order_id", order.ID, "payment_id", p.ID)
	return p, nil
}

func (s *checkoutService) Reconcile(ctx context.Context, paymentID string) *Reconciliation {
	result := &Reconciliation{PaymentID: paymentID}
	if paymentID == "" {
		return result
	}

	order, err := s.orderRepo.FindByPaymentID(ctx, paymentID)
	switch {
	case err == nil:
		result.Order = order
	case !errors.Is(err, repo.ErrOrderNotFound):
		s.log.Error("Failed to look up order by payment", "payment_id", paymentID, "error", err)
	}

	p, err := s.paymentSvc.FetchPayment(ctx, paymentID)
	if err != nil {
		s.log.Warn("Failed to fetch payment", "payment_id", paymentID, "error", err)
		result.FetchErr = err
		return result
	}
	result.Payment = p
	if p == nil {
		return result
	}

	if result.Order == nil {
		if orderID, ok := p.OrderID(); ok {
			order, err := s.orderRepo.FindById(ctx, orderID)
			switch {
			case err == nil:
				result.Order = order
			case errors.Is(err, repo.ErrOrderNotFound):
				s.log.Warn("Payment refers to unknown order", "payment_id", paymentID, "order_id", orderID)
			default:
				s.log.Error("Failed to look up order from payment metadata", "order_id", orderID, "error", err)
			}
		}
	}
	if result.Order == nil {
		return result
	}

	if err := s.apply(ctx, result.Order, p, "return"); err != nil {
		s.log.Error("Failed to reconcile order", "order_id", result.Order.ID, "payment_id", paymentID, "error", err)
		return result
	}
	result.Reconciled = true
	return result
}

func (s *checkoutService) ReconcileOrder(ctx context.Context, order *domain.Order) error {
	p, err := s.paymentSvc.FetchPayment(ctx, order.PaymentID)
	if err != nil {
		return err
	}
	if p == nil {
		return nil
	}
	return s.apply(ctx, order, p, "worker")
}

func (s *checkoutService) apply(ctx context.Context, order *domain.Order, p *domain.Payment, source string) error {
	if _, err := s.paymentSvc.UpdateOrderStatusFromPayment(ctx, order, p); err != nil {
		return err
	}
	metrics.RecordReconciled(source, order.Status.String())
	s.notifyPaid(ctx, order)
	return nil
}

// notifyPaid sends the paid notification at most once per order. The
// notified_at stamp is claimed before sending so concurrent reconciliations
// cannot both send.
func (s *checkoutService) notifyPaid(ctx context.Context, order *domain.Order) {
	if order.Status != domain.OrderPaid || order.NotifiedAt != nil {
		return
	}
	if s.notifier == nil || !s.notifier.Enabled() {
		return
	}

	claimed, err := s.orderRepo.MarkNotified(ctx, order)
	if err != nil {
		s.log.Error("Failed to mark order notified", "order_id", order.ID, "error", err)
		return
	}
	if !claimed {
		return
	}
	// The stamp is already written, so the send must outlive the caller.
	s.notifier.OrderPaid(context.WithoutCancel(ctx), order)
}
