package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/OCCASS/rml/internal/domain"
	"github.com/OCCASS/rml/internal/infrastructure/payment"
	"github.com/OCCASS/rml/internal/metrics"
	"github.com/OCCASS/rml/internal/repo"
	"github.com/google/uuid"
)

type PaymentService interface {
	// CreatePayment registers a remote payment for the order and moves the
	// order to awaiting_confirmation. On error the order is left as it was.
	CreatePayment(ctx context.Context, order *domain.Order, returnURL, description string) (*domain.Payment, error)
	// FetchPayment returns nil, nil for an empty id.
	FetchPayment(ctx context.Context, paymentID string) (*domain.Payment, error)
	UpdateOrderStatusFromPayment(ctx context.Context, order *domain.Order, p *domain.Payment) (*domain.Order, error)
}

type paymentService struct {
	orderRepo  repo.OrderRepo
	paymentGtw payment.PaymentGateway
	log        *slog.Logger
}

func NewPaymentService(orderRepo repo.OrderRepo, paymentGtw payment.PaymentGateway, log *slog.Logger) PaymentService {
	return &paymentService{orderRepo: orderRepo, paymentGtw: paymentGtw, log: log}
}

func (s *paymentService) CreatePayment(ctx context.Context, order *domain.Order, returnURL, description string) (*domain.Payment, error) {
	p, err := s.paymentGtw.CreatePayment(ctx, payment.CreatePaymentRequest{
		Amount:         order.TotalAmount,
		Currency:       order.Currency,
		ReturnURL:      returnURL,
		Description:    description,
		Metadata:       map[string]string{domain.MetaOrderID: strconv.FormatInt(order.ID, 10)},
		IdempotencyKey: uuid.New(),
	})
	metrics.RecordGatewayCall("create", err == nil)
	if err != nil {
		return nil, err
	}

	prevID, prevStatus := order.PaymentID, order.Status
	order.PaymentID = p.ID
	if order.Status.CanTransitionTo(domain.OrderAwaitingConfirmation) {
		order.Status = domain.OrderAwaitingConfirmation
	}
	if err := s.orderRepo.SetPayment(ctx, order); err != nil {
		order.PaymentID, order.Status = prevID, prevStatus
		return nil, fmt.Errorf("store payment %s on order %d: %w", p.ID, order.ID, err)
	}
	return p, nil
}

func (s *paymentService) FetchPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	if paymentID == "" {
		return nil, nil
	}
	p, err := s.paymentGtw.FetchPayment(ctx, paymentID)
	metrics.RecordGatewayCall("fetch", err == nil)
	return p, err
}

func (s *paymentService) UpdateOrderStatusFromPayment(ctx context.Context, order *domain.Order, p *domain.Payment) (*domain.Order, error) {
	next := domain.OrderStatusFromPayment(p.Status)
	if !order.Status.CanTransitionTo(next) {
		s.log.Warn("Ignoring status change of settled order",
			"order_id", order.ID, "status", order.Status, "payment_status", p.Status)
		return order, nil
	}

	prev := order.Status
	order.Status = next
	if err := s.orderRepo.UpdateOrderStatus(ctx, order); err != nil {
		order.Status = prev
		return order, fmt.Errorf("update order %d status: %w", order.ID, err)
	}
	return order, nil
}
