package service

import (
	"context"
	"errors"

	"github.com/OCCASS/rml/internal/domain"
	"github.com/OCCASS/rml/internal/repo"
)

var ErrEmptyCart = errors.New("cart is empty")

type OrderService interface {
	// BuildOrderFromCart persists a pending order with one item per cart
	// entry. Name and price are copied from the product as they are now.
	BuildOrderFromCart(ctx context.Context, c *domain.Cart, metadata map[string]string) (*domain.Order, error)
}

type orderService struct {
	orderRepo repo.OrderRepo
}

func NewOrderService(orderRepo repo.OrderRepo) OrderService {
	return &orderService{orderRepo: orderRepo}
}

func (s *orderService) BuildOrderFromCart(ctx context.Context, c *domain.Cart, metadata map[string]string) (*domain.Order, error) {
	if c == nil || c.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if metadata == nil {
		metadata = map[string]string{}
	}

	order := &domain.Order{
		Status:       domain.OrderPending,
		TotalAmount:  c.TotalAmount(),
		Currency:     domain.Currency,
		Metadata:     metadata,
		CartSnapshot: SerializeCart(c),
		Items:        make([]domain.OrderItem, 0, len(c.Entries)),
	}
	for _, e := range c.Entries {
		productID := e.Product.ID
		order.Items = append(order.Items, domain.OrderItem{
			ProductID:   &productID,
			ProductName: e.Product.Name,
			UnitPrice:   e.Product.Price,
			Quantity:    e.Quantity,
		})
	}

	if err := s.orderRepo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}
