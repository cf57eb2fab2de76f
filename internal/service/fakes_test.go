package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/OCCASS/rml/internal/domain"
	"github.com/OCCASS/rml/internal/repo"
	"github.com/shopspring/decimal"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func product(id int64, name, price string) domain.Product {
	return domain.Product{ID: id, Name: name, Slug: name, Price: decimal.RequireFromString(price)}
}

type fakeProductRepo struct {
	products map[int64]domain.Product
	calls    int
}

func newFakeProductRepo(products ...domain.Product) *fakeProductRepo {
	r := &fakeProductRepo{products: make(map[int64]domain.Product)}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *fakeProductRepo) ListProducts(context.Context) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeProductRepo) FindBySlug(_ context.Context, slug string) (*domain.Product, error) {
	for _, p := range r.products {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, repo.ErrProductNotFound
}

func (r *fakeProductRepo) FindByIDs(_ context.Context, ids []int64) ([]domain.Product, error) {
	r.calls++
	var out []domain.Product
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeOrderRepo struct {
	mu        sync.Mutex
	orders    map[int64]*domain.Order
	nextID    int64
	createErr error
	updateErr error
	// afterMark runs once notified_at has been claimed.
	afterMark func()
	touched   []int64
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[int64]*domain.Order)}
}

func (r *fakeOrderRepo) clone(o *domain.Order) *domain.Order {
	c := *o
	c.Items = append([]domain.OrderItem(nil), o.Items...)
	return &c
}

func (r *fakeOrderRepo) CreateOrder(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	order.ID = r.nextID
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	for i := range order.Items {
		order.Items[i].ID = int64(i + 1)
		order.Items[i].OrderID = order.ID
	}
	r.orders[order.ID] = r.clone(order)
	return nil
}

func (r *fakeOrderRepo) FindById(_ context.Context, id int64) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, repo.ErrOrderNotFound
	}
	return r.clone(o), nil
}

func (r *fakeOrderRepo) FindByPaymentID(_ context.Context, paymentID string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if paymentID == "" {
		return nil, repo.ErrOrderNotFound
	}
	for _, o := range r.orders {
		if o.PaymentID == paymentID {
			return r.clone(o), nil
		}
	}
	return nil, repo.ErrOrderNotFound
}

func (r *fakeOrderRepo) SetPayment(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	stored, ok := r.orders[order.ID]
	if !ok {
		return repo.ErrOrderNotFound
	}
	stored.PaymentID = order.PaymentID
	stored.Status = order.Status
	return nil
}

func (r *fakeOrderRepo) UpdateOrderStatus(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	stored, ok := r.orders[order.ID]
	if !ok {
		return repo.ErrOrderNotFound
	}
	stored.Status = order.Status
	return nil
}

func (r *fakeOrderRepo) MarkNotified(_ context.Context, order *domain.Order) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[order.ID]
	if !ok {
		return false, repo.ErrOrderNotFound
	}
	if stored.NotifiedAt != nil {
		return false, nil
	}
	now := time.Now()
	stored.NotifiedAt = &now
	order.NotifiedAt = &now
	if r.afterMark != nil {
		r.afterMark()
	}
	return true, nil
}

func (r *fakeOrderRepo) TouchOrder(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[order.ID]
	if !ok {
		return repo.ErrOrderNotFound
	}
	stored.UpdatedAt = time.Now()
	order.UpdatedAt = stored.UpdatedAt
	r.touched = append(r.touched, order.ID)
	return nil
}

func (r *fakeOrderRepo) FindStuckOrders(context.Context, time.Duration, int) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Order
	for _, o := range r.orders {
		if o.Status == domain.OrderAwaitingConfirmation && o.PaymentID != "" {
			out = append(out, *r.clone(o))
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) get(id int64) *domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clone(r.orders[id])
}

type countingNotifier struct {
	mu       sync.Mutex
	disabled bool
	paid     []int64
	ctxErrs  []error
}

func (n *countingNotifier) Enabled() bool { return !n.disabled }

func (n *countingNotifier) OrderPaid(ctx context.Context, order *domain.Order) {
	n.mu.Lock()
	n.paid = append(n.paid, order.ID)
	n.ctxErrs = append(n.ctxErrs, ctx.Err())
	n.mu.Unlock()
}

var errBoom = errors.New("boom")
