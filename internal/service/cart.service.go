package service

import (
	"context"
	"fmt"

	"github.com/OCCASS/rml/internal/cart"
	"github.com/OCCASS/rml/internal/domain"
	"github.com/OCCASS/rml/internal/repo"
	"github.com/OCCASS/rml/internal/session"
)

type CartService interface {
	// GetCart prices the stored lines against the catalog. Lines whose product
	// is gone are skipped but stay in the session.
	GetCart(ctx context.Context, sess *session.Session) (*domain.Cart, error)
	// AddToCart adds quantity to the line, or overwrites it when replace is
	// set. The resulting line is clamped to [1, domain.MaxQuantity].
	AddToCart(ctx context.Context, sess *session.Session, productID int64, quantity int, replace bool) (*domain.Cart, error)
	RemoveFromCart(ctx context.Context, sess *session.Session, productID int64) (*domain.Cart, error)
	ClearCart(sess *session.Session)
}

type cartService struct {
	productRepo repo.ProductRepo
	store       *cart.SessionStore
}

func NewCartService(productRepo repo.ProductRepo, store *cart.SessionStore) CartService {
	return &cartService{productRepo: productRepo, store: store}
}

func (s *cartService) GetCart(ctx context.Context, sess *session.Session) (*domain.Cart, error) {
	lines, err := s.store.Load(sess)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(lines) == 0 {
		return &domain.Cart{}, nil
	}

	products, err := s.productRepo.FindByIDs(ctx, lines.ProductIDs())
	if err != nil {
		return nil, fmt.Errorf("resolve cart products: %w", err)
	}
	byID := make(map[int64]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	c := &domain.Cart{Entries: make([]domain.CartEntry, 0, len(lines))}
	for _, line := range lines {
		product, ok := byID[line.ProductID]
		if !ok {
			continue
		}
		c.Entries = append(c.Entries, domain.CartEntry{Product: product, Quantity: line.Quantity})
	}
	return c, nil
}

func (s *cartService) AddToCart(ctx context.Context, sess *session.Session, productID int64, quantity int, replace bool) (*domain.Cart, error) {
	lines, err := s.store.Load(sess)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	quantity = domain.ClampQuantity(quantity)
	if !replace {
		current, _ := lines.Get(productID)
		quantity = domain.ClampQuantity(quantity + domain.ClampQuantity(current))
	}
	if err := s.store.Save(sess, lines.Set(productID, quantity)); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return s.GetCart(ctx, sess)
}

func (s *cartService) RemoveFromCart(ctx context.Context, sess *session.Session, productID int64) (*domain.Cart, error) {
	lines, err := s.store.Load(sess)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	if _, ok := lines.Get(productID); ok {
		if err := s.store.Save(sess, lines.Delete(productID)); err != nil {
			return nil, fmt.Errorf("save cart: %w", err)
		}
	}
	return s.GetCart(ctx, sess)
}

func (s *cartService) ClearCart(sess *session.Session) {
	s.store.Clear(sess)
}

// SerializeCart snapshots the cart with exact decimal unit prices.
func SerializeCart(c *domain.Cart) []domain.CartSnapshotItem {
	items := make([]domain.CartSnapshotItem, 0, len(c.Entries))
	for _, e := range c.Entries {
		items = append(items, domain.CartSnapshotItem{
			ProductID:   e.Product.ID,
			ProductName: e.Product.Name,
			Quantity:    e.Quantity,
			UnitPrice:   e.Product.Price.StringFixed(2),
		})
	}
	return items
}
