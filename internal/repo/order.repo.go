package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/OCCASS/rml/internal/domain"
)

var ErrOrderNotFound = errors.New("order not found")

type OrderRepo interface {
	// CreateOrder inserts the order and all of its items in one transaction.
	CreateOrder(ctx context.Context, order *domain.Order) error
	FindById(ctx context.Context, id int64) (*domain.Order, error)
	// FindByPaymentID returns the newest order carrying the payment reference.
	FindByPaymentID(ctx context.Context, paymentID string) (*domain.Order, error)
	SetPayment(ctx context.Context, order *domain.Order) error
	UpdateOrderStatus(ctx context.Context, order *domain.Order) error
	// MarkNotified stamps notified_at unless it is already set and reports
	// whether this call was the one that stamped it.
	MarkNotified(ctx context.Context, order *domain.Order) (bool, error)
	// FindStuckOrders returns awaiting orders untouched for olderThan, least
	// recently updated first.
	FindStuckOrders(ctx context.Context, olderThan time.Duration, limit int) ([]domain.Order, error)
	// TouchOrder bumps updated_at so a failed reconciliation moves the order
	// to the back of the stale queue.
	TouchOrder(ctx context.Context, order *domain.Order) error
}

type orderRepo struct {
	db *sql.DB
}

func NewOrderRepo(db *sql.DB) OrderRepo {
	return &orderRepo{db: db}
}

const orderColumns = `id, status, payment_id, total_amount, currency, metadata, cart_snapshot, notified_at, created_at, updated_at`

func (r *orderRepo) CreateOrder(ctx context.Context, order *domain.Order) error {
	metadata, err := json.Marshal(nonNilMap(order.Metadata))
	if err != nil {
		return fmt.Errorf("marshal order metadata: %w", err)
	}
	snapshot, err := json.Marshal(nonNilSnapshot(order.CartSnapshot))
	if err != nil {
		return fmt.Errorf("marshal cart snapshot: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (status, payment_id, total_amount, currency, metadata, cart_snapshot)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, order.Status, order.PaymentID, order.TotalAmount, order.Currency, metadata, snapshot).
		Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, unit_price, quantity)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, item.OrderID, item.ProductID, item.ProductName, item.UnitPrice, item.Quantity).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("insert order item %q: %w", item.ProductName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

func (r *orderRepo) FindById(ctx context.Context, id int64) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return r.loadOrder(ctx, row)
}

func (r *orderRepo) FindByPaymentID(ctx context.Context, paymentID string) (*domain.Order, error) {
	if paymentID == "" {
		return nil, ErrOrderNotFound
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE payment_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, paymentID)
	return r.loadOrder(ctx, row)
}

func (r *orderRepo) SetPayment(ctx context.Context, order *domain.Order) error {
	return r.db.QueryRowContext(ctx, `
		UPDATE orders SET payment_id = $1, status = $2, updated_at = now()
		WHERE id = $3
		RETURNING updated_at
	`, order.PaymentID, order.Status, order.ID).Scan(&order.UpdatedAt)
}

func (r *orderRepo) UpdateOrderStatus(ctx context.Context, order *domain.Order) error {
	return r.db.QueryRowContext(ctx, `
		UPDATE orders SET status = $1, updated_at = now()
		WHERE id = $2
		RETURNING updated_at
	`, order.Status, order.ID).Scan(&order.UpdatedAt)
}

func (r *orderRepo) MarkNotified(ctx context.Context, order *domain.Order) (bool, error) {
	var notifiedAt time.Time
	err := r.db.QueryRowContext(ctx, `
		UPDATE orders SET notified_at = now()
		WHERE id = $1 AND notified_at IS NULL
		RETURNING notified_at
	`, order.ID).Scan(&notifiedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("mark order notified: %w", err)
	}
	order.NotifiedAt = &notifiedAt
	return true, nil
}

func (r *orderRepo) TouchOrder(ctx context.Context, order *domain.Order) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE orders SET updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, order.ID).Scan(&order.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrOrderNotFound
	}
	return err
}

func (r *orderRepo) FindStuckOrders(ctx context.Context, olderThan time.Duration, limit int) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE status = $1 AND payment_id <> '' AND updated_at < $2
		ORDER BY updated_at
		LIMIT $3
	`, domain.OrderAwaitingConfirmation, time.Now().Add(-olderThan), limit)
	if err != nil {
		return nil, fmt.Errorf("query stuck orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	for i := range orders {
		if orders[i].Items, err = r.findItems(ctx, orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *orderRepo) loadOrder(ctx context.Context, row *sql.Row) (*domain.Order, error) {
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if order.Items, err = r.findItems(ctx, order.ID); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepo) findItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, product_name, unit_price, quantity
		FROM order_items WHERE order_id = $1 ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		var productID sql.NullInt64
		if err := rows.Scan(&item.ID, &item.OrderID, &productID, &item.ProductName, &item.UnitPrice, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if productID.Valid {
			item.ProductID = &productID.Int64
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanOrder(s scanner) (*domain.Order, error) {
	var o domain.Order
	var metadata, snapshot []byte
	var notifiedAt sql.NullTime
	err := s.Scan(&o.ID, &o.Status, &o.PaymentID, &o.TotalAmount, &o.Currency, &metadata, &snapshot, &notifiedAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	if notifiedAt.Valid {
		o.NotifiedAt = &notifiedAt.Time
	}
	if err := json.Unmarshal(metadata, &o.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal order metadata: %w", err)
	}
	if err := json.Unmarshal(snapshot, &o.CartSnapshot); err != nil {
		return nil, fmt.Errorf("unmarshal cart snapshot: %w", err)
	}
	return &o, nil
}

func nonNilMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func nonNilSnapshot(s []domain.CartSnapshotItem) []domain.CartSnapshotItem {
	if s == nil {
		return []domain.CartSnapshotItem{}
	}
	return s
}
