package postgres

import (
	"context"
	"fmt"
	"time"

	domainErrors "github.com/cassiomorais/storefront/internal/domain/errors"
	"github.com/cassiomorais/storefront/internal/domain/order"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	now := time.Now()
	err := r.db(ctx).QueryRow(ctx,
		`INSERT INTO orders (customer_id, transaction_id, complete, total_due_cents, placed_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		o.CustomerID, o.TransactionID, o.Complete, o.TotalDueCents, now,
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	o.PlacedAt = now
	return nil
}

func (r *OrderRepository) AddItem(ctx context.Context, item *order.Item) error {
	err := r.db(ctx).QueryRow(ctx,
		`INSERT INTO order_items (order_id, product_id, quantity, price_cents)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		item.OrderID, item.ProductID, item.Quantity, item.PriceCents,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	return nil
}

func (r *OrderRepository) SetTotal(ctx context.Context, orderID int64, totalCents int64) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE orders SET total_due_cents = $1 WHERE id = $2`, totalCents, orderID,
	)
	if err != nil {
		return fmt.Errorf("set order total: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	o := &order.Order{}
	err := r.db(ctx).QueryRow(ctx,
		`SELECT id, customer_id, transaction_id, complete, total_due_cents, placed_at
		 FROM orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.CustomerID, &o.TransactionID, &o.Complete, &o.TotalDueCents, &o.PlacedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainErrors.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := r.itemsForOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (r *OrderRepository) itemsForOrder(ctx context.Context, orderID int64) ([]*order.Item, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT i.id, i.order_id, i.product_id, p.name, i.quantity, i.price_cents
		 FROM order_items i
		 JOIN products p ON p.id = i.product_id
		 WHERE i.order_id = $1
		 ORDER BY i.id ASC`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	var items []*order.Item
	for rows.Next() {
		item := &order.Item{}
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.PriceCents); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *OrderRepository) List(ctx context.Context, filter order.ListFilter) ([]*order.Order, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, customer_id, transaction_id, complete, total_due_cents, placed_at
	          FROM orders WHERE 1=1`
	args := []any{}
	idx := 1

	if filter.CustomerID > 0 {
		query += fmt.Sprintf(" AND customer_id = $%d", idx)
		args = append(args, filter.CustomerID)
		idx++
	}
	if filter.Complete != nil {
		query += fmt.Sprintf(" AND complete = $%d", idx)
		args = append(args, *filter.Complete)
		idx++
	}
	query += fmt.Sprintf(" ORDER BY placed_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []*order.Order
	for rows.Next() {
		o := &order.Order{}
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.TransactionID, &o.Complete, &o.TotalDueCents, &o.PlacedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
