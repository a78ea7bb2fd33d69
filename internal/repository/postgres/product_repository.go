package postgres

import (
	"context"
	"fmt"
	"time"

	domainErrors "github.com/cassiomorais/storefront/internal/domain/errors"
	"github.com/cassiomorais/storefront/internal/domain/product"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func (r *ProductRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	now := time.Now()
	err := r.db(ctx).QueryRow(ctx,
		`INSERT INTO products (name, description, price_cents, stock_quantity, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)
		 RETURNING id`,
		p.Name, p.Description, p.PriceCents, p.StockQuantity, now,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	return r.get(ctx, id, false)
}

// Lock re-reads the product row FOR UPDATE. The caller must be inside a
// transaction; the lock serializes concurrent stock decrements.
func (r *ProductRepository) Lock(ctx context.Context, id int64) (*product.Product, error) {
	return r.get(ctx, id, true)
}

func (r *ProductRepository) get(ctx context.Context, id int64, forUpdate bool) (*product.Product, error) {
	query := `SELECT id, name, description, price_cents, stock_quantity, created_at, updated_at
	          FROM products WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	p := &product.Product{}
	err := r.db(ctx).QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.StockQuantity, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainErrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *ProductRepository) SetStock(ctx context.Context, id int64, quantity int) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE products SET stock_quantity = $1, updated_at = NOW() WHERE id = $2`,
		quantity, id,
	)
	if err != nil {
		return fmt.Errorf("set product stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) List(ctx context.Context, filter product.ListFilter) ([]*product.Product, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, name, description, price_cents, stock_quantity, created_at, updated_at
	          FROM products`
	if filter.InStockOnly {
		query += ` WHERE stock_quantity > 0`
	}
	query += ` ORDER BY name ASC LIMIT $1 OFFSET $2`

	rows, err := r.db(ctx).Query(ctx, query, limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []*product.Product
	for rows.Next() {
		p := &product.Product{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.StockQuantity, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
