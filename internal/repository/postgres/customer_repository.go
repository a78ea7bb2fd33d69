package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cassiomorais/storefront/internal/domain/customer"
	domainErrors "github.com/cassiomorais/storefront/internal/domain/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CustomerRepository struct {
	pool *pgxpool.Pool
}

func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

func (r *CustomerRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	now := time.Now()
	err := r.db(ctx).QueryRow(ctx,
		`INSERT INTO customers (first_name, last_name, email, phone_number, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		c.FirstName, c.LastName, c.Email, c.PhoneNumber, now,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	c.CreatedAt = now
	return nil
}

func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (*customer.Customer, error) {
	c := &customer.Customer{}
	err := r.db(ctx).QueryRow(ctx,
		`SELECT id, first_name, last_name, email, phone_number, created_at
		 FROM customers WHERE id = $1`, id,
	).Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.PhoneNumber, &c.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainErrors.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

func (r *CustomerRepository) List(ctx context.Context, limit, offset int) ([]*customer.Customer, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db(ctx).Query(ctx,
		`SELECT id, first_name, last_name, email, phone_number, created_at
		 FROM customers ORDER BY id ASC LIMIT $1 OFFSET $2`, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var customers []*customer.Customer
	for rows.Next() {
		c := &customer.Customer{}
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.PhoneNumber, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}
