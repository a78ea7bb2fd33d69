package postgres

import (
	"context"
	"fmt"

	domainErrors "github.com/cassiomorais/storefront/internal/domain/errors"
	"github.com/cassiomorais/storefront/internal/domain/payment"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

func (r *PaymentRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	err := r.db(ctx).QueryRow(ctx,
		`INSERT INTO payments (order_id, amount_cents, method, status, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		p.OrderID, p.AmountCents, p.Method, string(p.Status), p.CreatedAt,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*payment.Payment, error) {
	return r.getByID(ctx, id, "")
}

// GetByIDForUpdate locks the payment row until the surrounding transaction
// ends, so concurrent state transitions serialize on the row.
func (r *PaymentRepository) GetByIDForUpdate(ctx context.Context, id int64) (*payment.Payment, error) {
	return r.getByID(ctx, id, " FOR UPDATE")
}

func (r *PaymentRepository) getByID(ctx context.Context, id int64, suffix string) (*payment.Payment, error) {
	p := &payment.Payment{}
	var status string
	err := r.db(ctx).QueryRow(ctx,
		`SELECT id, order_id, amount_cents, method, status, created_at, completed_at
		 FROM payments WHERE id = $1`+suffix, id,
	).Scan(&p.ID, &p.OrderID, &p.AmountCents, &p.Method, &status, &p.CreatedAt, &p.CompletedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainErrors.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	p.Status = payment.Status(status)
	return p, nil
}

func (r *PaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE payments SET status = $1, completed_at = $2 WHERE id = $3`,
		string(p.Status), p.CompletedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrPaymentNotFound
	}
	return nil
}

func (r *PaymentRepository) ListByOrder(ctx context.Context, orderID int64) ([]*payment.Payment, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT id, order_id, amount_cents, method, status, created_at, completed_at
		 FROM payments WHERE order_id = $1 ORDER BY created_at DESC`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []*payment.Payment
	for rows.Next() {
		p := &payment.Payment{}
		var status string
		if err := rows.Scan(&p.ID, &p.OrderID, &p.AmountCents, &p.Method, &status, &p.CreatedAt, &p.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.Status = payment.Status(status)
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
