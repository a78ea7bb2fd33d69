package payment

import (
	"context"
	"time"

	domainErrors "github.com/cassiomorais/storefront/internal/domain/errors"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Payment records a payment attempt against an order.
type Payment struct {
	ID          int64
	OrderID     int64
	AmountCents int64
	Method      string
	Status      Status
	CreatedAt   time.Time
	CompletedAt *time.Time
}

func NewPayment(orderID int64, amountCents int64, method string) *Payment {
	return &Payment{
		OrderID:     orderID,
		AmountCents: amountCents,
		Method:      method,
		Status:      StatusPending,
		CreatedAt:   time.Now(),
	}
}

// MarkCompleted transitions a pending payment to its terminal success
// state. Terminal states are immutable.
func (p *Payment) MarkCompleted() error {
	if p.Status != StatusPending {
		return domainErrors.ErrInvalidStateTransition
	}
	now := time.Now()
	p.Status = StatusCompleted
	p.CompletedAt = &now
	return nil
}

// MarkFailed transitions a pending payment to failed.
func (p *Payment) MarkFailed() error {
	if p.Status != StatusPending {
		return domainErrors.ErrInvalidStateTransition
	}
	p.Status = StatusFailed
	return nil
}

type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id int64) (*Payment, error)
	// GetByIDForUpdate locks the payment row for the caller's transaction,
	// serializing concurrent state transitions.
	GetByIDForUpdate(ctx context.Context, id int64) (*Payment, error)
	Update(ctx context.Context, p *Payment) error
	ListByOrder(ctx context.Context, orderID int64) ([]*Payment, error)
}
