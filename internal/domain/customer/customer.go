package customer

import (
	"context"
	"time"
)

type Customer struct {
	ID          int64
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	CreatedAt   time.Time
}

// FullName is used on invoices.
func (c *Customer) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

type Repository interface {
	Create(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, id int64) (*Customer, error)
	List(ctx context.Context, limit, offset int) ([]*Customer, error)
}
