package order

import (
	"context"
)

type ListFilter struct {
	CustomerID int64
	Complete   *bool
	Limit      int
	Offset     int
}

type Repository interface {
	// Create inserts the order header and assigns its ID.
	Create(ctx context.Context, o *Order) error

	// AddItem inserts a line item and assigns its ID.
	AddItem(ctx context.Context, item *Item) error

	// SetTotal persists the computed total for the order.
	SetTotal(ctx context.Context, orderID int64, totalCents int64) error

	// GetByID returns the order with its items.
	GetByID(ctx context.Context, id int64) (*Order, error)

	List(ctx context.Context, filter ListFilter) ([]*Order, error)
}
