package product

import (
	"context"
)

type ListFilter struct {
	InStockOnly bool
	Limit       int
	Offset      int
}

type Repository interface {
	Create(ctx context.Context, p *Product) error

	GetByID(ctx context.Context, id int64) (*Product, error)

	// Lock re-reads the product under an exclusive row lock. Must run
	// inside a transaction; concurrent callers block until commit.
	Lock(ctx context.Context, id int64) (*Product, error)

	// SetStock persists a new stock quantity (typically after Lock).
	SetStock(ctx context.Context, id int64, quantity int) error

	List(ctx context.Context, filter ListFilter) ([]*Product, error)
}
