package product

import (
	"time"
)

// Product is a catalog item. StockQuantity is the one piece of mutable
// shared state in the system; it is only ever decremented under a row lock.
type Product struct {
	ID            int64
	Name          string
	Description   string
	PriceCents    int64
	StockQuantity int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasStock reports whether the product can satisfy the requested quantity.
func (p *Product) HasStock(quantity int) bool {
	return p.StockQuantity >= quantity
}
