package order

import (
	"time"
)

// Order aggregates line items for a customer. TotalDueCents is computed
// from the items at placement time and persisted with the order.
type Order struct {
	ID            int64
	CustomerID    int64
	TransactionID string
	Complete      bool
	TotalDueCents int64
	PlacedAt      time.Time
	Items         []*Item
}

// Item is a line item priced at the product's price at purchase time.
type Item struct {
	ID          int64
	OrderID     int64
	ProductID   int64
	ProductName string
	Quantity    int
	PriceCents  int64
}

// Total returns the line total in cents.
func (i *Item) Total() int64 {
	return int64(i.Quantity) * i.PriceCents
}

// ComputeTotal sums line totals.
func (o *Order) ComputeTotal() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.Total()
	}
	return total
}
