package testutil

import (
	"time"

	"github.com/cassiomorais/storefront/internal/domain/customer"
	"github.com/cassiomorais/storefront/internal/domain/product"
)

// NewTestProduct builds a product with the given stock and price.
func NewTestProduct(name string, priceCents int64, stock int) *product.Product {
	now := time.Now()
	return &product.Product{
		Name:          name,
		PriceCents:    priceCents,
		StockQuantity: stock,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// NewTestCustomer builds a customer with a derived email.
func NewTestCustomer(firstName, lastName string) *customer.Customer {
	return &customer.Customer{
		FirstName: firstName,
		LastName:  lastName,
		Email:     firstName + "@example.com",
		CreatedAt: time.Now(),
	}
}
