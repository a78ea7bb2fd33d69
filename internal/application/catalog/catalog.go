package catalog

import (
	"context"

	"github.com/cassiomorais/storefront/internal/domain/customer"
	domainErrors "github.com/cassiomorais/storefront/internal/domain/errors"
	"github.com/cassiomorais/storefront/internal/domain/product"
)

// Service bundles the thin product/customer operations. No transactional
// coordination needed here; each call is a single statement.
type Service struct {
	productRepo  product.Repository
	customerRepo customer.Repository
}

func NewService(productRepo product.Repository, customerRepo customer.Repository) *Service {
	return &Service{productRepo: productRepo, customerRepo: customerRepo}
}

type CreateProductRequest struct {
	Name          string
	Description   string
	PriceCents    int64
	StockQuantity int
}

func (s *Service) CreateProduct(ctx context.Context, req CreateProductRequest) (*product.Product, error) {
	if req.PriceCents < 0 {
		return nil, domainErrors.NewValidationError("price_cents", "must not be negative")
	}
	if req.StockQuantity < 0 {
		return nil, domainErrors.NewValidationError("stock_quantity", "must not be negative")
	}

	p := &product.Product{
		Name:          req.Name,
		Description:   req.Description,
		PriceCents:    req.PriceCents,
		StockQuantity: req.StockQuantity,
	}
	if err := s.productRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*product.Product, error) {
	return s.productRepo.GetByID(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context, filter product.ListFilter) ([]*product.Product, error) {
	return s.productRepo.List(ctx, filter)
}

type CreateCustomerRequest struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
}

func (s *Service) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*customer.Customer, error) {
	c := &customer.Customer{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
	}
	if err := s.customerRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) GetCustomer(ctx context.Context, id int64) (*customer.Customer, error) {
	return s.customerRepo.GetByID(ctx, id)
}

func (s *Service) ListCustomers(ctx context.Context, limit, offset int) ([]*customer.Customer, error) {
	return s.customerRepo.List(ctx, limit, offset)
}
