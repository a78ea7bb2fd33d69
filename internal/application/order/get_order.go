package order

import (
	"context"

	"github.com/cassiomorais/storefront/internal/domain/order"
)

// GetOrderUseCase loads an order with its items.
type GetOrderUseCase struct {
	orderRepo order.Repository
}

func NewGetOrderUseCase(orderRepo order.Repository) *GetOrderUseCase {
	return &GetOrderUseCase{orderRepo: orderRepo}
}

func (uc *GetOrderUseCase) Execute(ctx context.Context, id int64) (*order.Order, error) {
	return uc.orderRepo.GetByID(ctx, id)
}

// ListOrdersUseCase lists orders, newest first.
type ListOrdersUseCase struct {
	orderRepo order.Repository
}

func NewListOrdersUseCase(orderRepo order.Repository) *ListOrdersUseCase {
	return &ListOrdersUseCase{orderRepo: orderRepo}
}

func (uc *ListOrdersUseCase) Execute(ctx context.Context, filter order.ListFilter) ([]*order.Order, error) {
	return uc.orderRepo.List(ctx, filter)
}
