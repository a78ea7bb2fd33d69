package payment

import (
	"context"

	"github.com/cassiomorais/storefront/internal/domain/order"
	"github.com/cassiomorais/storefront/internal/domain/payment"
)

// CreatePaymentRequest holds the input for registering a payment attempt.
type CreatePaymentRequest struct {
	OrderID int64
	Method  string
}

// CreatePaymentUseCase registers a pending payment for an order's total.
type CreatePaymentUseCase struct {
	paymentRepo payment.Repository
	orderRepo   order.Repository
}

func NewCreatePaymentUseCase(paymentRepo payment.Repository, orderRepo order.Repository) *CreatePaymentUseCase {
	return &CreatePaymentUseCase{paymentRepo: paymentRepo, orderRepo: orderRepo}
}

func (uc *CreatePaymentUseCase) Execute(ctx context.Context, req CreatePaymentRequest) (*payment.Payment, error) {
	o, err := uc.orderRepo.GetByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	p := payment.NewPayment(o.ID, o.TotalDueCents, req.Method)
	if err := uc.paymentRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetPaymentUseCase loads a payment by id.
type GetPaymentUseCase struct {
	paymentRepo payment.Repository
}

func NewGetPaymentUseCase(paymentRepo payment.Repository) *GetPaymentUseCase {
	return &GetPaymentUseCase{paymentRepo: paymentRepo}
}

func (uc *GetPaymentUseCase) Execute(ctx context.Context, id int64) (*payment.Payment, error) {
	return uc.paymentRepo.GetByID(ctx, id)
}
