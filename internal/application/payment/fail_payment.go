package payment

import (
	"context"

	appOrder "github.com/cassiomorais/storefront/internal/application/order"
	"github.com/cassiomorais/storefront/internal/domain/payment"
)

// FailPaymentUseCase moves a pending payment to failed. No invoice event
// is written; a failed payment produces nothing downstream.
type FailPaymentUseCase struct {
	paymentRepo payment.Repository
	txManager   appOrder.TransactionManager
}

func NewFailPaymentUseCase(paymentRepo payment.Repository, txManager appOrder.TransactionManager) *FailPaymentUseCase {
	return &FailPaymentUseCase{paymentRepo: paymentRepo, txManager: txManager}
}

func (uc *FailPaymentUseCase) Execute(ctx context.Context, paymentID int64) (*payment.Payment, error) {
	var p *payment.Payment
	err := uc.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		p, err = uc.paymentRepo.GetByIDForUpdate(txCtx, paymentID)
		if err != nil {
			return err
		}
		if err := p.MarkFailed(); err != nil {
			return err
		}
		return uc.paymentRepo.Update(txCtx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}
