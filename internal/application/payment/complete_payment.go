package payment

import (
	"context"
	"strconv"

	appOrder "github.com/cassiomorais/storefront/internal/application/order"
	"github.com/cassiomorais/storefront/internal/domain/customer"
	"github.com/cassiomorais/storefront/internal/domain/order"
	"github.com/cassiomorais/storefront/internal/domain/outbox"
	"github.com/cassiomorais/storefront/internal/domain/payment"
)

// CompletePaymentUseCase moves a payment to its terminal success state and
// enqueues invoice generation in the same transaction. The outbox append is
// an explicit call here, not a side effect of persistence.
type CompletePaymentUseCase struct {
	paymentRepo  payment.Repository
	orderRepo    order.Repository
	customerRepo customer.Repository
	outboxRepo   appOrder.OutboxWriter
	txManager    appOrder.TransactionManager
}

func NewCompletePaymentUseCase(
	paymentRepo payment.Repository,
	orderRepo order.Repository,
	customerRepo customer.Repository,
	outboxRepo appOrder.OutboxWriter,
	txManager appOrder.TransactionManager,
) *CompletePaymentUseCase {
	return &CompletePaymentUseCase{
		paymentRepo:  paymentRepo,
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		outboxRepo:   outboxRepo,
		txManager:    txManager,
	}
}

func (uc *CompletePaymentUseCase) Execute(ctx context.Context, paymentID int64) (*payment.Payment, error) {
	var p *payment.Payment
	err := uc.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		// Row-locked read: two concurrent completions serialize here, and
		// the loser sees the committed terminal state.
		var err error
		p, err = uc.paymentRepo.GetByIDForUpdate(txCtx, paymentID)
		if err != nil {
			return err
		}
		if err := p.MarkCompleted(); err != nil {
			return err
		}

		o, err := uc.orderRepo.GetByID(txCtx, p.OrderID)
		if err != nil {
			return err
		}
		cust, err := uc.customerRepo.GetByID(txCtx, o.CustomerID)
		if err != nil {
			return err
		}

		if err := uc.paymentRepo.Update(txCtx, p); err != nil {
			return err
		}
		return uc.outboxRepo.Insert(txCtx, outbox.NewEvent(outbox.EventGenerateInvoice, invoicePayload(o, cust, p)))
	})
	if err != nil {
		return nil, err
	}

	return p, nil
}

// invoicePayload matches the invoice service's request schema.
func invoicePayload(o *order.Order, cust *customer.Customer, p *payment.Payment) map[string]any {
	items := make([]map[string]any, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, map[string]any{
			"name":  item.ProductName,
			"price": float64(item.PriceCents) / 100,
		})
	}
	return map[string]any{
		"order_id":      strconv.FormatInt(o.ID, 10),
		"customer_name": cust.FullName(),
		"amount":        float64(p.AmountCents) / 100,
		"items":         items,
	}
}
