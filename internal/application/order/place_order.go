package order

import (
	"context"
	"strconv"

	"github.com/cassiomorais/storefront/internal/domain/customer"
	domainErrors "github.com/cassiomorais/storefront/internal/domain/errors"
	"github.com/cassiomorais/storefront/internal/domain/order"
	"github.com/cassiomorais/storefront/internal/domain/outbox"
	"github.com/cassiomorais/storefront/internal/domain/product"
)

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	CustomerID    int64
	TransactionID string
	Items         []ItemRequest
}

type ItemRequest struct {
	ProductID int64
	Quantity  int
}

// PlaceOrderUseCase creates an order, decrements stock under row locks and
// appends the ORDER_PLACED outbox event, all in one transaction.
type PlaceOrderUseCase struct {
	orderRepo    order.Repository
	productRepo  product.Repository
	customerRepo customer.Repository
	outboxRepo   OutboxWriter
	txManager    TransactionManager
}

func NewPlaceOrderUseCase(
	orderRepo order.Repository,
	productRepo product.Repository,
	customerRepo customer.Repository,
	outboxRepo OutboxWriter,
	txManager TransactionManager,
) *PlaceOrderUseCase {
	return &PlaceOrderUseCase{
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		outboxRepo:   outboxRepo,
		txManager:    txManager,
	}
}

// Execute places the order. Two concurrent attempts to buy the last unit
// of a product resolve to one success and one out-of-stock rejection;
// the row lock on the product is the serialization point.
func (uc *PlaceOrderUseCase) Execute(ctx context.Context, req PlaceOrderRequest) (*order.Order, error) {
	if len(req.Items) == 0 {
		return nil, domainErrors.NewValidationError("items", domainErrors.ErrEmptyOrder.Error())
	}
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, domainErrors.NewValidationError(
				"items["+strconv.Itoa(i)+"].quantity", "must be positive")
		}
	}

	cust, err := uc.customerRepo.GetByID(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	// Advisory pre-check: reject obviously unsatisfiable orders before
	// taking any lock. Not the safety mechanism; the locked re-read below is.
	for _, item := range req.Items {
		p, err := uc.productRepo.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if !p.HasStock(item.Quantity) {
			return nil, uc.outOfStock(p, item.Quantity)
		}
	}

	o := &order.Order{
		CustomerID:    req.CustomerID,
		TransactionID: req.TransactionID,
	}

	err = uc.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.orderRepo.Create(txCtx, o); err != nil {
			return err
		}

		var total int64
		for _, item := range req.Items {
			// Exclusive row lock; re-read stock under it. Concurrent
			// placements for the same product block here until commit.
			p, err := uc.productRepo.Lock(txCtx, item.ProductID)
			if err != nil {
				return err
			}
			if !p.HasStock(item.Quantity) {
				return uc.outOfStock(p, item.Quantity)
			}

			line := &order.Item{
				OrderID:     o.ID,
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    item.Quantity,
				PriceCents:  p.PriceCents,
			}
			if err := uc.orderRepo.AddItem(txCtx, line); err != nil {
				return err
			}
			if err := uc.productRepo.SetStock(txCtx, p.ID, p.StockQuantity-item.Quantity); err != nil {
				return err
			}

			o.Items = append(o.Items, line)
			total += line.Total()
		}

		if err := uc.orderRepo.SetTotal(txCtx, o.ID, total); err != nil {
			return err
		}
		o.TotalDueCents = total

		return uc.outboxRepo.Insert(txCtx, outbox.NewEvent(outbox.EventOrderPlaced, map[string]any{
			"order_id":       o.ID,
			"total_due":      centsToDecimal(total),
			"customer_email": cust.Email,
		}))
	})
	if err != nil {
		// Roll back the in-memory aggregate too; nothing persisted.
		o.Items = nil
		o.TotalDueCents = 0
		return nil, err
	}

	return o, nil
}

func (uc *PlaceOrderUseCase) outOfStock(p *product.Product, requested int) error {
	return &domainErrors.OutOfStockError{
		ProductID:   p.ID,
		ProductName: p.Name,
		Requested:   requested,
		Available:   p.StockQuantity,
	}
}

// centsToDecimal renders cents as a fixed two-decimal string, matching
// the invoice service's expected format.
func centsToDecimal(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return sign + strconv.FormatInt(cents/100, 10) + "." + pad2(cents%100)
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
