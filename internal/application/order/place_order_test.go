package order_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	orderApp "github.com/cassiomorais/storefront/internal/application/order"
	domainErrors "github.com/cassiomorais/storefront/internal/domain/errors"
	"github.com/cassiomorais/storefront/internal/domain/outbox"
	"github.com/cassiomorais/storefront/internal/domain/product"
	"github.com/cassiomorais/storefront/internal/testutil"
)

func newFixture() (*orderApp.PlaceOrderUseCase, *testutil.MockOrderRepository, *testutil.MockProductRepository, *testutil.MockCustomerRepository, *testutil.MockOutboxRepository) {
	orderRepo := testutil.NewMockOrderRepository()
	productRepo := testutil.NewMockProductRepository()
	customerRepo := testutil.NewMockCustomerRepository()
	outboxRepo := testutil.NewMockOutboxRepository()
	txManager := testutil.NewMockTransactionManager()
	uc := orderApp.NewPlaceOrderUseCase(orderRepo, productRepo, customerRepo, outboxRepo, txManager)
	return uc, orderRepo, productRepo, customerRepo, outboxRepo
}

func TestPlaceOrder_Success(t *testing.T) {
	ctx := context.Background()
	uc, _, productRepo, customerRepo, outboxRepo := newFixture()

	cust := testutil.NewTestCustomer("Alice", "Smith")
	customerRepo.AddCustomer(cust)
	shirt := testutil.NewTestProduct("Shirt", 25_00, 10)
	mug := testutil.NewTestProduct("Mug", 9_50, 5)
	productRepo.AddProduct(shirt)
	productRepo.AddProduct(mug)

	o, err := uc.Execute(ctx, orderApp.PlaceOrderRequest{
		CustomerID:    cust.ID,
		TransactionID: "tx-1",
		Items: []orderApp.ItemRequest{
			{ProductID: shirt.ID, Quantity: 2},
			{ProductID: mug.ID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if o.TotalDueCents != 59_50 {
		t.Errorf("expected total 5950, got %d", o.TotalDueCents)
	}
	if len(o.Items) != 2 {
		t.Errorf("expected 2 items, got %d", len(o.Items))
	}
	if o.Items[0].PriceCents != 25_00 {
		t.Errorf("expected price at purchase 2500, got %d", o.Items[0].PriceCents)
	}

	got, err := productRepo.GetByID(ctx, shirt.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.StockQuantity != 8 {
		t.Errorf("expected stock 8, got %d", got.StockQuantity)
	}

	// Exactly one pending ORDER_PLACED event per committed placement.
	pending := outboxRepo.EventsByStatus(outbox.StatusPending)
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending outbox event, got %d", len(pending))
	}
	if pending[0].EventType != outbox.EventOrderPlaced {
		t.Errorf("expected ORDER_PLACED, got %s", pending[0].EventType)
	}
	if pending[0].Payload["order_id"] != o.ID {
		t.Errorf("expected payload order_id %d, got %v", o.ID, pending[0].Payload["order_id"])
	}
	if pending[0].Payload["total_due"] != "59.50" {
		t.Errorf("expected payload total_due 59.50, got %v", pending[0].Payload["total_due"])
	}
	if pending[0].Payload["customer_email"] != cust.Email {
		t.Errorf("expected payload customer_email %s, got %v", cust.Email, pending[0].Payload["customer_email"])
	}
}

func TestPlaceOrder_EmptyOrder(t *testing.T) {
	ctx := context.Background()
	uc, _, _, customerRepo, _ := newFixture()
	cust := testutil.NewTestCustomer("Alice", "Smith")
	customerRepo.AddCustomer(cust)

	_, err := uc.Execute(ctx, orderApp.PlaceOrderRequest{CustomerID: cust.ID})
	var validationErr *domainErrors.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestPlaceOrder_UnknownCustomer(t *testing.T) {
	ctx := context.Background()
	uc, _, productRepo, _, _ := newFixture()
	p := testutil.NewTestProduct("Shirt", 25_00, 10)
	productRepo.AddProduct(p)

	_, err := uc.Execute(ctx, orderApp.PlaceOrderRequest{
		CustomerID: 99,
		Items:      []orderApp.ItemRequest{{ProductID: p.ID, Quantity: 1}},
	})
	if !errors.Is(err, domainErrors.ErrCustomerNotFound) {
		t.Errorf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestPlaceOrder_OutOfStock_PreCheck(t *testing.T) {
	ctx := context.Background()
	uc, orderRepo, productRepo, customerRepo, outboxRepo := newFixture()

	cust := testutil.NewTestCustomer("Alice", "Smith")
	customerRepo.AddCustomer(cust)
	p := testutil.NewTestProduct("Limited Edition Item", 100_00, 1)
	productRepo.AddProduct(p)

	_, err := uc.Execute(ctx, orderApp.PlaceOrderRequest{
		CustomerID: cust.ID,
		Items:      []orderApp.ItemRequest{{ProductID: p.ID, Quantity: 2}},
	})

	var oos *domainErrors.OutOfStockError
	if !errors.As(err, &oos) {
		t.Fatalf("expected OutOfStockError, got %v", err)
	}
	if oos.ProductName != "Limited Edition Item" || oos.Requested != 2 || oos.Available != 1 {
		t.Errorf("unexpected error detail: %+v", oos)
	}
	if !errors.Is(err, domainErrors.ErrInsufficientStock) {
		t.Error("expected error to unwrap to ErrInsufficientStock")
	}

	// No order, no stock change, no outbox entry for the rejected attempt.
	if orderRepo.OrderCount() != 0 {
		t.Error("rejected order must not persist")
	}
	got, _ := productRepo.GetByID(ctx, p.ID)
	if got.StockQuantity != 1 {
		t.Errorf("expected stock unchanged at 1, got %d", got.StockQuantity)
	}
	if len(outboxRepo.EventsByStatus(outbox.StatusPending)) != 0 {
		t.Error("rejected order must not write an outbox event")
	}
}

func TestPlaceOrder_MultiItem_RollsBackOnLaterItem(t *testing.T) {
	ctx := context.Background()
	uc, _, productRepo, customerRepo, outboxRepo := newFixture()

	cust := testutil.NewTestCustomer("Alice", "Smith")
	customerRepo.AddCustomer(cust)
	plenty := testutil.NewTestProduct("Plenty", 10_00, 100)
	productRepo.AddProduct(plenty)

	// Second item passes the advisory pre-check but fails under the lock,
	// as if a concurrent order drained it in between.
	scarce := testutil.NewTestProduct("Scarce", 10_00, 5)
	productRepo.AddProduct(scarce)
	productRepo.LockFunc = func(ctx context.Context, id int64) (*product.Product, error) {
		if id == scarce.ID {
			cp := *scarce
			cp.StockQuantity = 0
			return &cp, nil
		}
		cp := *plenty
		return &cp, nil
	}

	_, err := uc.Execute(ctx, orderApp.PlaceOrderRequest{
		CustomerID: cust.ID,
		Items: []orderApp.ItemRequest{
			{ProductID: plenty.ID, Quantity: 1},
			{ProductID: scarce.ID, Quantity: 1},
		},
	})

	var oos *domainErrors.OutOfStockError
	if !errors.As(err, &oos) {
		t.Fatalf("expected OutOfStockError from locked re-check, got %v", err)
	}
	if len(outboxRepo.EventsByStatus(outbox.StatusPending)) != 0 {
		t.Error("failed transaction must not leave an outbox event")
	}
}

// Two concurrent buyers of the last unit with distinct idempotency keys:
// exactly one succeeds, stock ends at zero, never negative.
func TestPlaceOrder_ConcurrentLastUnit(t *testing.T) {
	ctx := context.Background()
	uc, orderRepo, productRepo, customerRepo, outboxRepo := newFixture()

	cust := testutil.NewTestCustomer("Alice", "Smith")
	customerRepo.AddCustomer(cust)
	p := testutil.NewTestProduct("Limited Edition Item", 100_00, 1)
	productRepo.AddProduct(p)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = uc.Execute(ctx, orderApp.PlaceOrderRequest{
				CustomerID: cust.ID,
				Items:      []orderApp.ItemRequest{{ProductID: p.ID, Quantity: 1}},
			})
		}(i)
	}
	wg.Wait()

	var successes, rejections int
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, domainErrors.ErrInsufficientStock):
			rejections++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 || rejections != 1 {
		t.Fatalf("expected 1 success and 1 rejection, got %d/%d", successes, rejections)
	}

	got, _ := productRepo.GetByID(ctx, p.ID)
	if got.StockQuantity != 0 {
		t.Errorf("expected stock 0, got %d", got.StockQuantity)
	}
	if orderRepo.OrderCount() != 1 {
		t.Errorf("expected exactly 1 order, got %d", orderRepo.OrderCount())
	}
	if n := len(outboxRepo.EventsByStatus(outbox.StatusPending)); n != 1 {
		t.Errorf("expected exactly 1 outbox event, got %d", n)
	}
}

func TestPlaceOrder_OutboxInsertFailure_FailsPlacement(t *testing.T) {
	ctx := context.Background()
	uc, _, productRepo, customerRepo, outboxRepo := newFixture()

	cust := testutil.NewTestCustomer("Alice", "Smith")
	customerRepo.AddCustomer(cust)
	p := testutil.NewTestProduct("Shirt", 25_00, 10)
	productRepo.AddProduct(p)

	outboxErr := errors.New("outbox insert failed")
	outboxRepo.InsertFunc = func(ctx context.Context, _ *outbox.Event) error {
		return outboxErr
	}

	_, err := uc.Execute(ctx, orderApp.PlaceOrderRequest{
		CustomerID: cust.ID,
		Items:      []orderApp.ItemRequest{{ProductID: p.ID, Quantity: 1}},
	})
	if !errors.Is(err, outboxErr) {
		t.Errorf("expected outbox error to fail the transaction, got %v", err)
	}
}
