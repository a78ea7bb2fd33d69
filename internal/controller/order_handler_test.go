package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	appOrder "github.com/cassiomorais/storefront/internal/application/order"
	"github.com/cassiomorais/storefront/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrderController(t *testing.T) (*OrderController, *testutil.MockProductRepository, *testutil.MockCustomerRepository, *testutil.MockOrderRepository) {
	t.Helper()

	productRepo := testutil.NewMockProductRepository()
	customerRepo := testutil.NewMockCustomerRepository()
	orderRepo := testutil.NewMockOrderRepository()
	outboxRepo := testutil.NewMockOutboxRepository()
	txManager := testutil.NewMockTransactionManager()

	placeOrder := appOrder.NewPlaceOrderUseCase(orderRepo, productRepo, customerRepo, outboxRepo, txManager)
	getOrder := appOrder.NewGetOrderUseCase(orderRepo)
	listOrders := appOrder.NewListOrdersUseCase(orderRepo)

	return NewOrderController(placeOrder, getOrder, listOrders, nil), productRepo, customerRepo, orderRepo
}

func TestOrderController_Create(t *testing.T) {
	handler, productRepo, customerRepo, _ := newOrderController(t)

	productRepo.AddProduct(testutil.NewTestProduct("Shirt", 25_00, 10))
	customerRepo.AddCustomer(testutil.NewTestCustomer("Alice", "Smith"))

	body, _ := json.Marshal(PlaceOrderRequest{
		CustomerID: 1,
		Items:      []OrderItemRequest{{ProductID: 1, Quantity: 2}},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp OrderResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, int64(1), resp.CustomerID)
	assert.Equal(t, 50.0, resp.TotalDue)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Shirt", resp.Items[0].ProductName)
	assert.Equal(t, 25.0, resp.Items[0].Price)
}

func TestOrderController_Create_OutOfStock(t *testing.T) {
	handler, productRepo, customerRepo, orderRepo := newOrderController(t)

	productRepo.AddProduct(testutil.NewTestProduct("Shirt", 25_00, 1))
	customerRepo.AddCustomer(testutil.NewTestCustomer("Alice", "Smith"))

	body, _ := json.Marshal(PlaceOrderRequest{
		CustomerID: 1,
		Items:      []OrderItemRequest{{ProductID: 1, Quantity: 5}},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "insufficient_stock", resp.Code)
	assert.Contains(t, resp.Error, "Shirt")
	assert.Equal(t, 0, orderRepo.OrderCount())
}

func TestOrderController_Create_InvalidBody(t *testing.T) {
	handler, _, _, _ := newOrderController(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader([]byte(`{"customer_id":1,"items":[]}`)))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderController_Get_NotFound(t *testing.T) {
	handler, _, _, _ := newOrderController(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/99", nil)
	req = withIDParam(req, "99")
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// withIDParam injects a chi route context carrying {id}.
func withIDParam(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
