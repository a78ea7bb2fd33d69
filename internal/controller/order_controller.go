package controller

import (
	"net/http"

	appOrder "github.com/cassiomorais/storefront/internal/application/order"
	"github.com/cassiomorais/storefront/internal/domain/order"
	"github.com/cassiomorais/storefront/internal/infrastructure/observability"
)

type OrderController struct {
	placeOrder *appOrder.PlaceOrderUseCase
	getOrder   *appOrder.GetOrderUseCase
	listOrders *appOrder.ListOrdersUseCase
	metrics    *observability.Metrics
}

func NewOrderController(
	placeOrder *appOrder.PlaceOrderUseCase,
	getOrder *appOrder.GetOrderUseCase,
	listOrders *appOrder.ListOrdersUseCase,
	metrics *observability.Metrics,
) *OrderController {
	return &OrderController{
		placeOrder: placeOrder,
		getOrder:   getOrder,
		listOrders: listOrders,
		metrics:    metrics,
	}
}

func (c *OrderController) Create(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	items := make([]appOrder.ItemRequest, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, appOrder.ItemRequest{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	o, err := c.placeOrder.Execute(r.Context(), appOrder.PlaceOrderRequest{
		CustomerID:    req.CustomerID,
		TransactionID: req.TransactionID,
		Items:         items,
	})
	if err != nil {
		c.countPlacement(err)
		writeError(w, err)
		return
	}

	c.countPlacement(nil)
	writeJSON(w, http.StatusCreated, FromOrder(o))
}

func (c *OrderController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	o, err := c.getOrder.Execute(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromOrder(o))
}

func (c *OrderController) List(w http.ResponseWriter, r *http.Request) {
	filter := order.ListFilter{
		CustomerID: int64(queryInt(r, "customer_id", 0)),
		Limit:      queryInt(r, "limit", 50),
		Offset:     queryInt(r, "offset", 0),
	}

	orders, err := c.listOrders.Execute(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]*OrderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, FromOrder(o))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (c *OrderController) countPlacement(err error) {
	if c.metrics == nil {
		return
	}
	if err == nil {
		c.metrics.OrdersPlaced.WithLabelValues("success").Inc()
		return
	}
	c.metrics.OrdersPlaced.WithLabelValues("failure").Inc()
	if isStockError(err) {
		c.metrics.StockRejections.Inc()
	}
}
