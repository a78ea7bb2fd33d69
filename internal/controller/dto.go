package controller

import (
	"time"

	"github.com/cassiomorais/storefront/internal/domain/customer"
	"github.com/cassiomorais/storefront/internal/domain/order"
	"github.com/cassiomorais/storefront/internal/domain/outbox"
	"github.com/cassiomorais/storefront/internal/domain/payment"
	"github.com/cassiomorais/storefront/internal/domain/product"
)

// --- Request DTOs ---
// DTOs own the HTTP/JSON concerns (float64 for money, validation tags).
// Controllers convert them to application requests before calling
// business logic; money crosses that boundary as integer cents.

type CreateProductRequest struct {
	Name          string  `json:"name" validate:"required,max=200"`
	Description   string  `json:"description"`
	Price         float64 `json:"price" validate:"gte=0"`
	StockQuantity int     `json:"stock_quantity" validate:"gte=0"`
}

type CreateCustomerRequest struct {
	FirstName   string `json:"first_name" validate:"required,max=100"`
	LastName    string `json:"last_name" validate:"max=100"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phone_number" validate:"max=30"`
}

type PlaceOrderRequest struct {
	CustomerID    int64              `json:"customer_id" validate:"required,gt=0"`
	TransactionID string             `json:"transaction_id" validate:"max=200"`
	Items         []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type OrderItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

type CreatePaymentRequest struct {
	OrderID int64  `json:"order_id" validate:"required,gt=0"`
	Method  string `json:"method" validate:"required,max=50"`
}

// --- Response DTOs ---

type ProductResponse struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Price         float64   `json:"price"`
	StockQuantity int       `json:"stock_quantity"`
	CreatedAt     time.Time `json:"created_at"`
}

type CustomerResponse struct {
	ID          int64     `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type OrderResponse struct {
	ID            int64               `json:"id"`
	CustomerID    int64               `json:"customer_id"`
	TransactionID string              `json:"transaction_id,omitempty"`
	Complete      bool                `json:"complete"`
	TotalDue      float64             `json:"total_due"`
	PlacedAt      time.Time           `json:"placed_at"`
	Items         []OrderItemResponse `json:"items"`
}

type OrderItemResponse struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Total       float64 `json:"total"`
}

type PaymentResponse struct {
	ID          int64      `json:"id"`
	OrderID     int64      `json:"order_id"`
	Amount      float64    `json:"amount"`
	Method      string     `json:"method"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type OutboxEventResponse struct {
	ID          int64          `json:"id"`
	EventType   string         `json:"event_type"`
	Payload     map[string]any `json:"payload"`
	Status      string         `json:"status"`
	Attempts    int            `json:"attempts"`
	MaxAttempts int            `json:"max_attempts"`
	CreatedAt   time.Time      `json:"created_at"`
	ProcessedAt *time.Time     `json:"processed_at,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// --- Conversion helpers ---

func FromProduct(p *product.Product) *ProductResponse {
	return &ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         centsToFloat(p.PriceCents),
		StockQuantity: p.StockQuantity,
		CreatedAt:     p.CreatedAt,
	}
}

func FromCustomer(c *customer.Customer) *CustomerResponse {
	return &CustomerResponse{
		ID:          c.ID,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Email:       c.Email,
		PhoneNumber: c.PhoneNumber,
		CreatedAt:   c.CreatedAt,
	}
}

func FromOrder(o *order.Order) *OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemResponse{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       centsToFloat(item.PriceCents),
			Total:       centsToFloat(item.Total()),
		})
	}
	return &OrderResponse{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		TransactionID: o.TransactionID,
		Complete:      o.Complete,
		TotalDue:      centsToFloat(o.TotalDueCents),
		PlacedAt:      o.PlacedAt,
		Items:         items,
	}
}

func FromPayment(p *payment.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:          p.ID,
		OrderID:     p.OrderID,
		Amount:      centsToFloat(p.AmountCents),
		Method:      p.Method,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt,
		CompletedAt: p.CompletedAt,
	}
}

func FromOutboxEvent(e *outbox.Event) *OutboxEventResponse {
	return &OutboxEventResponse{
		ID:          e.ID,
		EventType:   e.EventType,
		Payload:     e.Payload,
		Status:      string(e.Status),
		Attempts:    e.Attempts,
		MaxAttempts: e.MaxAttempts,
		CreatedAt:   e.CreatedAt,
		ProcessedAt: e.ProcessedAt,
	}
}

// floatToCents converts a float money amount to cents.
func floatToCents(f float64) int64 {
	return int64(f*100 + 0.5)
}

// centsToFloat converts cents to a float money amount.
func centsToFloat(cents int64) float64 {
	return float64(cents) / 100.0
}
