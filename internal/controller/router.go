package controller

import (
	"time"

	"github.com/cassiomorais/storefront/internal/application/catalog"
	appOrder "github.com/cassiomorais/storefront/internal/application/order"
	appPayment "github.com/cassiomorais/storefront/internal/application/payment"
	"github.com/cassiomorais/storefront/internal/domain/outbox"
	"github.com/cassiomorais/storefront/internal/infrastructure/config"
	"github.com/cassiomorais/storefront/internal/infrastructure/observability"
	customMW "github.com/cassiomorais/storefront/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type RouterDeps struct {
	Pool        *pgxpool.Pool
	RedisClient *redis.Client

	Catalog         *catalog.Service
	PlaceOrder      *appOrder.PlaceOrderUseCase
	GetOrder        *appOrder.GetOrderUseCase
	ListOrders      *appOrder.ListOrdersUseCase
	CreatePayment   *appPayment.CreatePaymentUseCase
	GetPayment      *appPayment.GetPaymentUseCase
	CompletePayment *appPayment.CompletePaymentUseCase
	FailPayment     *appPayment.FailPaymentUseCase
	OutboxRepo      outbox.Repository

	IdempotencyStore customMW.IdempotencyStore
	Metrics          *observability.Metrics
	CORSConfig       config.CORSConfig
	Logger           zerolog.Logger
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(customMW.Tracing())
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSConfig.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link", "X-Idempotency-Replayed"},
		AllowCredentials: deps.CORSConfig.AllowCredentials,
		MaxAge:           300,
	}))
	r.Use(customMW.Metrics(deps.Metrics))

	healthH := NewHealthController(deps.Pool, deps.RedisClient)
	catalogH := NewCatalogController(deps.Catalog)
	orderH := NewOrderController(deps.PlaceOrder, deps.GetOrder, deps.ListOrders, deps.Metrics)
	paymentH := NewPaymentController(deps.CreatePayment, deps.GetPayment, deps.CompletePayment, deps.FailPayment)
	outboxH := NewOutboxController(deps.OutboxRepo)

	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency gate for mutating endpoints with side effects that
		// must not run twice.
		idempotencyMW := customMW.Idempotency(deps.IdempotencyStore, deps.Logger, deps.Metrics)

		// Catalog
		r.Post("/products", catalogH.CreateProduct)
		r.Get("/products", catalogH.ListProducts)
		r.Get("/products/{id}", catalogH.GetProduct)
		r.Post("/customers", catalogH.CreateCustomer)
		r.Get("/customers", catalogH.ListCustomers)
		r.Get("/customers/{id}", catalogH.GetCustomer)

		// Orders
		r.With(idempotencyMW).Post("/orders", orderH.Create)
		r.Get("/orders", orderH.List)
		r.Get("/orders/{id}", orderH.Get)

		// Payments
		r.With(idempotencyMW).Post("/payments", paymentH.Create)
		r.Get("/payments/{id}", paymentH.Get)
		r.With(idempotencyMW).Post("/payments/{id}/complete", paymentH.Complete)
		r.Post("/payments/{id}/fail", paymentH.Fail)

		// Outbox audit and operations
		r.Get("/outbox/events", outboxH.List)
		r.Get("/outbox/events/{id}", outboxH.Get)
		r.Post("/outbox/events/{id}/requeue", outboxH.Requeue)
	})

	return r
}
