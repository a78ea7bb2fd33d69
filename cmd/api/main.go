package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cassiomorais/storefront/internal/application/catalog"
	orderApp "github.com/cassiomorais/storefront/internal/application/order"
	paymentApp "github.com/cassiomorais/storefront/internal/application/payment"
	"github.com/cassiomorais/storefront/internal/bootstrap"
	"github.com/cassiomorais/storefront/internal/controller"
	infraRedis "github.com/cassiomorais/storefront/internal/infrastructure/redis"
	"github.com/cassiomorais/storefront/internal/repository/postgres"
)

func main() {
	ctx := context.Background()

	app, err := bootstrap.New(ctx, "storefront-api", "storefront")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	// --- Repositories ---
	productRepo := postgres.NewProductRepository(app.Pool)
	customerRepo := postgres.NewCustomerRepository(app.Pool)
	orderRepo := postgres.NewOrderRepository(app.Pool)
	paymentRepo := postgres.NewPaymentRepository(app.Pool)
	outboxRepo := postgres.NewOutboxRepository(app.Pool)
	txManager := postgres.NewTxManager(app.Pool)

	idempotencyStore := infraRedis.NewIdempotencyStore(
		app.Redis,
		app.Config.Idempotency.LockTTL,
		app.Config.Idempotency.ResponseTTL,
	)

	// --- Application services ---
	catalogSvc := catalog.NewService(productRepo, customerRepo)
	placeOrderUC := orderApp.NewPlaceOrderUseCase(orderRepo, productRepo, customerRepo, outboxRepo, txManager)
	getOrderUC := orderApp.NewGetOrderUseCase(orderRepo)
	listOrdersUC := orderApp.NewListOrdersUseCase(orderRepo)
	createPaymentUC := paymentApp.NewCreatePaymentUseCase(paymentRepo, orderRepo)
	getPaymentUC := paymentApp.NewGetPaymentUseCase(paymentRepo)
	completePaymentUC := paymentApp.NewCompletePaymentUseCase(paymentRepo, orderRepo, customerRepo, outboxRepo, txManager)
	failPaymentUC := paymentApp.NewFailPaymentUseCase(paymentRepo, txManager)

	// --- Build router ---
	router := controller.NewRouter(controller.RouterDeps{
		Pool:             app.Pool,
		RedisClient:      app.Redis,
		Catalog:          catalogSvc,
		PlaceOrder:       placeOrderUC,
		GetOrder:         getOrderUC,
		ListOrders:       listOrdersUC,
		CreatePayment:    createPaymentUC,
		GetPayment:       getPaymentUC,
		CompletePayment:  completePaymentUC,
		FailPayment:      failPaymentUC,
		OutboxRepo:       outboxRepo,
		IdempotencyStore: idempotencyStore,
		Metrics:          app.Metrics,
		CORSConfig:       app.Config.Server.CORS,
		Logger:           app.Logger,
	})

	// --- HTTP server ---
	addr := fmt.Sprintf(":%d", app.Config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	go func() {
		app.Logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Logger.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	app.Logger.Info().Msg("Server exited")
}
