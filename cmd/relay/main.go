package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cassiomorais/storefront/internal/bootstrap"
	"github.com/cassiomorais/storefront/internal/delivery"
	"github.com/cassiomorais/storefront/internal/domain/outbox"
	"github.com/cassiomorais/storefront/internal/relay"
	"github.com/cassiomorais/storefront/internal/repository/postgres"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.New(ctx, "storefront-relay", "storefront_relay")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	outboxRepo := postgres.NewOutboxRepository(app.Pool)
	txManager := postgres.NewTxManager(app.Pool)

	deliveryCfg := app.Config.Delivery
	dispatcher := delivery.NewDispatcher(app.Logger)
	dispatcher.Register(outbox.EventGenerateInvoice, delivery.NewHTTPHandler(
		"invoice-service",
		deliveryCfg.InvoiceServiceURL,
		deliveryCfg.RequestTimeout,
		uint(deliveryCfg.MaxRetries),
		app.Logger,
	))
	dispatcher.Register(outbox.EventOrderPlaced, delivery.NewHTTPHandler(
		"order-notifier",
		deliveryCfg.OrderNotifierURL,
		deliveryCfg.RequestTimeout,
		uint(deliveryCfg.MaxRetries),
		app.Logger,
	))

	r := relay.New(
		txManager,
		outboxRepo,
		dispatcher,
		app.Config.Relay.BatchSize,
		app.Config.Relay.PollInterval,
		app.Logger,
		relay.WithMetrics(app.Metrics),
		relay.WithMaxAttempts(app.Config.Relay.MaxAttempts),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return r.Run(gCtx)
	})

	g.Go(func() error {
		select {
		case <-gCtx.Done():
			return gCtx.Err()
		case <-quit:
			app.Logger.Info().Msg("Shutting down relay...")
			cancel()
			return nil
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		app.Logger.Error().Err(err).Msg("Relay error")
	}
	app.Logger.Info().Msg("Relay exited")
}
