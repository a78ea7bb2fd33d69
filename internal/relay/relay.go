package relay

import (
	"context"
	"time"

	"github.com/cassiomorais/storefront/internal/domain/outbox"
	"github.com/cassiomorais/storefront/internal/infrastructure/observability"
	"github.com/rs/zerolog"
)

// TransactionManager scopes a claim cycle to one database transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventStore is the slice of the outbox repository the relay needs.
type EventStore interface {
	Claim(ctx context.Context, limit int) ([]*outbox.Event, error)
	UpdateStatus(ctx context.Context, event *outbox.Event) error
}

// Dispatcher routes a claimed event to its downstream transport.
type Dispatcher interface {
	Dispatch(ctx context.Context, event *outbox.Event) error
}

// Relay polls the outbox and delivers claimed events. Multiple relay
// instances cooperate through the SKIP LOCKED claim; none of them blocks
// another.
type Relay struct {
	txManager    TransactionManager
	store        EventStore
	dispatcher   Dispatcher
	batchSize    int
	pollInterval time.Duration
	maxAttempts  int
	logger       zerolog.Logger
	metrics      *observability.Metrics
}

type Option func(*Relay)

// WithMetrics attaches relay metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Relay) { r.metrics = m }
}

// WithMaxAttempts overrides the attempt budget of every claimed event.
// Retry policy is the relay's to decide, not the writer's; changing the
// setting applies to events already in the table.
func WithMaxAttempts(n int) Option {
	return func(r *Relay) { r.maxAttempts = n }
}

func New(
	txManager TransactionManager,
	store EventStore,
	dispatcher Dispatcher,
	batchSize int,
	pollInterval time.Duration,
	logger zerolog.Logger,
	opts ...Option,
) *Relay {
	r := &Relay{
		txManager:    txManager,
		store:        store,
		dispatcher:   dispatcher,
		batchSize:    batchSize,
		pollInterval: pollInterval,
		logger:       logger,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run polls until ctx is cancelled. A failing cycle (database down, etc.)
// is logged and retried on the next tick; sustained operation matters more
// than any single cycle. In-flight work finishes before Run returns.
func (r *Relay) Run(ctx context.Context) error {
	r.logger.Info().
		Int("batch_size", r.batchSize).
		Dur("poll_interval", r.pollInterval).
		Msg("Outbox relay started")

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("Outbox relay stopped")
			return nil
		case <-ticker.C:
		}

		if err := r.runCycle(ctx); err != nil {
			r.logger.Error().Err(err).Msg("Relay cycle failed")
		}
	}
}

// runCycle claims one batch and delivers it. Claims and status updates
// share a transaction: a crash mid-batch rolls every claimed row back to
// its prior status, so no event is ever lost, only possibly redelivered.
func (r *Relay) runCycle(ctx context.Context) error {
	start := time.Now()
	defer func() {
		if r.metrics != nil {
			r.metrics.RelayCycleDuration.Observe(time.Since(start).Seconds())
		}
	}()

	return r.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		events, err := r.store.Claim(txCtx, r.batchSize)
		if err != nil {
			return err
		}
		if r.metrics != nil {
			r.metrics.RelayBatchSize.Observe(float64(len(events)))
		}

		for _, event := range events {
			if r.maxAttempts > 0 {
				event.MaxAttempts = r.maxAttempts
			}
			r.deliver(ctx, txCtx, event)
		}
		return nil
	})
}

// deliver attempts one event. A failure marks the event and moves on;
// one poisoned event never aborts its siblings.
func (r *Relay) deliver(ctx, txCtx context.Context, event *outbox.Event) {
	if err := r.dispatcher.Dispatch(ctx, event); err != nil {
		// A failure caused by shutdown says nothing about the event;
		// leave it untouched and let the next relay instance claim it.
		if ctx.Err() != nil {
			r.logger.Info().
				Int64("event_id", event.ID).
				Str("event_type", event.EventType).
				Msg("Delivery interrupted by shutdown, event left unclaimed")
			return
		}
		r.logger.Error().
			Err(err).
			Int64("event_id", event.ID).
			Str("event_type", event.EventType).
			Int("attempts", event.Attempts+1).
			Msg("Delivery failed")

		event.RecordFailure()
		if event.Status == outbox.StatusDead {
			r.logger.Warn().
				Int64("event_id", event.ID).
				Str("event_type", event.EventType).
				Msg("Event exhausted attempts, parked as dead")
		}
		if err := r.store.UpdateStatus(txCtx, event); err != nil {
			r.logger.Error().Err(err).Int64("event_id", event.ID).Msg("Failed to persist failure")
		}
		r.countDelivery(event.EventType, "failure")
		return
	}

	event.MarkSent()
	if err := r.store.UpdateStatus(txCtx, event); err != nil {
		r.logger.Error().Err(err).Int64("event_id", event.ID).Msg("Failed to persist success")
		return
	}
	r.countDelivery(event.EventType, "success")

	r.logger.Info().
		Int64("event_id", event.ID).
		Str("event_type", event.EventType).
		Msg("Event delivered")
}

func (r *Relay) countDelivery(eventType, result string) {
	if r.metrics != nil {
		r.metrics.OutboxDelivered.WithLabelValues(eventType, result).Inc()
	}
}
