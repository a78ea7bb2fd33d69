package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/cassiomorais/storefront/internal/domain/outbox"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// Dispatcher routes events to registered handlers by event type. Each
// destination gets its own circuit breaker, so a downstream outage fails
// fast instead of burning a full retry cycle per event; breakers are
// keyed by handler name, letting event types that share a destination
// share its breaker.
type Dispatcher struct {
	handlers map[string]Handler
	breakers map[string]*gobreaker.CircuitBreaker[struct{}]
	logger   zerolog.Logger
}

func NewDispatcher(logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string]Handler),
		breakers: make(map[string]*gobreaker.CircuitBreaker[struct{}]),
		logger:   logger,
	}
}

func (d *Dispatcher) Register(eventType string, h Handler) {
	d.handlers[eventType] = h
	if _, ok := d.breakers[h.Name()]; ok {
		return
	}
	d.breakers[h.Name()] = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        h.Name(),
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			d.logger.Warn().
				Str("destination", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	})
}

// Dispatch delivers one event through its handler. An event type with no
// registered handler is a delivery failure, not a panic: the event goes
// through the normal retry bookkeeping and eventually parks as dead.
func (d *Dispatcher) Dispatch(ctx context.Context, event *outbox.Event) error {
	h, ok := d.handlers[event.EventType]
	if !ok {
		return fmt.Errorf("no handler registered for event type %q", event.EventType)
	}

	breaker := d.breakers[h.Name()]
	_, err := breaker.Execute(func() (struct{}, error) {
		return struct{}{}, h.Deliver(ctx, event)
	})
	return err
}
