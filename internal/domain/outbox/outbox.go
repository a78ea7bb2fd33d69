package outbox

import (
	"time"

	"github.com/cassiomorais/storefront/internal/domain/errors"
)

// Event is a durable record of a domain event, written in the same
// transaction as the state change it describes.
type Event struct {
	ID          int64
	EventType   string
	Payload     map[string]any
	Status      Status
	Attempts    int
	MaxAttempts int
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

type Status string

const (
	// StatusPending events have never been delivered.
	StatusPending Status = "pending"
	// StatusSent is terminal: the downstream service acknowledged delivery.
	StatusSent Status = "sent"
	// StatusFailed events re-enter the claimable pool on the next poll.
	StatusFailed Status = "failed"
	// StatusDead events exhausted their attempts and are parked until
	// an operator requeues them.
	StatusDead Status = "dead"
)

const (
	EventOrderPlaced     = "ORDER_PLACED"
	EventGenerateInvoice = "GENERATE_INVOICE"
)

// DefaultMaxAttempts caps relay retries before an event is parked as dead.
const DefaultMaxAttempts = 5

func NewEvent(eventType string, payload map[string]any) *Event {
	return &Event{
		EventType:   eventType,
		Payload:     payload,
		Status:      StatusPending,
		Attempts:    0,
		MaxAttempts: DefaultMaxAttempts,
		CreatedAt:   time.Now(),
	}
}

// MarkSent records a successful delivery. ProcessedAt is set exactly once.
func (e *Event) MarkSent() {
	if e.Status == StatusSent {
		return
	}
	now := time.Now()
	e.Status = StatusSent
	e.ProcessedAt = &now
}

// RecordFailure counts a failed delivery attempt. The event stays
// retry-eligible until MaxAttempts is reached, then parks as dead.
func (e *Event) RecordFailure() {
	e.Attempts++
	if e.MaxAttempts > 0 && e.Attempts >= e.MaxAttempts {
		e.Status = StatusDead
		return
	}
	e.Status = StatusFailed
}

// Requeue revives a dead event so the relay picks it up again. Only dead
// events are requeueable; pending and failed events are already in the
// claim pool, and sent events are done.
func (e *Event) Requeue() error {
	if e.Status != StatusDead {
		return errors.ErrEventNotRequeueable
	}
	e.Status = StatusPending
	e.Attempts = 0
	return nil
}
