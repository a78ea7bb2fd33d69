package outbox

import (
	"context"
)

// ListFilter narrows audit queries over the outbox table.
type ListFilter struct {
	Status    Status
	EventType string
	Limit     int
	Offset    int
}

type Repository interface {
	// Insert creates a new outbox event (inside the caller's transaction).
	Insert(ctx context.Context, event *Event) error

	// Claim selects up to limit pending or failed events, oldest first,
	// skipping rows locked by concurrent relay workers. Must run inside
	// a transaction; the claim is released at commit/rollback.
	Claim(ctx context.Context, limit int) ([]*Event, error)

	// UpdateStatus persists the status, attempts and processed_at fields
	// of an event mutated via MarkSent/RecordFailure/Requeue.
	UpdateStatus(ctx context.Context, event *Event) error

	// GetByID returns a single event.
	GetByID(ctx context.Context, id int64) (*Event, error)

	// List returns events for the audit endpoint, newest first.
	List(ctx context.Context, filter ListFilter) ([]*Event, error)
}
