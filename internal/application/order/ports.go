package order

import (
	"context"

	"github.com/cassiomorais/storefront/internal/domain/outbox"
)

// TransactionManager defines the interface for transaction management.
// This is an application-layer port, not a domain concern.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// OutboxWriter defines the interface for appending to the transactional outbox.
type OutboxWriter interface {
	Insert(ctx context.Context, event *outbox.Event) error
}
