package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	domainErrors "github.com/cassiomorais/storefront/internal/domain/errors"
	"github.com/cassiomorais/storefront/internal/domain/outbox"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OutboxRepository struct {
	pool *pgxpool.Pool
}

func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{pool: pool}
}

func (r *OutboxRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

func (r *OutboxRepository) Insert(ctx context.Context, event *outbox.Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}
	err = r.db(ctx).QueryRow(ctx,
		`INSERT INTO outbox (event_type, payload, status, attempts, max_attempts, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		event.EventType, payload, string(event.Status), event.Attempts, event.MaxAttempts, event.CreatedAt,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

// Claim selects pending and failed events oldest-first, locking the rows
// so concurrent relay workers partition the pool without blocking each
// other. Must run inside a transaction.
func (r *OutboxRepository) Claim(ctx context.Context, limit int) ([]*outbox.Event, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db(ctx).Query(ctx,
		`SELECT id, event_type, payload, status, attempts, max_attempts, created_at, processed_at
		 FROM outbox
		 WHERE status IN ('pending', 'failed')
		 ORDER BY created_at ASC
		 LIMIT $1
		 FOR UPDATE SKIP LOCKED`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("claim outbox events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (r *OutboxRepository) UpdateStatus(ctx context.Context, event *outbox.Event) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE outbox SET status = $1, attempts = $2, processed_at = $3 WHERE id = $4`,
		string(event.Status), event.Attempts, event.ProcessedAt, event.ID,
	)
	if err != nil {
		return fmt.Errorf("update outbox status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrEventNotFound
	}
	return nil
}

func (r *OutboxRepository) GetByID(ctx context.Context, id int64) (*outbox.Event, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT id, event_type, payload, status, attempts, max_attempts, created_at, processed_at
		 FROM outbox WHERE id = $1`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("get outbox event: %w", err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, domainErrors.ErrEventNotFound
	}
	return events[0], nil
}

func (r *OutboxRepository) List(ctx context.Context, filter outbox.ListFilter) ([]*outbox.Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, event_type, payload, status, attempts, max_attempts, created_at, processed_at
	          FROM outbox WHERE 1=1`
	args := []any{}
	idx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, string(filter.Status))
		idx++
	}
	if filter.EventType != "" {
		query += fmt.Sprintf(" AND event_type = $%d", idx)
		args = append(args, filter.EventType)
		idx++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list outbox events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows pgx.Rows) ([]*outbox.Event, error) {
	var events []*outbox.Event
	for rows.Next() {
		e := &outbox.Event{}
		var payload []byte
		var status string
		if err := rows.Scan(&e.ID, &e.EventType, &payload, &status, &e.Attempts, &e.MaxAttempts, &e.CreatedAt, &e.ProcessedAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		e.Status = outbox.Status(status)
		if len(payload) > 0 {
			e.Payload = make(map[string]any)
			if err := json.Unmarshal(payload, &e.Payload); err != nil {
				return nil, fmt.Errorf("unmarshal outbox payload: %w", err)
			}
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
