package controller

import (
	"net/http"

	"github.com/cassiomorais/storefront/internal/domain/outbox"
)

// OutboxController exposes the outbox for operators: audit queries plus
// requeueing of dead events. Event rows are never mutated beyond the
// status transitions the domain allows.
type OutboxController struct {
	outboxRepo outbox.Repository
}

func NewOutboxController(outboxRepo outbox.Repository) *OutboxController {
	return &OutboxController{outboxRepo: outboxRepo}
}

func (c *OutboxController) List(w http.ResponseWriter, r *http.Request) {
	filter := outbox.ListFilter{
		Status:    outbox.Status(r.URL.Query().Get("status")),
		EventType: r.URL.Query().Get("event_type"),
		Limit:     queryInt(r, "limit", 50),
		Offset:    queryInt(r, "offset", 0),
	}

	events, err := c.outboxRepo.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]*OutboxEventResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, FromOutboxEvent(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (c *OutboxController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	e, err := c.outboxRepo.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromOutboxEvent(e))
}

// Requeue revives a dead event so the relay picks it up on its next poll.
func (c *OutboxController) Requeue(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	e, err := c.outboxRepo.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := e.Requeue(); err != nil {
		writeError(w, err)
		return
	}
	if err := c.outboxRepo.UpdateStatus(r.Context(), e); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromOutboxEvent(e))
}
