package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cassiomorais/storefront/internal/domain/outbox"
	"github.com/cassiomorais/storefront/pkg/retry"
	"github.com/rs/zerolog"
)

// Handler delivers one outbox event to a downstream destination.
type Handler interface {
	// Name identifies the destination, used for logging and circuit
	// breaker scoping.
	Name() string
	Deliver(ctx context.Context, event *outbox.Event) error
}

// HTTPHandler posts the event payload as JSON to a fixed endpoint.
// Any 2xx response acknowledges the event; everything else is a failed
// attempt and the relay's retry bookkeeping takes over.
type HTTPHandler struct {
	name     string
	url      string
	client   *http.Client
	retryCfg retry.Config
	logger   zerolog.Logger
}

func NewHTTPHandler(name, url string, timeout time.Duration, maxRetries uint, logger zerolog.Logger) *HTTPHandler {
	cfg := retry.DefaultConfig()
	if maxRetries > 0 {
		cfg.MaxAttempts = maxRetries
	}
	h := &HTTPHandler{
		name:     name,
		url:      url,
		client:   &http.Client{Timeout: timeout},
		retryCfg: cfg,
		logger:   logger,
	}
	h.retryCfg.OnRetry = func(attempt uint, err error) {
		h.logger.Warn().
			Err(err).
			Str("destination", name).
			Uint("attempt", attempt+1).
			Msg("Delivery attempt failed, retrying")
	}
	return h
}

func (h *HTTPHandler) Name() string { return h.name }

func (h *HTTPHandler) Deliver(ctx context.Context, event *outbox.Event) error {
	body, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshaling payload for event %d: %w", event.ID, err)
	}

	return retry.Do(ctx, h.retryCfg, func() error {
		return h.post(ctx, body)
	})
}

func (h *HTTPHandler) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request to %s: %w", h.name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to %s: %w", h.name, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s responded %d", h.name, resp.StatusCode)
	}
	return nil
}
