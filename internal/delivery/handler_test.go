package delivery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cassiomorais/storefront/internal/domain/outbox"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFastHandler(t *testing.T, url string, maxRetries uint) *HTTPHandler {
	t.Helper()
	h := NewHTTPHandler("invoice-service", url, time.Second, maxRetries, zerolog.Nop())
	h.retryCfg.InitialDelay = time.Millisecond
	return h
}

func TestHTTPHandler_PostsPayloadAsJSON(t *testing.T) {
	var gotBody map[string]any
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := newFastHandler(t, srv.URL, 1)
	event := outbox.NewEvent(outbox.EventGenerateInvoice, map[string]any{
		"order_id":      "42",
		"customer_name": "Bob Jones",
		"amount":        125.0,
	})

	require.NoError(t, h.Deliver(context.Background(), event))
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "42", gotBody["order_id"])
	assert.Equal(t, "Bob Jones", gotBody["customer_name"])
	assert.Equal(t, 125.0, gotBody["amount"])
}

func TestHTTPHandler_NonSuccessStatusIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	h := newFastHandler(t, srv.URL, 1)
	err := h.Deliver(context.Background(), outbox.NewEvent(outbox.EventOrderPlaced, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestHTTPHandler_RetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	h := newFastHandler(t, srv.URL, 3)
	require.NoError(t, h.Deliver(context.Background(), outbox.NewEvent(outbox.EventOrderPlaced, nil)))
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPHandler_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	h := newFastHandler(t, srv.URL, 2)
	err := h.Deliver(context.Background(), outbox.NewEvent(outbox.EventOrderPlaced, nil))
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPHandler_UnreachableDestination(t *testing.T) {
	// Closed server: connection refused rather than an HTTP status.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	h := newFastHandler(t, url, 1)
	err := h.Deliver(context.Background(), outbox.NewEvent(outbox.EventOrderPlaced, nil))
	require.Error(t, err)
}
