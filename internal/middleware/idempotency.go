package middleware

import (
	"bytes"
	"context"
	"net/http"

	"github.com/cassiomorais/storefront/internal/infrastructure/observability"
	"github.com/cassiomorais/storefront/internal/infrastructure/redis"
	"github.com/rs/zerolog"
)

const maxIdempotencyBodySize = 1 << 20

// IdempotencyStore is the slice of the redis store the gate needs.
// Narrowed to an interface so handler tests can run against an in-memory
// fake instead of a live redis.
type IdempotencyStore interface {
	AcquireLock(ctx context.Context, key string) (token string, acquired bool, err error)
	ReleaseLock(ctx context.Context, key, token string) error
	GetResponse(ctx context.Context, key string) (*redis.CachedResponse, error)
	StoreResponse(ctx context.Context, key string, resp *redis.CachedResponse) error
}

// Idempotency gates mutating requests carrying an Idempotency-Key header.
// A duplicate of a completed request gets the original response replayed
// verbatim; a duplicate of an in-flight request gets 409. Requests
// without the header pass straight through.
//
// Caching the response is best effort: a redis outage after the handler
// ran must not fail a request whose side effects are already committed.
// Acquiring the lock is NOT best effort: proceeding without the lock
// could run the same order placement twice.
func Idempotency(store IdempotencyStore, logger zerolog.Logger, metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("Idempotency-Key")
			if key == "" || !mutating(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			if replayed := replayCached(ctx, w, store, key, logger, metrics); replayed {
				return
			}

			token, acquired, err := store.AcquireLock(ctx, key)
			if err != nil {
				logger.Error().Err(err).Str("idempotency_key", key).Msg("Idempotency lock acquisition failed")
				http.Error(w, `{"error":"idempotency check unavailable"}`, http.StatusInternalServerError)
				return
			}
			if !acquired {
				countOutcome(metrics, "conflict")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusConflict)
				w.Write([]byte(`{"error":"request with this idempotency key is already in progress"}`))
				return
			}
			// Release must survive a client disconnect, or the key stays
			// locked for the full TTL and the client's own retry gets 409.
			releaseCtx := context.WithoutCancel(ctx)
			defer func() {
				if err := store.ReleaseLock(releaseCtx, key, token); err != nil {
					logger.Warn().Err(err).Str("idempotency_key", key).Msg("Failed to release idempotency lock")
				}
			}()

			// A duplicate may have completed between the first cache look
			// and the lock grant.
			if replayed := replayCached(ctx, w, store, key, logger, metrics); replayed {
				return
			}

			countOutcome(metrics, "miss")
			rec := &responseRecorder{ResponseWriter: w, body: &bytes.Buffer{}, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			// 5xx responses are not cached: the client should retry and
			// reach the real handler, not a cached failure.
			if rec.statusCode < 500 && !rec.bodyTruncated {
				cached := &redis.CachedResponse{StatusCode: rec.statusCode, Body: rec.body.String()}
				if err := store.StoreResponse(releaseCtx, key, cached); err != nil {
					logger.Warn().Err(err).Str("idempotency_key", key).Msg("Failed to cache idempotent response")
				}
			}
		})
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

// replayCached writes the stored response for key if one exists. A cache
// read error is treated as a miss; the lock still protects correctness.
func replayCached(ctx context.Context, w http.ResponseWriter, store IdempotencyStore, key string, logger zerolog.Logger, metrics *observability.Metrics) bool {
	cached, err := store.GetResponse(ctx, key)
	if err != nil {
		logger.Warn().Err(err).Str("idempotency_key", key).Msg("Idempotency cache read failed")
		return false
	}
	if cached == nil {
		return false
	}

	countOutcome(metrics, "replayed")
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Idempotency-Replayed", "true")
	w.WriteHeader(cached.StatusCode)
	w.Write([]byte(cached.Body))
	return true
}

func countOutcome(metrics *observability.Metrics, outcome string) {
	if metrics != nil {
		metrics.IdempotencyRequests.WithLabelValues(outcome).Inc()
	}
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode    int
	body          *bytes.Buffer
	bodyTruncated bool
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if !r.bodyTruncated {
		if r.body.Len()+len(b) > maxIdempotencyBodySize {
			r.bodyTruncated = true
		} else {
			r.body.Write(b)
		}
	}
	return r.ResponseWriter.Write(b)
}
