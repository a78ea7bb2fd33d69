package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/cassiomorais/storefront/internal/infrastructure/redis"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeIdempotencyStore is an in-memory IdempotencyStore with overridable
// behavior per method.
type fakeIdempotencyStore struct {
	mu        sync.Mutex
	locks     map[string]string
	responses map[string]*redis.CachedResponse

	releaseCalls int

	AcquireLockFunc   func(ctx context.Context, key string) (string, bool, error)
	GetResponseFunc   func(ctx context.Context, key string) (*redis.CachedResponse, error)
	StoreResponseFunc func(ctx context.Context, key string, resp *redis.CachedResponse) error
}

func newFakeStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{
		locks:     make(map[string]string),
		responses: make(map[string]*redis.CachedResponse),
	}
}

func (f *fakeIdempotencyStore) AcquireLock(ctx context.Context, key string) (string, bool, error) {
	if f.AcquireLockFunc != nil {
		return f.AcquireLockFunc(ctx, key)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, held := f.locks[key]; held {
		return "", false, nil
	}
	f.locks[key] = "token-" + key
	return f.locks[key], true, nil
}

func (f *fakeIdempotencyStore) ReleaseLock(ctx context.Context, key, token string) error {
	// The redis client refuses commands on a dead context.
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releaseCalls++
	if f.locks[key] == token {
		delete(f.locks, key)
	}
	return nil
}

func (f *fakeIdempotencyStore) GetResponse(ctx context.Context, key string) (*redis.CachedResponse, error) {
	if f.GetResponseFunc != nil {
		return f.GetResponseFunc(ctx, key)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.responses[key], nil
}

func (f *fakeIdempotencyStore) StoreResponse(ctx context.Context, key string, resp *redis.CachedResponse) error {
	if f.StoreResponseFunc != nil {
		return f.StoreResponseFunc(ctx, key, resp)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[key] = resp
	return nil
}

func gatedHandler(t *testing.T, store IdempotencyStore, handlerCalls *int, status int, body string) http.Handler {
	t.Helper()
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*handlerCalls++
		w.WriteHeader(status)
		w.Write([]byte(body))
	})
	return Idempotency(store, zerolog.Nop(), nil)(inner)
}

func doRequest(h http.Handler, method, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/v1/orders", strings.NewReader(`{}`))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestIdempotency_NoKeyPassesThrough(t *testing.T) {
	store := newFakeStore()
	calls := 0
	h := gatedHandler(t, store, &calls, http.StatusCreated, `{"id":1}`)

	rr := doRequest(h, http.MethodPost, "")
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, 1, calls)
	assert.Empty(t, store.responses)
}

func TestIdempotency_SafeMethodPassesThrough(t *testing.T) {
	store := newFakeStore()
	calls := 0
	h := gatedHandler(t, store, &calls, http.StatusOK, `[]`)

	rr := doRequest(h, http.MethodGet, "key-1")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, calls)
	assert.Empty(t, store.responses)
}

func TestIdempotency_FirstRequestRunsAndCaches(t *testing.T) {
	store := newFakeStore()
	calls := 0
	h := gatedHandler(t, store, &calls, http.StatusCreated, `{"order_id":7}`)

	rr := doRequest(h, http.MethodPost, "key-1")
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, `{"order_id":7}`, rr.Body.String())
	assert.Empty(t, rr.Header().Get("X-Idempotency-Replayed"))
	assert.Equal(t, 1, calls)

	require.NotNil(t, store.responses["key-1"])
	assert.Equal(t, http.StatusCreated, store.responses["key-1"].StatusCode)
	assert.Equal(t, 1, store.releaseCalls)
	assert.Empty(t, store.locks, "lock must be released after completion")
}

func TestIdempotency_DuplicateReplaysWithoutRerunning(t *testing.T) {
	store := newFakeStore()
	calls := 0
	h := gatedHandler(t, store, &calls, http.StatusCreated, `{"order_id":7}`)

	first := doRequest(h, http.MethodPost, "key-1")
	second := doRequest(h, http.MethodPost, "key-1")

	assert.Equal(t, 1, calls, "handler must run exactly once")
	assert.Equal(t, first.Code, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("X-Idempotency-Replayed"))
}

func TestIdempotency_InFlightDuplicateConflicts(t *testing.T) {
	store := newFakeStore()
	store.locks["key-1"] = "someone-else"

	calls := 0
	h := gatedHandler(t, store, &calls, http.StatusCreated, `{}`)

	rr := doRequest(h, http.MethodPost, "key-1")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "already in progress")
	assert.Equal(t, 0, calls)
}

func TestIdempotency_LockAcquireErrorFailsRequest(t *testing.T) {
	store := newFakeStore()
	store.AcquireLockFunc = func(ctx context.Context, key string) (string, bool, error) {
		return "", false, errors.New("redis: connection refused")
	}

	calls := 0
	h := gatedHandler(t, store, &calls, http.StatusCreated, `{}`)

	rr := doRequest(h, http.MethodPost, "key-1")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, 0, calls, "handler must not run without the lock")
}

func TestIdempotency_ServerErrorNotCached(t *testing.T) {
	store := newFakeStore()
	calls := 0
	h := gatedHandler(t, store, &calls, http.StatusInternalServerError, `{"error":"boom"}`)

	doRequest(h, http.MethodPost, "key-1")
	doRequest(h, http.MethodPost, "key-1")

	assert.Equal(t, 2, calls, "5xx must not short-circuit retries")
	assert.Empty(t, store.responses)
}

func TestIdempotency_ClientErrorIsCached(t *testing.T) {
	store := newFakeStore()
	calls := 0
	h := gatedHandler(t, store, &calls, http.StatusUnprocessableEntity, `{"error":"out of stock"}`)

	doRequest(h, http.MethodPost, "key-1")
	rr := doRequest(h, http.MethodPost, "key-1")

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "true", rr.Header().Get("X-Idempotency-Replayed"))
}

func TestIdempotency_CacheWriteFailureDoesNotFailRequest(t *testing.T) {
	store := newFakeStore()
	store.StoreResponseFunc = func(ctx context.Context, key string, resp *redis.CachedResponse) error {
		return errors.New("redis: connection refused")
	}

	calls := 0
	h := gatedHandler(t, store, &calls, http.StatusCreated, `{"order_id":7}`)

	rr := doRequest(h, http.MethodPost, "key-1")
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, `{"order_id":7}`, rr.Body.String())
}

func TestIdempotency_RecheckAfterLockCatchesRace(t *testing.T) {
	store := newFakeStore()
	reads := 0
	store.GetResponseFunc = func(ctx context.Context, key string) (*redis.CachedResponse, error) {
		reads++
		if reads == 1 {
			// Not cached yet when the request first looks.
			return nil, nil
		}
		// Cached by a concurrent duplicate before our lock was granted.
		return &redis.CachedResponse{StatusCode: http.StatusCreated, Body: `{"order_id":7}`}, nil
	}

	calls := 0
	h := gatedHandler(t, store, &calls, http.StatusCreated, `{"order_id":999}`)

	rr := doRequest(h, http.MethodPost, "key-1")
	assert.Equal(t, 0, calls, "handler must not run when a duplicate already completed")
	assert.Equal(t, `{"order_id":7}`, rr.Body.String())
	assert.Equal(t, "true", rr.Header().Get("X-Idempotency-Replayed"))
}

func TestIdempotency_OversizedResponseNotCached(t *testing.T) {
	store := newFakeStore()
	calls := 0
	big := strings.Repeat("x", maxIdempotencyBodySize+1)
	h := gatedHandler(t, store, &calls, http.StatusOK, big)

	rr := doRequest(h, http.MethodPost, "key-1")
	assert.Equal(t, len(big), rr.Body.Len(), "client still gets the full body")
	assert.Empty(t, store.responses)
}

func TestIdempotency_LockReleasedAfterClientDisconnect(t *testing.T) {
	store := newFakeStore()

	// Simulate the client going away mid-handler: the request context is
	// cancelled before the deferred lock release runs.
	var cancel context.CancelFunc
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cancel()
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":1}`))
	})
	h := Idempotency(store, zerolog.Nop(), nil)(inner)

	ctx, c := context.WithCancel(context.Background())
	cancel = c
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{}`)).WithContext(ctx)
	req.Header.Set("Idempotency-Key", "key-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Empty(t, store.locks, "lock must not outlive the request")

	// The client's own retry must replay or rerun, never 409 on orphaned state.
	calls := 0
	retry := gatedHandler(t, store, &calls, http.StatusCreated, `{"id":1}`)
	rr := doRequest(retry, http.MethodPost, "key-1")
	require.NotEqual(t, http.StatusConflict, rr.Code)
}
