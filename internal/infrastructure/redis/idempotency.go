package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lua script for safe lock release (only owner can release)
var releaseLockScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// CachedResponse is the serialized handler result stored per idempotency key.
type CachedResponse struct {
	StatusCode int    `json:"status_code"`
	Body       string `json:"body"`
}

// IdempotencyStore backs the idempotency gate with two key families:
// a short-lived lock that serializes concurrent identical requests,
// and a longer-lived cached response replayed to duplicates.
type IdempotencyStore struct {
	client      *redis.Client
	lockTTL     time.Duration
	responseTTL time.Duration
}

func NewIdempotencyStore(client *redis.Client, lockTTL, responseTTL time.Duration) *IdempotencyStore {
	return &IdempotencyStore{
		client:      client,
		lockTTL:     lockTTL,
		responseTTL: responseTTL,
	}
}

func lockKey(key string) string     { return "idemp:lock:" + key }
func responseKey(key string) string { return "idemp:resp:" + key }

// AcquireLock atomically claims the lock for the key (single SET NX round
// trip, no check-then-set). The returned token fences the release so an
// expired lock grabbed by another caller is never deleted by us.
func (s *IdempotencyStore) AcquireLock(ctx context.Context, key string) (token string, acquired bool, err error) {
	token = uuid.New().String()
	acquired, err = s.client.SetNX(ctx, lockKey(key), token, s.lockTTL).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquire idempotency lock: %w", err)
	}
	return token, acquired, nil
}

// ReleaseLock deletes the lock if we still own it.
func (s *IdempotencyStore) ReleaseLock(ctx context.Context, key, token string) error {
	if _, err := releaseLockScript.Run(ctx, s.client, []string{lockKey(key)}, token).Result(); err != nil {
		return fmt.Errorf("release idempotency lock: %w", err)
	}
	return nil
}

// GetResponse returns the cached response for the key, or nil if absent.
func (s *IdempotencyStore) GetResponse(ctx context.Context, key string) (*CachedResponse, error) {
	raw, err := s.client.Get(ctx, responseKey(key)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached response: %w", err)
	}

	var resp CachedResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("unmarshal cached response: %w", err)
	}
	return &resp, nil
}

// StoreResponse caches the handler result. A response, once written, is
// authoritative for all duplicates within the retention window.
func (s *IdempotencyStore) StoreResponse(ctx context.Context, key string, resp *CachedResponse) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal cached response: %w", err)
	}
	if err := s.client.Set(ctx, responseKey(key), raw, s.responseTTL).Err(); err != nil {
		return fmt.Errorf("store cached response: %w", err)
	}
	return nil
}
