package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/optionchainsim/service/internal/apperr"
	"github.com/optionchainsim/service/internal/redisclient"
)

// RedisStore is the external-KV session store backend: sessions are
// serialized to JSON and written with a refreshing TTL. Cleanup is a
// no-op — Redis's own expiry is authoritative here.
type RedisStore struct {
	client    *redisclient.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisStore creates a Redis-backed session store. keyPrefix
// defaults to "session:" and ttl to 1800s when zero values are passed.
func NewRedisStore(client *redisclient.Client, keyPrefix string, ttl time.Duration) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "session:"
	}
	if ttl <= 0 {
		ttl = 1800 * time.Second
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

func (r *RedisStore) key(id uuid.UUID) string {
	return r.keyPrefix + id.String()
}

func (r *RedisStore) Get(ctx context.Context, id uuid.UUID) (Session, error) {
	raw, err := r.client.Get(ctx, r.key(id))
	if errors.Is(err, redisclient.ErrNotFound) {
		return Session{}, apperr.NotFound("session %s not found", id)
	}
	if err != nil {
		return Session{}, apperr.StoreError("redis get failed: %v", err)
	}

	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Session{}, apperr.Internal("failed to decode session %s: %v", id, err)
	}
	return s, nil
}

func (r *RedisStore) Save(ctx context.Context, s Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return apperr.SerializationError("failed to encode session %s: %v", s.ID, err)
	}
	if err := r.client.Set(ctx, r.key(s.ID), string(payload), r.ttl); err != nil {
		return apperr.StoreError("redis set failed: %v", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	ok, err := r.client.Del(ctx, r.key(id))
	if err != nil {
		return false, apperr.StoreError("redis del failed: %v", err)
	}
	return ok, nil
}

// Cleanup is a no-op: TTL on each key is authoritative, refreshed on
// every Save, so there is nothing for an active sweep to do here.
func (r *RedisStore) Cleanup(_ context.Context) (int, error) {
	return 0, nil
}
