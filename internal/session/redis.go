package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sovadim/knowledge-engine/internal/domain/session"
	apperrors "github.com/sovadim/knowledge-engine/pkg/errors"
)

const redisKeyPrefix = "assessment:session:"

// RedisStore keeps sessions as JSON documents in redis, for deployments
// where more than one replica serves the same interview. Finished
// sessions age out through the key TTL instead of a janitor.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a redis-backed session store. The ttl applies to
// every write; each save refreshes it, so only idle finished sessions
// expire.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Create stores a new session, failing on id collision.
func (r *RedisStore) Create(ctx context.Context, s *session.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return apperrors.NewInternal("marshal session", err)
	}
	ok, err := r.client.SetNX(ctx, redisKeyPrefix+s.ID, data, r.ttl).Result()
	if err != nil {
		return apperrors.NewInternal("redis setnx", err)
	}
	if !ok {
		return apperrors.NewConflict(fmt.Sprintf("session %s already exists", s.ID))
	}
	return nil
}

// Get returns the session or a not-found error.
func (r *RedisStore) Get(ctx context.Context, id string) (*session.Session, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.NewNotFound(fmt.Sprintf("session %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternal("redis get", err)
	}
	var s session.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, apperrors.NewInternal("unmarshal session", err)
	}
	return &s, nil
}

// Save overwrites an existing session and refreshes its TTL.
func (r *RedisStore) Save(ctx context.Context, s *session.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return apperrors.NewInternal("marshal session", err)
	}
	ok, err := r.client.SetXX(ctx, redisKeyPrefix+s.ID, data, r.ttl).Result()
	if err != nil {
		return apperrors.NewInternal("redis setxx", err)
	}
	if !ok {
		return apperrors.NewNotFound(fmt.Sprintf("session %s not found", s.ID))
	}
	return nil
}

// Delete removes a session. Missing keys are a no-op.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, redisKeyPrefix+id).Err(); err != nil {
		return apperrors.NewInternal("redis del", err)
	}
	return nil
}
