// Package session provides SessionStore implementations.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"parishdesk/internal/core/apperror"
	"parishdesk/internal/domain/auth"
)

const keyPrefix = "session:"

// RedisStore keeps sessions in Redis with a TTL matching the session expiry.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

var _ auth.SessionStore = (*RedisStore)(nil)

// Create stores a session under its token.
func (s *RedisStore) Create(ctx context.Context, session *auth.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return apperror.NewValidation("session already expired")
	}
	if err := s.client.Set(ctx, keyPrefix+session.Token, data, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Get loads a live session by token.
func (s *RedisStore) Get(ctx context.Context, token string) (*auth.Session, error) {
	data, err := s.client.Get(ctx, keyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperror.NewUnauthorized("session not found")
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var session auth.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if session.Expired() {
		_ = s.client.Del(ctx, keyPrefix+token).Err()
		return nil, apperror.NewUnauthorized("session expired")
	}
	return &session, nil
}

// Refresh extends a session's lifetime.
func (s *RedisStore) Refresh(ctx context.Context, token string, ttl time.Duration) error {
	session, err := s.Get(ctx, token)
	if err != nil {
		return err
	}
	session.ExpiresAt = time.Now().UTC().Add(ttl)
	return s.Create(ctx, session)
}

// Delete removes a session.
func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, keyPrefix+token).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
