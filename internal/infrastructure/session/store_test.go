package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parishdesk/internal/core/apperror"
	"parishdesk/internal/core/id"
	"parishdesk/internal/domain/auth"
)

func newTestSession(t *testing.T, ttl time.Duration) *auth.Session {
	t.Helper()
	token, err := auth.NewSessionToken()
	require.NoError(t, err)
	now := time.Now().UTC()
	return &auth.Session{
		Token:     token,
		UserID:    id.New(),
		Email:     "pastor@stluke.test",
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStore_RoundTrip(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	session := newTestSession(t, time.Hour)
	require.NoError(t, store.Create(ctx, session))

	got, err := store.Get(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.UserID, got.UserID)
	assert.Equal(t, session.Email, got.Email)
}

func TestRedisStore_UnknownToken(t *testing.T) {
	store, _ := newRedisStore(t)

	_, err := store.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, apperror.IsUnauthorized(err))
}

func TestRedisStore_Expiry(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	session := newTestSession(t, time.Minute)
	require.NoError(t, store.Create(ctx, session))

	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, session.Token)
	require.Error(t, err)
	assert.True(t, apperror.IsUnauthorized(err))
}

func TestRedisStore_Refresh(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	session := newTestSession(t, time.Minute)
	require.NoError(t, store.Create(ctx, session))
	require.NoError(t, store.Refresh(ctx, session.Token, 2*time.Hour))

	got, err := store.Get(ctx, session.Token)
	require.NoError(t, err)
	assert.True(t, got.ExpiresAt.After(time.Now().UTC().Add(time.Hour)))
}

func TestRedisStore_Delete(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	session := newTestSession(t, time.Hour)
	require.NoError(t, store.Create(ctx, session))
	require.NoError(t, store.Delete(ctx, session.Token))

	_, err := store.Get(ctx, session.Token)
	assert.Error(t, err)
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	session := newTestSession(t, time.Hour)
	require.NoError(t, store.Create(ctx, session))

	got, err := store.Get(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.UserID, got.UserID)

	require.NoError(t, store.Delete(ctx, session.Token))
	_, err = store.Get(ctx, session.Token)
	assert.Error(t, err)
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	session := newTestSession(t, -time.Minute)
	require.NoError(t, store.Create(ctx, session))

	_, err := store.Get(ctx, session.Token)
	require.Error(t, err)
	assert.True(t, apperror.IsUnauthorized(err))
}
