package session

import (
	"context"
	"sync"
	"time"

	"parishdesk/internal/core/apperror"
	"parishdesk/internal/domain/auth"
)

// MemoryStore is an in-process session store for tests and single-node
// development. Expired sessions are evicted lazily on read.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*auth.Session
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*auth.Session)}
}

var _ auth.SessionStore = (*MemoryStore)(nil)

func (s *MemoryStore) Create(ctx context.Context, session *auth.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *session
	s.sessions[session.Token] = &copied
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, token string) (*auth.Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, apperror.NewUnauthorized("session not found")
	}
	if session.Expired() {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, apperror.NewUnauthorized("session expired")
	}

	copied := *session
	return &copied, nil
}

func (s *MemoryStore) Refresh(ctx context.Context, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return apperror.NewUnauthorized("session not found")
	}
	session.ExpiresAt = time.Now().UTC().Add(ttl)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}
