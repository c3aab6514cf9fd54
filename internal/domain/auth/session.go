package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"parishdesk/internal/core/id"
)

// Session is the server-side record behind the session cookie.
// The cookie carries only the opaque token; the principal is re-read from
// the store on every request.
type Session struct {
	Token        string    `json:"token"`
	UserID       id.ID     `json:"userId"`
	Email        string    `json:"email"`
	IsSuperadmin bool      `json:"isSuperadmin"`
	CreatedAt    time.Time `json:"createdAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Expired reports whether the session has passed its expiry.
func (s *Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// SessionStore persists sessions. The Redis implementation is the production
// backend; tests use the in-memory one. Injected, never a package singleton.
type SessionStore interface {
	// Create persists the session with a TTL derived from ExpiresAt.
	Create(ctx context.Context, session *Session) error
	// Get returns the session for a token, or an unauthorized error for
	// unknown or expired tokens.
	Get(ctx context.Context, token string) (*Session, error)
	// Refresh re-reads the principal fields and extends the expiry. Used
	// after impersonation changes so the session reflects current state.
	Refresh(ctx context.Context, token string, ttl time.Duration) error
	// Delete removes the session (sign-out).
	Delete(ctx context.Context, token string) error
}

// NewSessionToken generates a 256-bit random opaque token.
func NewSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// NewSession builds a session for a user with the given TTL.
func NewSession(user *User, ttl time.Duration) (*Session, error) {
	token, err := NewSessionToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Session{
		Token:        token,
		UserID:       user.ID,
		Email:        user.Email,
		IsSuperadmin: user.IsSuperadmin,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}, nil
}
