// Package auth provides authentication, sessions, and impersonation.
package auth

import (
	"context"
	"strings"
	"time"

	"parishdesk/internal/core/apperror"
	"parishdesk/internal/core/entity"
	"parishdesk/internal/core/id"
)

// User represents a platform account. Users exist independently of
// organizations; memberships attach them to tenants.
type User struct {
	ID                  id.ID      `db:"id" json:"id"`
	Email               string     `db:"email" json:"email"`
	PasswordHash        string     `db:"password_hash" json:"-"`
	FirstName           string     `db:"first_name" json:"firstName,omitempty"`
	LastName            string     `db:"last_name" json:"lastName,omitempty"`
	IsActive            bool       `db:"is_active" json:"isActive"`
	IsSuperadmin        bool       `db:"is_superadmin" json:"isSuperadmin"`
	FailedLoginAttempts int        `db:"failed_login_attempts" json:"-"`
	LockedUntil         *time.Time `db:"locked_until" json:"-"`
	LastLoginAt         *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`

	// Attributes is the auth-provider style metadata blob (JSONB).
	// Impersonation state lives here.
	Attributes entity.Attributes `db:"attributes" json:"-"`

	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
	Version   int        `db:"version" json:"version"`
}

// NewUser creates a new active user.
func NewUser(email, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		ID:           id.New(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      1,
	}
}

// Validate implements entity.Validatable.
func (u *User) Validate(ctx context.Context) error {
	if u.Email == "" {
		return apperror.NewValidation("email is required").WithDetail("field", "email")
	}
	if !strings.Contains(u.Email, "@") {
		return apperror.NewValidation("email is invalid").WithDetail("field", "email")
	}
	return nil
}

// IsLocked returns true if the account is temporarily locked.
func (u *User) IsLocked() bool {
	if u.LockedUntil == nil {
		return false
	}
	return time.Now().Before(*u.LockedUntil)
}

// CanLogin checks whether the user may sign in.
func (u *User) CanLogin() error {
	if !u.IsActive {
		return apperror.NewForbidden("account is disabled")
	}
	if u.IsLocked() {
		return apperror.NewForbidden("account is temporarily locked")
	}
	return nil
}

// RecordFailedLogin increments the failure counter, locking past maxAttempts.
func (u *User) RecordFailedLogin(maxAttempts int, lockDuration time.Duration) {
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= maxAttempts {
		lockUntil := time.Now().Add(lockDuration)
		u.LockedUntil = &lockUntil
	}
}

// RecordSuccessfulLogin resets the failure counter.
func (u *User) RecordSuccessfulLogin() {
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	now := time.Now()
	u.LastLoginAt = &now
}

// FullName returns the user's display name, falling back to email.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "" && u.LastName == "":
		return u.Email
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// TokenPurpose distinguishes single-use token flows.
type TokenPurpose string

const (
	TokenPurposeReset  TokenPurpose = "password_reset"
	TokenPurposeInvite TokenPurpose = "invite"
)

// Token is a single-use, hashed token for password reset and invites.
// Only the SHA-256 hash is stored; the plaintext goes out by email once.
type Token struct {
	ID        id.ID        `db:"id" json:"id"`
	UserID    *id.ID       `db:"user_id" json:"userId,omitempty"`
	Email     string       `db:"email" json:"email"`
	Purpose   TokenPurpose `db:"purpose" json:"purpose"`
	TokenHash string       `db:"token_hash" json:"-"`

	// Invite payload: the organization and role the invite grants.
	OrganizationID *id.ID `db:"organization_id" json:"organizationId,omitempty"`
	Role           string `db:"role" json:"role,omitempty"`

	ExpiresAt time.Time  `db:"expires_at" json:"expiresAt"`
	UsedAt    *time.Time `db:"used_at" json:"-"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
}

// IsValid reports whether the token is unused and unexpired.
func (t *Token) IsValid() bool {
	return t.UsedAt == nil && time.Now().Before(t.ExpiresAt)
}

// --- Requests ---

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// LoginRequest is the sign-in payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AcceptInviteRequest is the accept-invite payload. Existing users supply
// only the token; new users also set a password.
type AcceptInviteRequest struct {
	Token     string `json:"token" binding:"required"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}
