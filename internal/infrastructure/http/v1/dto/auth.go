package dto

import (
	"time"

	"parishdesk/internal/domain/auth"
)

// UserResponse is the public view of a user account.
type UserResponse struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	FirstName    string     `json:"firstName,omitempty"`
	LastName     string     `json:"lastName,omitempty"`
	IsActive     bool       `json:"isActive"`
	IsSuperadmin bool       `json:"isSuperadmin"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// FromUser creates UserResponse from auth.User.
func FromUser(u *auth.User) UserResponse {
	return UserResponse{
		ID:           u.ID.String(),
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsActive:     u.IsActive,
		IsSuperadmin: u.IsSuperadmin,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
	}
}

// SessionResponse is returned on sign-in. The token is also set as a cookie
// for browser clients.
type SessionResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// FromSession creates SessionResponse from auth.Session.
func FromSession(s *auth.Session) SessionResponse {
	return SessionResponse{
		Token:     s.Token,
		UserID:    s.UserID.String(),
		Email:     s.Email,
		ExpiresAt: s.ExpiresAt,
	}
}

// AccessTokenResponse carries a JWT for API clients.
type AccessTokenResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// ForgotPasswordRequest starts the password reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest completes the password reset flow.
type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest edits the signed-in user's display fields.
type UpdateProfileRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// ChangePasswordRequest rotates the signed-in user's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}
