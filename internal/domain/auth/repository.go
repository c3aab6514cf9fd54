package auth

import (
	"context"

	"parishdesk/internal/core/entity"
	"parishdesk/internal/core/id"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	// GetByID excludes soft-deleted users.
	GetByID(ctx context.Context, userID id.ID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Exists(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, user *User) error
	// UpdateAttributes replaces the metadata blob without touching the
	// version column; impersonation start/stop must not conflict with
	// concurrent profile edits.
	UpdateAttributes(ctx context.Context, userID id.ID, attrs entity.Attributes) error
	Delete(ctx context.Context, userID id.ID) error
	List(ctx context.Context, search string, limit, offset int) ([]*User, int64, error)
}

// TokenRepository defines persistence for single-use tokens.
type TokenRepository interface {
	Create(ctx context.Context, token *Token) error
	// GetByHash returns the token regardless of validity; callers check
	// IsValid so expired and used tokens get distinct handling.
	GetByHash(ctx context.Context, hash string) (*Token, error)
	MarkUsed(ctx context.Context, tokenID id.ID) error
	DeleteExpired(ctx context.Context) (int64, error)
}
