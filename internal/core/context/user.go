// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// UserContext contains the effective authenticated identity for a request.
// Under impersonation, UserID is the impersonated user and RealUserID keeps
// the superadmin who initiated it, so downstream code operates "as" the
// target while the audit trail preserves the actor.
type UserContext struct {
	UserID        string
	Email         string
	IsSuperadmin  bool
	SessionToken  string
	Impersonating bool
	RealUserID    string
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context, or nil when unauthenticated.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns the effective user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// GetRealUserID returns the acting user ID: the impersonator when
// impersonation is active, otherwise the effective user.
func GetRealUserID(ctx context.Context) string {
	u := GetUser(ctx)
	if u == nil {
		return ""
	}
	if u.Impersonating && u.RealUserID != "" {
		return u.RealUserID
	}
	return u.UserID
}

// IsSuperadmin reports whether the real principal holds superadmin privilege.
func IsSuperadmin(ctx context.Context) bool {
	if u := GetUser(ctx); u != nil {
		return u.IsSuperadmin
	}
	return false
}
