package security

import "context"

type actorIDKey struct{}

// WithActorID adds the acting user ID to context. Under impersonation this is
// the real (impersonating) user, so audit rows always name the human behind
// the request.
func WithActorID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorIDKey{}, userID)
}

// GetActorID retrieves the acting user ID from context.
// Returns empty string if not found.
func GetActorID(ctx context.Context) string {
	if uid, ok := ctx.Value(actorIDKey{}).(string); ok {
		return uid
	}
	return ""
}
