package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"parishdesk/internal/core/apperror"
	appctx "parishdesk/internal/core/context"
	"parishdesk/internal/core/security"
	"parishdesk/internal/domain/auth"
)

// SessionCookie carries the opaque session token for browser clients.
const SessionCookie = "session_token"

// Identity propagation headers. The typed context is authoritative; these
// are set on the request for downstream services that read headers.
const (
	HeaderUserID         = "x-user-id"
	HeaderRealUserID     = "x-real-user-id"
	HeaderImpersonatedID = "x-impersonating-id"
)

// SessionResolver resolves opaque session tokens.
type SessionResolver interface {
	GetSession(ctx context.Context, token string) (*auth.Session, error)
}

// JWTValidator validates bearer tokens for API clients.
type JWTValidator interface {
	ValidateToken(tokenString string) (*appctx.UserContext, error)
}

// Auth resolves the request identity from the session cookie or a bearer
// token and aborts unauthenticated requests. Stage handler: does not call
// Next.
func Auth(sessions SessionResolver, validator JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := resolveIdentity(c, sessions, validator)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		applyIdentity(c, user)
	}
}

// OptionalAuth resolves identity when credentials are present but lets
// anonymous requests through. Used by the public stack so signed-in users
// keep their identity on public pages.
func OptionalAuth(sessions SessionResolver, validator JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := resolveIdentity(c, sessions, validator)
		if err != nil {
			return
		}
		applyIdentity(c, user)
	}
}

// RequireSuperadmin aborts unless the real principal is a superadmin.
func RequireSuperadmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := appctx.GetUser(c.Request.Context())
		if user == nil {
			_ = c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}
		if !user.IsSuperadmin {
			_ = c.Error(apperror.NewForbidden("superadmin required"))
			c.Abort()
			return
		}
	}
}

// resolveIdentity tries the session cookie first, then a bearer token.
func resolveIdentity(c *gin.Context, sessions SessionResolver, validator JWTValidator) (*appctx.UserContext, error) {
	if token, err := c.Cookie(SessionCookie); err == nil && token != "" {
		session, err := sessions.GetSession(c.Request.Context(), token)
		if err != nil {
			return nil, apperror.NewUnauthorized("invalid or expired session")
		}
		return &appctx.UserContext{
			UserID:       session.UserID.String(),
			Email:        session.Email,
			IsSuperadmin: session.IsSuperadmin,
			SessionToken: token,
		}, nil
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, apperror.NewUnauthorized("authentication required")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, apperror.NewUnauthorized("invalid authorization header format")
	}

	user, err := validator.ValidateToken(parts[1])
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid token")
	}
	return user, nil
}

// applyIdentity installs the identity into the typed context, the actor
// context used by auditing, and the propagation headers.
func applyIdentity(c *gin.Context, user *appctx.UserContext) {
	ctx := appctx.WithUser(c.Request.Context(), user)
	ctx = security.WithActorID(ctx, appctx.GetRealUserID(ctx))
	c.Request = c.Request.WithContext(ctx)

	c.Set("user_id", user.UserID)
	c.Request.Header.Set(HeaderUserID, user.UserID)
	if user.Impersonating {
		c.Request.Header.Set(HeaderImpersonatedID, user.UserID)
		c.Request.Header.Set(HeaderRealUserID, user.RealUserID)
	} else {
		c.Request.Header.Set(HeaderRealUserID, user.UserID)
	}
}
