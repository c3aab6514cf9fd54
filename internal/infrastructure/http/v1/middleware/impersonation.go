package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"parishdesk/internal/core/apperror"
	appctx "parishdesk/internal/core/context"
	"parishdesk/internal/core/id"
	"parishdesk/internal/domain/auth"
)

// ImpersonationCookie names the impersonated user. Presence of the cookie
// triggers re-validation on every request.
const ImpersonationCookie = "impersonating_user_id"

// ImpersonationValidator checks a claimed impersonation against the
// persisted state on the actor's account.
type ImpersonationValidator interface {
	ValidateImpersonation(ctx context.Context, actorID, claimedTargetID id.ID) (*auth.User, error)
}

// Impersonation substitutes the effective principal when the impersonation
// cookie is present. The cookie is only honored when a real session exists,
// the real principal still holds superadmin, and the claimed target matches
// the state persisted at start. Any failed check clears the cookie: a stale
// cookie must never survive a privilege downgrade. Runs after Auth.
func Impersonation(validator ImpersonationValidator, secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimed, err := c.Cookie(ImpersonationCookie)
		if err != nil || claimed == "" {
			return
		}

		user := appctx.GetUser(c.Request.Context())
		if user == nil {
			clearImpersonationCookie(c, secureCookies)
			_ = c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}
		if !user.IsSuperadmin {
			rejectImpersonation(c, secureCookies)
			return
		}

		actorID, err := id.Parse(user.UserID)
		if err != nil {
			rejectImpersonation(c, secureCookies)
			return
		}
		targetID, err := id.Parse(claimed)
		if err != nil {
			rejectImpersonation(c, secureCookies)
			return
		}

		target, err := validator.ValidateImpersonation(c.Request.Context(), actorID, targetID)
		if err != nil {
			rejectImpersonation(c, secureCookies)
			return
		}

		applyIdentity(c, &appctx.UserContext{
			UserID:        target.ID.String(),
			Email:         target.Email,
			IsSuperadmin:  true, // real principal privilege, needed to stop
			SessionToken:  user.SessionToken,
			Impersonating: true,
			RealUserID:    user.UserID,
		})
	}
}

// rejectImpersonation clears the cookie and sends the client home. The
// request does not proceed under either identity.
func rejectImpersonation(c *gin.Context, secureCookies bool) {
	clearImpersonationCookie(c, secureCookies)
	if wantsHTML(c) {
		c.Redirect(http.StatusSeeOther, "/")
		c.Abort()
		return
	}
	_ = c.Error(apperror.NewForbidden("impersonation denied"))
	c.Abort()
}

func clearImpersonationCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(ImpersonationCookie, "", -1, "/", "", secure, true)
}
