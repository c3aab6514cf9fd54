package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parishdesk/internal/core/apperror"
	appctx "parishdesk/internal/core/context"
	"parishdesk/internal/core/security"
)

// methodVerbs maps HTTP methods to the default verb checked by the RBAC
// gate when a route does not name one explicitly.
var methodVerbs = map[string]security.Verb{
	http.MethodGet:    security.VerbRead,
	http.MethodHead:   security.VerbRead,
	http.MethodPost:   security.VerbCreate,
	http.MethodPut:    security.VerbUpdate,
	http.MethodPatch:  security.VerbUpdate,
	http.MethodDelete: security.VerbDelete,
}

// RBAC checks the effective user's organization role against the verb
// implied by the HTTP method. Runs after Organization. Stage handler: does
// not call Next.
func RBAC() gin.HandlerFunc {
	return func(c *gin.Context) {
		verb, ok := methodVerbs[c.Request.Method]
		if !ok {
			verb = security.VerbAdmin
		}
		checkVerb(c, verb)
	}
}

// RequireVerb gates a specific route on an explicit verb, for routes whose
// method does not imply their sensitivity (e.g. GET /settings needs admin).
func RequireVerb(verb security.Verb) gin.HandlerFunc {
	return func(c *gin.Context) {
		checkVerb(c, verb)
	}
}

func checkVerb(c *gin.Context, verb security.Verb) {
	org := appctx.GetOrg(c.Request.Context())
	if org == nil {
		_ = c.Error(apperror.NewOrganizationRequired(""))
		c.Abort()
		return
	}

	// Superadmin privilege on the real principal trumps whatever role the
	// membership happens to carry.
	if appctx.IsSuperadmin(c.Request.Context()) {
		return
	}

	role := security.Role(org.Role)
	if !security.Can(role, verb) {
		_ = c.Error(
			apperror.NewForbidden("insufficient role").
				WithDetail("role", org.Role).
				WithDetail("verb", string(verb)),
		)
		c.Abort()
	}
}
