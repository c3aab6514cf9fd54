package middleware

import (
	"github.com/gin-gonic/gin"

	"parishdesk/internal/core/apperror"
	appctx "parishdesk/internal/core/context"
	"parishdesk/internal/core/security"
)

// FeatureGate blocks organization sub-paths whose feature the provider does
// not report enabled. Browser clients land on the upgrade page via the error
// boundary. Runs after Organization. Stage handler: does not call Next.
func FeatureGate(flags security.FeatureFlagProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		feature := security.FeatureForPath(OrgSubPath(c))
		if feature == "" {
			return
		}

		org := appctx.GetOrg(c.Request.Context())
		if org == nil {
			_ = c.Error(apperror.NewOrganizationRequired(""))
			c.Abort()
			return
		}

		if !flags.IsEnabled(c.Request.Context(), feature) {
			_ = c.Error(apperror.NewFeatureDisabled(feature, org.Slug))
			c.Abort()
		}
	}
}
