package middleware

import (
	"github.com/gin-gonic/gin"

	"parishdesk/internal/core/apperror"
	appctx "parishdesk/internal/core/context"
	"parishdesk/internal/infrastructure/ratelimit"
	"parishdesk/pkg/logger"
)

// RateLimit enforces the per-organization, per-client request quota. The
// limiter is injected so deployments can choose the in-process or shared
// Redis implementation. Runs after Organization, which supplies the org half
// of the key. Stage handler: does not call Next.
func RateLimit(limiter ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := appctx.GetOrgID(c.Request.Context())
		if orgID == "" {
			// No tenant scope resolved; nothing to meter against.
			return
		}

		key := ratelimit.Key(orgID, c.ClientIP())
		result, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			// A broken limiter must not take the site down.
			logger.Warn(c.Request.Context(), "rate limiter unavailable", "error", err)
			return
		}

		if !result.Allowed {
			retryAfter := int(result.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			_ = c.Error(apperror.NewRateLimited(retryAfter))
			c.Abort()
		}
	}
}
