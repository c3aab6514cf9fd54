package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"parishdesk/internal/core/apperror"
	"parishdesk/pkg/logger"
)

// ErrorHandler is the single error boundary. Errors are classified by their
// AppError code: API clients get consistent JSON, browser requests get a
// redirect to the page that can explain the failure. Rate limiting is always
// a 429 regardless of client type.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		// A handler that already wrote keeps its response.
		if c.Writer.Written() {
			return
		}

		appErr, ok := apperror.AsAppError(err)
		if !ok {
			logger.Error(c.Request.Context(), "unhandled error", "error", err)
			appErr = apperror.NewInternal(err)
		}

		if appErr.Err != nil {
			logger.Error(c.Request.Context(), "request error",
				"code", appErr.Code,
				"cause", appErr.Err,
			)
		}

		if appErr.Code == apperror.CodeRateLimited {
			if retry, ok := appErr.Details["retry_after_seconds"].(int); ok {
				c.Header("Retry-After", fmt.Sprintf("%d", retry))
			}
			writeJSONError(c, appErr)
			return
		}

		if wantsHTML(c) {
			c.Redirect(http.StatusSeeOther, redirectTarget(appErr))
			c.Abort()
			return
		}

		writeJSONError(c, appErr)
	}
}

func writeJSONError(c *gin.Context, appErr *apperror.AppError) {
	message := appErr.Message
	if appErr.Code == apperror.CodeInternal {
		// Never leak internals.
		message = "Internal server error"
	}

	c.JSON(appErr.HTTPStatus, gin.H{
		"code":    appErr.Code,
		"message": message,
		"details": appErr.Details,
	})
}

// wantsHTML reports whether the client prefers an HTML page over JSON.
func wantsHTML(c *gin.Context) bool {
	accept := c.GetHeader("Accept")
	return strings.Contains(accept, "text/html")
}

// redirectTarget maps an error code to the page a browser should land on.
func redirectTarget(appErr *apperror.AppError) string {
	switch appErr.Code {
	case apperror.CodeUnauthorized:
		return "/sign-in"
	case apperror.CodeForbidden, apperror.CodeOrganizationRequired:
		return "/"
	case apperror.CodeFeatureDisabled:
		if slug, ok := appErr.Details["slug"].(string); ok && slug != "" {
			return "/org/" + slug + "/upgrade"
		}
		return "/"
	default:
		return "/error"
	}
}
