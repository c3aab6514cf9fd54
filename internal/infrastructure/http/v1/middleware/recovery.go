// Package middleware provides the HTTP middleware pipeline: globally applied
// wrap middleware (recovery, tracing, logging, the error boundary) and the
// per-prefix stage stacks selected by the dispatcher.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"parishdesk/internal/core/apperror"
	"parishdesk/pkg/logger"
)

// Recovery recovers from panics and converts them into internal errors.
// Logs the stack trace but never exposes internals to the client.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					"error", err,
					"stack", string(debug.Stack()),
				)

				_ = c.Error(
					apperror.NewInternal(fmt.Errorf("panic: %v", err)).
						WithDetail("request_id", c.GetString("request_id")),
				)
				c.Abort()
			}
		}()
		c.Next()
	}
}
