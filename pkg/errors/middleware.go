package errors

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"animehome/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Body renders an error the way API clients expect it: {"detail": ..., "code": ...}.
func Body(appErr *AppError) gin.H {
	body := gin.H{
		"detail": appErr.Message,
		"code":   appErr.Code,
	}
	if appErr.Details != nil {
		body["details"] = appErr.Details
	}
	return body
}

// ErrorHandler returns a middleware that catches and formats application errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		appErr := FromError(c.Errors[0].Err)

		log := logger.FromContext(c)
		if appErr.StatusCode >= http.StatusInternalServerError {
			log.Error("Request error",
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
				"status_code", appErr.StatusCode,
				"error_code", appErr.Code,
				"message", appErr.Message,
			)
		} else {
			log.Debug("Request rejected",
				"path", c.Request.URL.Path,
				"status_code", appErr.StatusCode,
				"error_code", appErr.Code,
			)
		}

		// A streaming handler may already have committed its response.
		if c.Writer.Written() {
			return
		}

		c.AbortWithStatusJSON(appErr.StatusCode, Body(appErr))
	}
}

// RecoveryWithLogger returns a middleware that recovers from any panics
// and logs the error with the request ID if available
func RecoveryWithLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())

				logger.FromContext(c).Error("Panic recovered",
					"error", r,
					"stack", stack,
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)

				if c.Writer.Written() {
					c.Abort()
					return
				}

				appErr := NewInternalServerError("SERVER_ERROR", "The server encountered an unexpected error")
				if gin.Mode() == gin.DebugMode {
					appErr.Details = fmt.Sprintf("Panic: %v", r)
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, Body(appErr))
			}
		}()

		c.Next()
	}
}
