package middleware

import (
	"context"

	"animehome/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Key types for context values
type contextKey string

// RequestIDKey is the key for request ID values in contexts
const RequestIDKey contextKey = "requestID"

// RequestContext copies the request ID assigned by the logging middleware into the
// request's context.Context, so code below the HTTP layer can read it.
// It must run after logger.Middleware.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		if requestID := logger.RequestID(c); requestID != "" {
			ctx := context.WithValue(c.Request.Context(), RequestIDKey, requestID)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// GetRequestID extracts the request ID from a context
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}

	return ""
}
