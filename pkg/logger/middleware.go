package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request id. For chat requests it doubles as the stream id.
const RequestIDHeader = "X-Request-ID"

// Context keys used by the middleware
const (
	ContextLoggerKey    = "logger"
	ContextRequestIDKey = "request_id"
)

// Middleware returns a Gin middleware function that logs requests
func Middleware(logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Generate a request ID if one doesn't exist
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header(RequestIDHeader, requestID)

		// Create a request-scoped logger
		reqLogger := logger.WithRequestID(requestID)

		// Store the logger in the context
		c.Set(ContextLoggerKey, reqLogger)
		c.Set(ContextRequestIDKey, requestID)

		// Record start time
		start := time.Now()

		// Process request
		c.Next()

		// Log request details
		latency := time.Since(start)
		status := c.Writer.Status()
		path := c.Request.URL.Path
		method := c.Request.Method

		reqLogger.LogRequest(method, path, status, latency)

		// Log errors if any
		for _, err := range c.Errors {
			reqLogger.LogError(err.Err, "request error",
				"method", method,
				"path", path,
				"error_type", err.Type,
			)
		}
	}
}

// FromContext returns the request-scoped logger, or the global one outside a request.
func FromContext(c *gin.Context) *Logger {
	if c != nil {
		if v, ok := c.Get(ContextLoggerKey); ok {
			if l, ok := v.(*Logger); ok {
				return l
			}
		}
	}
	if global != nil {
		return global
	}
	return New(DefaultConfig())
}

// RequestID returns the id assigned by Middleware.
func RequestID(c *gin.Context) string {
	return c.GetString(ContextRequestIDKey)
}
