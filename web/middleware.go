package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler = gin.HandlerFunc
type Router = gin.IRouter

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// RequestID propagates the caller's X-Request-ID or mints a UUID.
func RequestID() Handler {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Set(requestIDKey, id)
		c.Next()
	}
}

// AccessLog writes one structured line per request after it completes.
func AccessLog(l *slog.Logger) Handler {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		l.Info("http_access",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.ClientIP(),
			"req_id", c.GetString(requestIDKey),
		)
	}
}

// RecoveryProblem turns a handler panic into an RFC 7807 problem+json 500.
func RecoveryProblem(l *slog.Logger) Handler {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				l.Error("panic", "error", rec, "req_id", c.GetString(requestIDKey))
				c.Header("Content-Type", "application/problem+json")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"type":   "about:blank",
					"title":  http.StatusText(http.StatusInternalServerError),
					"status": http.StatusInternalServerError,
					"detail": "unexpected server error",
				})
			}
		}()
		c.Next()
	}
}
