// internal/middleware/logging.go
package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/datasov-backend/internal/events"
	"github.com/javajoker/datasov-backend/internal/utils"
)

// AuditLog records every state-changing request as an event. Request bodies
// are not recorded since they can carry account secrets.
func AuditLog(sink events.Sink) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip reads and health checks
		if c.Request.Method == "GET" || c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		actor, _ := utils.GetActorFromContext(c)
		sink.Emit(c.Request.Context(), events.Event{
			Type:       events.RequestAudited,
			OccurredAt: start.UTC(),
			Actor:      actor,
			Data: map[string]interface{}{
				"action":        c.Request.Method + " " + c.FullPath(),
				"resource_type": extractResourceType(c.Request.URL.Path),
				"status":        c.Writer.Status(),
				"duration_ms":   time.Since(start).Milliseconds(),
				"ip":            c.ClientIP(),
				"user_agent":    c.Request.UserAgent(),
			},
		})
	}
}

func extractResourceType(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 2 && parts[0] == "v1" {
		return parts[1]
	}
	if len(parts) >= 1 && parts[0] != "" {
		return parts[0]
	}
	return "unknown"
}

// RequestLogger logs each request with logrus.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		actor, _ := utils.GetActorFromContext(c)
		entry := logrus.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).Milliseconds(),
			"ip":       c.ClientIP(),
			"actor":    actor,
		})

		switch {
		case c.Writer.Status() >= 500:
			entry.Error("Request processed")
		case c.Writer.Status() >= 400:
			entry.Warn("Request processed")
		default:
			entry.Info("Request processed")
		}
	}
}
