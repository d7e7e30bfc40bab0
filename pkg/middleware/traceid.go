package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tripcraft/pkg/logger"
)

const traceHeader = "X-Trace-ID"

// TraceIDMiddleware reuses an incoming X-Trace-ID (so the chat transport can
// correlate its logs) or mints a new one, and logs each request with it.
// Errors handlers attached to the context are logged at error level.
func TraceIDMiddleware(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.NewNop()
	}
	return func(c *gin.Context) {
		traceID := c.GetHeader(traceHeader)
		if _, err := uuid.Parse(traceID); err != nil {
			traceID = uuid.New().String()
		}
		c.Set("trace_id", traceID)
		c.Writer.Header().Set(traceHeader, traceID)

		c.Next()

		if len(c.Errors) > 0 {
			log.Error("request failed",
				"trace_id", traceID,
				"method", c.Request.Method,
				"path", c.FullPath(),
				"status", c.Writer.Status(),
				"error", c.Errors.String(),
			)
			return
		}
		log.Debug("request handled",
			"trace_id", traceID,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
		)
	}
}
