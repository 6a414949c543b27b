package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tradingview-relay/internal/logging"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-ID"

const panicKey = "panic_info"

// RequestContext attaches a request id and a request-scoped logger to the
// request context. An inbound X-Request-ID is honoured.
func RequestContext(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}

		ctx := logging.WithLogger(c.Request.Context(), logger)
		ctx = logging.WithRequestID(ctx, reqID)
		c.Request = c.Request.WithContext(ctx)
		c.Header(RequestIDHeader, reqID)
		c.Next()
	}
}

// AccessLog logs one line per request once the handler chain has finished.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		status := c.Writer.Status()
		logger := logging.FromContext(c.Request.Context())

		var event *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			event = logger.Error()
		case status >= http.StatusBadRequest:
			event = logger.Warn()
		default:
			event = logger.Info()
		}

		if panicInfo, ok := c.Get(panicKey); ok {
			event = event.Str("panic", fmt.Sprint(panicInfo))
		}
		event.
			Str("event", "http_request").
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Int("bytes", c.Writer.Size()).
			Msg("Request handled")
	}
}

// Recovery turns a handler panic into a 500 and records it for AccessLog.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				c.Set(panicKey, fmt.Sprintf("PANIC: %v", r))
				c.AbortWithStatusJSON(http.StatusInternalServerError, statusResponse{
					Status:  "error",
					Message: "Internal error",
				})
			}
		}()

		c.Next()
	}
}
