package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"equiprent/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RequestLogger writes one log event per request and recovers from panics.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if recovered := recover(); recovered != nil {
				logger.Error().
					Str("error", fmt.Sprintf("%v", recovered)).
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Str("request_id", requestID(c)).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")
				response.Abort(c, http.StatusInternalServerError, response.CodeInternal, "Internal Server Error")
			}
			logRequest(logger, c, start)
		}()

		c.Next()
	}
}

func logRequest(logger zerolog.Logger, c *gin.Context, start time.Time) {
	status := c.Writer.Status()

	ev := logger.Info()
	switch {
	case status >= http.StatusInternalServerError:
		ev = logger.Error()
	case status >= http.StatusBadRequest:
		ev = logger.Warn()
	}

	ev = ev.
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Str("query", c.Request.URL.RawQuery).
		Int("status", status).
		Dur("latency", time.Since(start)).
		Str("client_ip", c.ClientIP())

	if id, ok := UserID(c); ok {
		ev = ev.Str("user_id", id.String())
	}
	if rid := requestID(c); rid != "" {
		ev = ev.Str("request_id", rid)
	}
	if len(c.Errors) > 0 {
		ev = ev.Str("errors", c.Errors.String())
	}
	ev.Msg("request")
}

func requestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = c.GetHeader("X-Request-Id")
	}
	return requestID
}
