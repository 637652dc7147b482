package middlewares

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"jan-server/services/assistant-api/internal/utils/platformerrors"
)

// quietPaths are polled by orchestrators and only logged when they fail.
var quietPaths = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
	"/metrics": true,
}

// LoggingMiddleware writes one line per request. Errors attached with
// c.Error are embedded, platform errors with their code and layer.
func LoggingMiddleware(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		if quietPaths[path] && status < 400 {
			return
		}

		var event *zerolog.Event
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		default:
			event = logger.Info()
		}

		if spanCtx := trace.SpanFromContext(c.Request.Context()).SpanContext(); spanCtx.IsValid() {
			event = event.Str("trace_id", spanCtx.TraceID().String())
		}
		if requestID := RequestIDFromContext(c); requestID != "" {
			event = event.Str("request_id", requestID)
		}
		if u, ok := UserFromContext(c); ok {
			event = event.Bool("admin", u.Admin)
		}
		if last := c.Errors.Last(); last != nil {
			var platformErr *platformerrors.PlatformError
			if errors.As(last.Err, &platformErr) {
				event = event.Object("error", platformErr)
			} else {
				event = event.Err(last.Err)
			}
		}

		// Query strings are left out; they can carry search terms and document uris.
		event.
			Str("method", c.Request.Method).
			Str("route", c.FullPath()).
			Str("path", path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("http request")
	}
}
