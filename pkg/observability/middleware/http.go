package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// untracedPaths are health checks that would only add noise to traces.
var untracedPaths = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
	"/metrics": true,
}

// MetricPrefix turns a service name into an instrument name prefix.
func MetricPrefix(serviceName string) string {
	return "jan_" + strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(strings.ToLower(serviceName))
}

// HTTPMiddleware starts a server span per request and records OTEL request
// metrics. Streaming responses are tagged so long spans of chat turns can be
// told apart from slow requests.
func HTTPMiddleware(tracer trace.Tracer, meter metric.Meter, serviceName string) gin.HandlerFunc {
	prefix := MetricPrefix(serviceName)
	requestDuration, _ := meter.Float64Histogram(
		prefix+"_otel_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	requestsTotal, _ := meter.Int64Counter(
		prefix+"_otel_requests_total",
		metric.WithDescription("Total HTTP requests"),
	)

	return func(c *gin.Context) {
		if untracedPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		ctx, span := tracer.Start(ctx, c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(c.Request.Method),
				semconv.HTTPRoute(route),
				attribute.String("http.request_id", c.GetHeader("X-Request-Id")),
			),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		streaming := strings.HasPrefix(c.Writer.Header().Get("Content-Type"), "text/event-stream")
		attrs := metric.WithAttributes(
			attribute.String("method", c.Request.Method),
			attribute.String("route", route),
			attribute.Int("status", status),
			attribute.Bool("streaming", streaming),
		)
		requestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
		requestsTotal.Add(ctx, 1, attrs)

		span.SetAttributes(semconv.HTTPResponseStatusCode(status), attribute.Bool("http.streaming", streaming))
		if status >= 500 {
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
		}
		if last := c.Errors.Last(); last != nil {
			span.RecordError(last.Err)
		}
	}
}
