package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Assistant-API Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "assistant_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "assistant_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint"},
	)

	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "assistant_api",
			Name:      "uploads_total",
			Help:      "Total file uploads",
		},
		[]string{"embed_type", "result"},
	)

	UploadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "assistant_api",
			Name:      "upload_duration_seconds",
			Help:      "File upload duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"embed_type"},
	)

	FilesAPIDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "assistant_api",
			Name:      "filesapi_request_duration_seconds",
			Help:      "Files API request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 120},
		},
		[]string{"operation", "status"},
	)

	ChatTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "assistant_api",
			Name:      "chat_turns_total",
			Help:      "Total chat turns",
		},
		[]string{"result"},
	)

	ToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "assistant_api",
			Name:      "tool_calls_total",
			Help:      "Total tool calls made by models",
		},
		[]string{"tool", "status"},
	)

	HistoryPersistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "assistant_api",
			Name:      "history_persist_failures_total",
			Help:      "Chat messages that could not be stored in the conversation history",
		},
	)

	StaleUploadsRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "assistant_api",
			Name:      "stale_uploads_removed_total",
			Help:      "Uploads removed by the cleanup job after staying in progress too long",
		},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordUpload records a file upload
func RecordUpload(embedType, result string, durationSec float64) {
	UploadsTotal.WithLabelValues(embedType, result).Inc()
	UploadDuration.WithLabelValues(embedType).Observe(durationSec)
}

// RecordFilesAPIRequest records a files API call
func RecordFilesAPIRequest(operation, status string, durationSec float64) {
	FilesAPIDuration.WithLabelValues(operation, status).Observe(durationSec)
}

func RecordChatTurn(result string) {
	ChatTurnsTotal.WithLabelValues(result).Inc()
}

func RecordToolCall(tool, status string) {
	ToolCallsTotal.WithLabelValues(tool, status).Inc()
}

func RecordHistoryPersistFailure() {
	HistoryPersistFailures.Inc()
}

func RecordStaleUploadsRemoved(count int) {
	StaleUploadsRemoved.Add(float64(count))
}
