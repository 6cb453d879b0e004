package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Chat-API Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arbor",
			Subsystem: "chat_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "arbor",
			Subsystem: "chat_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint", "status"},
	)

	// Conversations
	ConversationsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "arbor",
			Subsystem: "chat_api",
			Name:      "conversations_created_total",
			Help:      "Total conversations created",
		},
	)

	ConversationsDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "arbor",
			Subsystem: "chat_api",
			Name:      "conversations_deleted_total",
			Help:      "Total conversations deleted",
		},
	)

	MessagesAppendedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arbor",
			Subsystem: "chat_api",
			Name:      "messages_appended_total",
			Help:      "Total messages appended",
		},
		[]string{"role", "branch_kind"},
	)

	// Branching
	ForksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arbor",
			Subsystem: "chat_api",
			Name:      "forks_total",
			Help:      "Fork attempts by outcome",
		},
		[]string{"status"},
	)

	TranscriptResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arbor",
			Subsystem: "chat_api",
			Name:      "transcript_resolutions_total",
			Help:      "Transcript resolutions by branch kind",
		},
		[]string{"branch_kind"},
	)

	// Upstream inference
	InferenceErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arbor",
			Subsystem: "chat_api",
			Name:      "inference_errors_total",
			Help:      "Upstream inference call failures",
		},
		[]string{"error_type"},
	)

	InferenceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "arbor",
			Subsystem: "chat_api",
			Name:      "inference_duration_seconds",
			Help:      "Upstream inference duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"persisted"},
	)

	FirstTokenLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "arbor",
			Subsystem: "chat_api",
			Name:      "first_token_latency_seconds",
			Help:      "Latency until the first streamed token",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)

	// Auth requests
	AuthRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arbor",
			Subsystem: "chat_api",
			Name:      "auth_requests_total",
			Help:      "Total authentication requests",
		},
		[]string{"status"},
	)

	// Active streaming connections gauge
	ActiveStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "arbor",
			Subsystem: "chat_api",
			Name:      "active_streams",
			Help:      "Currently active streaming connections",
		},
	)
)

// RecordRequest records an HTTP request with all relevant labels
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint, status).Observe(durationSec)
}

// RecordMessageAppended records a persisted message
func RecordMessageAppended(role string, mainBranch bool) {
	MessagesAppendedTotal.WithLabelValues(role, branchKind(mainBranch)).Inc()
}

// RecordFork records a fork attempt outcome
func RecordFork(status string) {
	ForksTotal.WithLabelValues(status).Inc()
}

// RecordTranscriptResolution records a transcript read
func RecordTranscriptResolution(mainBranch bool) {
	TranscriptResolutionsTotal.WithLabelValues(branchKind(mainBranch)).Inc()
}

// RecordInference records an upstream completion call
func RecordInference(persisted bool, durationSec float64) {
	label := "false"
	if persisted {
		label = "true"
	}
	InferenceDuration.WithLabelValues(label).Observe(durationSec)
}

// RecordFirstToken records the latency until the first streamed token
func RecordFirstToken(latencySec float64) {
	FirstTokenLatency.Observe(latencySec)
}

// RecordInferenceError records an upstream failure
func RecordInferenceError(errorType string) {
	InferenceErrorsTotal.WithLabelValues(errorType).Inc()
}

// RecordAuthRequest records an authentication attempt
func RecordAuthRequest(status string) {
	AuthRequestsTotal.WithLabelValues(status).Inc()
}

func branchKind(mainBranch bool) string {
	if mainBranch {
		return "main"
	}
	return "fork"
}
