// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalyzeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qaa_requests_total",
			Help: "Total analyze requests",
		},
		[]string{"status"},
	)

	ProcessingTime = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "qaa_processing_time_seconds",
			Help: "Analyze processing time (seconds)",
		},
	)

	GenAIAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qaa_genai_attempts_total",
			Help: "Generative model call attempts by model and outcome",
		},
		[]string{"model", "outcome"},
	)

	AuditFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qaa_audit_failures_total",
			Help: "Best-effort audit operations that failed",
		},
	)
)
