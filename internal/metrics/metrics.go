package metrics

import (
	"regexp"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var datasetPathRegex = regexp.MustCompile(`/(datasets|files)/[^/]+`)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tally_http_requests_total",
			Help: "Total number of HTTP requests served by the local dashboard",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tally_http_request_duration_seconds",
			Help:    "Local dashboard request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tally_http_requests_in_flight",
			Help: "Number of dashboard requests currently being processed",
		},
		[]string{"method"},
	)

	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tally_http_response_size_bytes",
			Help:    "Dashboard response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path", "status"},
	)

	BackendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tally_backend_requests_total",
			Help: "Total number of calls made to the analytics backend",
		},
		[]string{"endpoint", "outcome"},
	)

	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tally_backend_request_duration_seconds",
			Help:    "Analytics backend call duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"endpoint"},
	)

	SectionFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tally_section_failures_total",
			Help: "Analytics sections that degraded to empty because their call failed",
		},
		[]string{"section"},
	)

	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tally_refresh_duration_seconds",
			Help:    "Duration of a full analytics refresh including normalization",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	DatasetUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tally_dataset_uploads_total",
			Help: "Total number of dataset uploads",
		},
		[]string{"status"},
	)

	DatasetUploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tally_dataset_upload_bytes",
			Help:    "Size of uploaded datasets in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		},
	)

	ChatTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tally_chat_turns_total",
			Help: "Chat turns by outcome",
		},
		[]string{"outcome"},
	)

	ChatTurnDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tally_chat_turn_duration_seconds",
			Help:    "Time spent waiting for an assistant answer",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	ReportsGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tally_reports_generated_total",
			Help: "HTML reports rendered by destination",
		},
		[]string{"destination"},
	)

	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tally_storage_operations_total",
			Help: "Total number of report storage operations",
		},
		[]string{"operation", "status"},
	)

	StorageOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tally_storage_operation_duration_seconds",
			Help:    "Duration of report storage operations in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation"},
	)

	StorageBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tally_storage_bytes_total",
			Help: "Bytes moved to and from report storage",
		},
		[]string{"direction"},
	)

	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tally_app_info",
			Help: "Build information",
		},
		[]string{"version", "backend"},
	)
)

// NormalizePath collapses dataset identifiers so label cardinality stays bounded.
func NormalizePath(path string) string {
	return datasetPathRegex.ReplaceAllString(path, "/$1/:id")
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func RecordBackendCall(endpoint string, err error, duration time.Duration) {
	BackendRequestsTotal.WithLabelValues(endpoint, outcome(err)).Inc()
	BackendRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func RecordSectionFailure(section string) {
	SectionFailuresTotal.WithLabelValues(section).Inc()
}

func RecordUpload(err error, sizeBytes int64) {
	DatasetUploadsTotal.WithLabelValues(outcome(err)).Inc()
	if err == nil && sizeBytes > 0 {
		DatasetUploadBytes.Observe(float64(sizeBytes))
	}
}

func RecordChatTurn(err error, duration time.Duration) {
	ChatTurnsTotal.WithLabelValues(outcome(err)).Inc()
	ChatTurnDuration.Observe(duration.Seconds())
}

func RecordReport(destination string) {
	ReportsGeneratedTotal.WithLabelValues(destination).Inc()
}

func SetAppInfo(version, backend string) {
	AppInfo.WithLabelValues(version, backend).Set(1)
}
