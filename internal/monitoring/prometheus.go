package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reload results.
const (
	ReloadSwapped   = "swapped"
	ReloadUnchanged = "unchanged"
	ReloadFailed    = "failed"
)

var (
	// Pipeline Metrics
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kfestival_operation_duration_seconds",
			Help:    "Duration of load, filter and export operations in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"operation"},
	)

	OperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kfestival_operation_errors_total",
			Help: "Total number of failed operations",
		},
		[]string{"operation"},
	)

	// Dataset Metrics
	DatasetRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kfestival_dataset_rows",
			Help: "Number of records in the current snapshot",
		},
	)

	DatasetSkippedRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kfestival_dataset_skipped_rows",
			Help: "Source rows skipped while building the current snapshot",
		},
	)

	DatasetDefaultedCells = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kfestival_dataset_defaulted_cells",
			Help: "Cells replaced by a default while building the current snapshot",
		},
	)

	DatasetLoadedTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kfestival_dataset_loaded_timestamp_seconds",
			Help: "Unix time the current snapshot was built",
		},
	)

	ReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kfestival_reloads_total",
			Help: "Snapshot reload attempts by result",
		},
		[]string{"result"}, // "swapped", "unchanged", "failed"
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kfestival_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kfestival_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kfestival_api_active_requests",
			Help: "Current number of active API requests",
		},
	)
)

// ObserveOperation records the duration and outcome of one operation.
func ObserveOperation(operation string, duration time.Duration, err error) {
	OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		OperationErrors.WithLabelValues(operation).Inc()
	}
}

// Time runs fn and observes its duration.
func Time(operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	ObserveOperation(operation, time.Since(start), err)
	return err
}

// RecordDataset publishes the shape of a freshly installed snapshot.
func RecordDataset(rows, skipped, defaulted int, loadedAt time.Time) {
	DatasetRows.Set(float64(rows))
	DatasetSkippedRows.Set(float64(skipped))
	DatasetDefaultedCells.Set(float64(defaulted))
	DatasetLoadedTimestamp.Set(float64(loadedAt.Unix()))
}

// RecordReload counts one reload attempt.
func RecordReload(result string) {
	ReloadsTotal.WithLabelValues(result).Inc()
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
