// Package monitoring records operation timings for the festival guide and
// exposes them as Prometheus metrics.
package monitoring

import (
	"sync"
	"time"
)

// maxHistory bounds the in-process operation history.
const maxHistory = 1024

// OperationMetrics represents one timed operation.
type OperationMetrics struct {
	Operation string        `json:"operation"`
	Duration  time.Duration `json:"duration"`
	Failed    bool          `json:"failed"`
	At        time.Time     `json:"at"`
}

// MetricsCollector keeps a bounded history of recent operations and feeds
// the operation duration histogram.
type MetricsCollector struct {
	mu      sync.RWMutex
	metrics []OperationMetrics
	enabled bool
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector(enabled bool) *MetricsCollector {
	return &MetricsCollector{
		metrics: make([]OperationMetrics, 0),
		enabled: enabled,
	}
}

// IsEnabled returns whether metrics collection is enabled.
func (mc *MetricsCollector) IsEnabled() bool {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.enabled
}

// SetEnabled enables or disables metrics collection.
func (mc *MetricsCollector) SetEnabled(enabled bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.enabled = enabled
}

// RecordOperation executes fn and records its duration and outcome.
func (mc *MetricsCollector) RecordOperation(operation string, fn func() error) error {
	if !mc.IsEnabled() {
		return fn()
	}

	start := time.Now()
	err := fn()
	duration := time.Since(start)

	ObserveOperation(operation, duration, err)

	mc.mu.Lock()
	if len(mc.metrics) == maxHistory {
		copy(mc.metrics, mc.metrics[1:])
		mc.metrics = mc.metrics[:maxHistory-1]
	}
	mc.metrics = append(mc.metrics, OperationMetrics{
		Operation: operation,
		Duration:  duration,
		Failed:    err != nil,
		At:        start,
	})
	mc.mu.Unlock()

	return err
}

// GetMetrics returns a copy of all collected metrics.
func (mc *MetricsCollector) GetMetrics() []OperationMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	result := make([]OperationMetrics, len(mc.metrics))
	copy(result, mc.metrics)
	return result
}

// Clear removes all collected metrics.
func (mc *MetricsCollector) Clear() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.metrics = mc.metrics[:0]
}

// GetSummary returns aggregate statistics for the collected metrics.
func (mc *MetricsCollector) GetSummary() MetricsSummary {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	if len(mc.metrics) == 0 {
		return MetricsSummary{}
	}

	var total time.Duration
	failures := 0
	counts := make(map[string]int)
	for _, m := range mc.metrics {
		total += m.Duration
		counts[m.Operation]++
		if m.Failed {
			failures++
		}
	}

	return MetricsSummary{
		TotalOperations: len(mc.metrics),
		Failures:        failures,
		TotalDuration:   total,
		OperationCounts: counts,
		AverageDuration: total / time.Duration(len(mc.metrics)),
	}
}

// MetricsSummary provides aggregate statistics for collected metrics.
type MetricsSummary struct {
	TotalOperations int            `json:"total_operations"`
	Failures        int            `json:"failures"`
	TotalDuration   time.Duration  `json:"total_duration"`
	OperationCounts map[string]int `json:"operation_counts"`
	AverageDuration time.Duration  `json:"average_duration"`
}
