package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCollector_RecordOperation(t *testing.T) {
	mc := NewMetricsCollector(true)
	boom := errors.New("boom")

	require.NoError(t, mc.RecordOperation("filter", func() error { return nil }))
	assert.ErrorIs(t, mc.RecordOperation("load", func() error { return boom }), boom)

	got := mc.GetMetrics()
	require.Len(t, got, 2)
	assert.Equal(t, "filter", got[0].Operation)
	assert.False(t, got[0].Failed)
	assert.True(t, got[1].Failed)

	summary := mc.GetSummary()
	assert.Equal(t, 2, summary.TotalOperations)
	assert.Equal(t, 1, summary.Failures)
	assert.Equal(t, map[string]int{"filter": 1, "load": 1}, summary.OperationCounts)

	mc.Clear()
	assert.Empty(t, mc.GetMetrics())
	assert.Equal(t, MetricsSummary{}, mc.GetSummary())
}

func TestMetricsCollector_Disabled(t *testing.T) {
	mc := NewMetricsCollector(false)
	called := false
	require.NoError(t, mc.RecordOperation("filter", func() error { called = true; return nil }))
	assert.True(t, called)
	assert.Empty(t, mc.GetMetrics())
}

func TestMetricsCollector_BoundedHistory(t *testing.T) {
	mc := NewMetricsCollector(true)
	for i := 0; i < maxHistory+10; i++ {
		_ = mc.RecordOperation("op", func() error { return nil })
	}
	assert.Len(t, mc.GetMetrics(), maxHistory)
}

func TestRecordGlobalOperation(t *testing.T) {
	SetGlobalCollector(nil)
	require.NoError(t, RecordGlobalOperation("noop", func() error { return nil }))
	assert.Equal(t, MetricsSummary{}, GetGlobalSummary())

	EnableGlobalMonitoring()
	defer SetGlobalCollector(nil)
	require.NoError(t, RecordGlobalOperation("noop", func() error { return nil }))
	assert.Equal(t, 1, GetGlobalSummary().TotalOperations)
}

func TestObserveOperation_CountsErrors(t *testing.T) {
	before := testutil.ToFloat64(OperationErrors.WithLabelValues("test_observe"))
	ObserveOperation("test_observe", time.Millisecond, nil)
	ObserveOperation("test_observe", time.Millisecond, errors.New("x"))
	assert.Equal(t, before+1, testutil.ToFloat64(OperationErrors.WithLabelValues("test_observe")))
}

func TestRecordDatasetAndReload(t *testing.T) {
	RecordDataset(12, 2, 5, time.Unix(1700000000, 0))
	assert.Equal(t, 12.0, testutil.ToFloat64(DatasetRows))
	assert.Equal(t, 2.0, testutil.ToFloat64(DatasetSkippedRows))
	assert.Equal(t, 5.0, testutil.ToFloat64(DatasetDefaultedCells))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(DatasetLoadedTimestamp))

	before := testutil.ToFloat64(ReloadsTotal.WithLabelValues(ReloadFailed))
	RecordReload(ReloadFailed)
	assert.Equal(t, before+1, testutil.ToFloat64(ReloadsTotal.WithLabelValues(ReloadFailed)))
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/season/{season}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	counter := APIRequestsTotal.WithLabelValues(http.MethodGet, "/season/{season}", "418")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/season/winter", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
	assert.Equal(t, 0.0, testutil.ToFloat64(APIActiveRequests))
}

func TestHandler(t *testing.T) {
	ObserveOperation("test_handler", time.Millisecond, nil)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "kfestival_operation_duration_seconds"))
}
