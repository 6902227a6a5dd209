package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordRequest(t *testing.T) {
	metrics := NewMetrics()

	metrics.RecordRequest(100*time.Millisecond, http.StatusOK, "POST /train")
	metrics.RecordRequest(50*time.Millisecond, http.StatusBadRequest, "POST /train")

	stats := metrics.GetStats()
	assert.Equal(t, int64(2), stats.TotalRequests)
	assert.Equal(t, int64(1), stats.TotalErrors)
	assert.Equal(t, int64(75), stats.AverageDurationMs)
	assert.InDelta(t, 0.5, stats.ErrorRate, 0.0001)
	assert.Equal(t, int64(2), stats.RouteRequests["POST /train"])
	assert.Equal(t, int64(1), stats.StatusCodeCounts[http.StatusBadRequest])
}

func TestMetrics_RecordTrainingOutcome(t *testing.T) {
	metrics := NewMetrics()

	metrics.RecordTrainingOutcome("published")
	metrics.RecordTrainingOutcome("published")
	metrics.RecordTrainingOutcome("training_failed")

	stats := metrics.GetStats()
	assert.Equal(t, int64(2), stats.TrainingOutcomes["published"])
	assert.Equal(t, int64(1), stats.TrainingOutcomes["training_failed"])
}

func TestMetrics_GetStatsReturnsCopies(t *testing.T) {
	metrics := NewMetrics()
	metrics.RecordRequest(time.Millisecond, http.StatusOK, "GET /health")

	stats := metrics.GetStats()
	stats.RouteRequests["GET /health"] = 99

	assert.Equal(t, int64(1), metrics.GetStats().RouteRequests["GET /health"])
}

func TestMetrics_Reset(t *testing.T) {
	metrics := NewMetrics()
	metrics.RecordRequest(time.Millisecond, http.StatusInternalServerError, "POST /clear")
	metrics.RecordTrainingOutcome("vision_error")

	metrics.Reset()

	stats := metrics.GetStats()
	assert.Zero(t, stats.TotalRequests)
	assert.Zero(t, stats.TotalErrors)
	assert.Empty(t, stats.TrainingOutcomes)
	assert.Zero(t, stats.ErrorRate)
}

func TestMiddlewareCapturesStatus(t *testing.T) {
	metrics := NewMetrics()
	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/tags", nil))

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.StatusCodeCounts[http.StatusTeapot])
	assert.Equal(t, int64(1), stats.RouteRequests["GET /v1/tags"])
}

func TestMetricsHandler(t *testing.T) {
	GetMetrics().Reset()
	GetMetrics().RecordTrainingOutcome("published")

	rec := httptest.NewRecorder()
	MetricsHandler(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var stats Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(1), stats.TrainingOutcomes["published"])
}
