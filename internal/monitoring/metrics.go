package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/pprof"
	"sync"
	"time"

	"github.com/wheelscan/go-wheel-trainer/internal/logger"
	"github.com/wheelscan/go-wheel-trainer/internal/utils"
)

// Metrics holds in-process request and training counters
type Metrics struct {
	mu               sync.RWMutex
	requestCount     int64
	requestDuration  time.Duration
	errorCount       int64
	routeCounts      map[string]int64
	statusCodeCounts map[int]int64
	trainingOutcomes map[string]int64
	startTime        time.Time
}

// Stats is the JSON view of Metrics
type Stats struct {
	UptimeSeconds     float64          `json:"uptime_seconds"`
	TotalRequests     int64            `json:"total_requests"`
	TotalErrors       int64            `json:"total_errors"`
	AverageDurationMs int64            `json:"average_duration_ms"`
	ErrorRate         float64          `json:"error_rate"`
	RouteRequests     map[string]int64 `json:"route_requests"`
	StatusCodeCounts  map[int]int64    `json:"status_code_counts"`
	TrainingOutcomes  map[string]int64 `json:"training_outcomes"`
	StartTime         string           `json:"start_time"`
}

// NewMetrics creates an empty metrics set
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.Reset()
	return m
}

var globalMetrics = NewMetrics()

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordRequest records a request with its duration and status
func (m *Metrics) RecordRequest(duration time.Duration, statusCode int, route string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requestCount++
	m.requestDuration += duration
	m.statusCodeCounts[statusCode]++
	if route != "" {
		m.routeCounts[route]++
	}
	if statusCode >= 400 {
		m.errorCount++
	}
}

// RecordTrainingOutcome counts one finished training run
func (m *Metrics) RecordTrainingOutcome(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trainingOutcomes[outcome]++
}

// GetStats returns a copy of the current counters
func (m *Metrics) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{
		UptimeSeconds:    time.Since(m.startTime).Seconds(),
		TotalRequests:    m.requestCount,
		TotalErrors:      m.errorCount,
		RouteRequests:    make(map[string]int64, len(m.routeCounts)),
		StatusCodeCounts: make(map[int]int64, len(m.statusCodeCounts)),
		TrainingOutcomes: make(map[string]int64, len(m.trainingOutcomes)),
		StartTime:        m.startTime.Format(time.RFC3339),
	}
	if m.requestCount > 0 {
		stats.AverageDurationMs = (m.requestDuration / time.Duration(m.requestCount)).Milliseconds()
		stats.ErrorRate = float64(m.errorCount) / float64(m.requestCount)
	}
	for k, v := range m.routeCounts {
		stats.RouteRequests[k] = v
	}
	for k, v := range m.statusCodeCounts {
		stats.StatusCodeCounts[k] = v
	}
	for k, v := range m.trainingOutcomes {
		stats.TrainingOutcomes[k] = v
	}
	return stats
}

// Reset resets all metrics (useful for testing)
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requestCount = 0
	m.requestDuration = 0
	m.errorCount = 0
	m.routeCounts = make(map[string]int64)
	m.statusCodeCounts = make(map[int]int64)
	m.trainingOutcomes = make(map[string]int64)
	m.startTime = time.Now()
}

// Middleware records every request into m
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)
		route := r.Method + " " + r.URL.Path
		if r.Pattern != "" {
			route = r.Pattern
		}
		m.RecordRequest(duration, wrapper.statusCode, route)

		logger.DebugCtx(r.Context(), "Request metrics recorded",
			"route", route,
			"status_code", wrapper.statusCode,
			"duration_ms", duration.Milliseconds())
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.statusCode = statusCode
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *responseWriterWrapper) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// MetricsHandler returns the global metrics as JSON
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	globalMetrics.Handler(w, r)
}

// Handler returns the current stats of m as JSON
func (m *Metrics) Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(utils.HeaderContentType, utils.ContentTypeJSON)
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(m.GetStats()); err != nil {
		logger.WarnCtx(r.Context(), "Failed to encode metrics", "error", err)
	}
}

// SetupPprofRoutes adds pprof endpoints to the router
func SetupPprofRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
}
