package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wheelscan/go-wheel-trainer/internal/logger"
)

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	logger.SetLogger(zap.New(core))
	t.Cleanup(func() { logger.SetLogger(zap.NewNop()) })
	return logs
}

func TestRequestCorrelationMiddleware_ClientIDs(t *testing.T) {
	observeLogs(t)
	var seen string
	handler := RequestCorrelationMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/train", nil)
	req.Header.Set("X-Request-ID", "client-req")
	req.Header.Set("X-Correlation-ID", "client-corr")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "client-req", seen)
	assert.Equal(t, "client-req", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "client-corr", rec.Header().Get("X-Correlation-ID"))
}

func TestRequestCorrelationMiddleware_GeneratedIDs(t *testing.T) {
	observeLogs(t)
	handler := RequestCorrelationMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/tags", nil))

	requestID := rec.Header().Get("X-Request-ID")
	assert.Len(t, requestID, 16)
	assert.Equal(t, requestID, rec.Header().Get("X-Correlation-ID"))
}

func TestRequestCorrelationMiddleware_CloudFlareRay(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("CF-Ray", "8a1b2c3d4e5f-AMS")

	requestID, correlationID, sources := extractTrackingIDs(req)
	assert.Equal(t, "8a1b2c3d4e5f-AMS", requestID)
	assert.Equal(t, "8a1b2c3d4e5f-AMS", correlationID)
	assert.Equal(t, "cloudflare-ray", sources.RequestIDSource)
}

func TestRequestCorrelationMiddleware_LogLevels(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		status    int
		wantLevel zapcore.Level
		wantLog   bool
	}{
		{"success", "/train", http.StatusOK, zapcore.InfoLevel, true},
		{"client error", "/train", http.StatusBadRequest, zapcore.WarnLevel, true},
		{"server error", "/clear", http.StatusInternalServerError, zapcore.ErrorLevel, true},
		{"healthy check is quiet", "/health", http.StatusOK, zapcore.InfoLevel, false},
		{"failing health check", "/health", http.StatusServiceUnavailable, zapcore.ErrorLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := observeLogs(t)
			handler := RequestCorrelationMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"message":"x"}`))
			}))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, tt.path, nil))

			completed := logs.FilterField(zap.String("path", tt.path)).All()
			if !tt.wantLog {
				assert.Empty(t, completed)
				return
			}
			require.Len(t, completed, 1)
			assert.Equal(t, tt.wantLevel, completed[0].Level)
			assert.Equal(t, int64(tt.status), completed[0].ContextMap()["status_code"])
		})
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:5555"
	assert.Equal(t, "10.0.0.9", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", clientIP(req))
}
