package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/wheelscan/go-wheel-trainer/internal/logger"
	"github.com/wheelscan/go-wheel-trainer/internal/utils"
)

// TrackingIDSources records where the tracking ids came from
type TrackingIDSources struct {
	RequestIDSource     string
	CorrelationIDSource string
}

// RequestCorrelationMiddleware assigns request and correlation ids, echoes
// them in the response headers and logs each request once it completes.
// Successful health checks are not logged.
func RequestCorrelationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID, correlationID, sources := extractTrackingIDs(r)

		w.Header().Set(utils.HeaderRequestID, requestID)
		w.Header().Set(utils.HeaderCorrelationID, correlationID)

		ctx := logger.WithRequestID(r.Context(), requestID)
		ctx = logger.WithCorrelationID(ctx, correlationID)
		logCtx := logger.WithComponent(ctx, logger.ComponentNames.Middleware)

		logger.DebugCtx(logger.WithStage(logCtx, logger.LogStages.TrackingSetup), "Tracking ids assigned",
			"request_id_source", sources.RequestIDSource,
			"correlation_id_source", sources.CorrelationIDSource)

		wrapper := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r.WithContext(ctx))

		if r.URL.Path == "/health" && wrapper.statusCode < 400 {
			return
		}

		fields := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status_code", wrapper.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_bytes", r.ContentLength,
			"response_bytes", wrapper.bytes,
			"client_ip", clientIP(r),
			"user_agent", r.Header.Get(utils.HeaderUserAgent),
		}
		stageCtx := logger.WithStage(logCtx, logger.LogStages.RequestCompleted)
		switch {
		case wrapper.statusCode >= 500:
			logger.ErrorCtx(logger.WithStage(logCtx, logger.LogStages.RequestFailed), "Request failed", fields...)
		case wrapper.statusCode >= 400:
			logger.WarnCtx(stageCtx, "Request completed with client error", fields...)
		default:
			logger.InfoCtx(stageCtx, "Request completed", fields...)
		}
	})
}

// extractTrackingIDs applies the priority cascade: client header, CloudFlare
// ray, then a generated id. The correlation id falls back to the request id.
func extractTrackingIDs(r *http.Request) (requestID, correlationID string, sources TrackingIDSources) {
	switch {
	case r.Header.Get(utils.HeaderRequestID) != "":
		requestID = r.Header.Get(utils.HeaderRequestID)
		sources.RequestIDSource = "client-x-request-id"
	case r.Header.Get(utils.HeaderCloudFlareRay) != "":
		requestID = r.Header.Get(utils.HeaderCloudFlareRay)
		sources.RequestIDSource = "cloudflare-ray"
	default:
		requestID = utils.GenerateRequestID()
		sources.RequestIDSource = "generated"
	}

	switch {
	case r.Header.Get(utils.HeaderCorrelationID) != "":
		correlationID = r.Header.Get(utils.HeaderCorrelationID)
		sources.CorrelationIDSource = "client-x-correlation-id"
	case r.Header.Get(utils.HeaderCloudFlareRay) != "":
		correlationID = r.Header.Get(utils.HeaderCloudFlareRay)
		sources.CorrelationIDSource = "cloudflare-ray"
	default:
		correlationID = requestID
		sources.CorrelationIDSource = "request-id-fallback"
	}
	return requestID, correlationID, sources
}

// clientIP picks the first proxy-supplied address, then the peer address.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get(utils.HeaderCFConnectingIP); ip != "" {
		return ip
	}
	if xff := r.Header.Get(utils.HeaderXForwardedFor); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if ip := r.Header.Get(utils.HeaderXRealIP); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// statusRecorder captures the status code and size without buffering the body.
type statusRecorder struct {
	http.ResponseWriter
	statusCode  int
	bytes       int64
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.wroteHeader {
		s.statusCode = code
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(p []byte) (int, error) {
	s.wroteHeader = true
	n, err := s.ResponseWriter.Write(p)
	s.bytes += int64(n)
	return n, err
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}
