package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/wheelscan/go-wheel-trainer/internal/config"
	"github.com/wheelscan/go-wheel-trainer/internal/logger"
	"github.com/wheelscan/go-wheel-trainer/internal/reliability"
	"github.com/wheelscan/go-wheel-trainer/internal/utils"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// HealthCheck represents a single health check
type HealthCheck struct {
	Name        string
	Description string
	Check       func(ctx context.Context) HealthCheckResult
	Timeout     time.Duration
	// Critical failures make the whole service unhealthy.
	Critical bool
}

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status     HealthStatus   `json:"status"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	DurationMs int64          `json:"duration_ms"`
}

// Pinger is anything that can prove a dependency is reachable.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

// HealthChecker manages and executes health checks
type HealthChecker struct {
	checks    map[string]*HealthCheck
	mutex     sync.RWMutex
	startTime time.Time
}

// NewHealthChecker creates a new health checker
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		checks:    make(map[string]*HealthCheck),
		startTime: time.Now(),
	}
}

// RegisterCheck registers a new health check
func (hc *HealthChecker) RegisterCheck(check *HealthCheck) {
	hc.mutex.Lock()
	defer hc.mutex.Unlock()

	if check.Timeout == 0 {
		check.Timeout = 5 * time.Second
	}
	hc.checks[check.Name] = check

	logger.Debug("Health check registered",
		"name", check.Name,
		"critical", check.Critical,
		"timeout", check.Timeout.String())
}

// Names returns the registered check names in order.
func (hc *HealthChecker) Names() []string {
	hc.mutex.RLock()
	defer hc.mutex.RUnlock()
	names := make([]string, 0, len(hc.checks))
	for name := range hc.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExecuteCheck executes a single health check
func (hc *HealthChecker) ExecuteCheck(ctx context.Context, name string) (*HealthCheckResult, error) {
	hc.mutex.RLock()
	check, exists := hc.checks[name]
	hc.mutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("health check %s not found", name)
	}
	result := hc.executeCheck(ctx, check)
	return &result, nil
}

// ExecuteAllChecks executes all registered health checks concurrently
func (hc *HealthChecker) ExecuteAllChecks(ctx context.Context) map[string]HealthCheckResult {
	hc.mutex.RLock()
	checks := make([]*HealthCheck, 0, len(hc.checks))
	for _, check := range hc.checks {
		checks = append(checks, check)
	}
	hc.mutex.RUnlock()

	results := make(map[string]HealthCheckResult, len(checks))
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, check := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := hc.executeCheck(ctx, check)
			mu.Lock()
			results[check.Name] = result
			mu.Unlock()
		}()
	}
	wg.Wait()
	return results
}

func (hc *HealthChecker) executeCheck(ctx context.Context, check *HealthCheck) HealthCheckResult {
	checkCtx, cancel := context.WithTimeout(ctx, check.Timeout)
	defer cancel()

	start := time.Now()
	result := check.Check(checkCtx)
	result.Timestamp = start
	result.DurationMs = time.Since(start).Milliseconds()

	logger.DebugCtx(logger.WithStage(ctx, logger.LogStages.HealthCheck), "Health check executed",
		"name", check.Name,
		"status", result.Status,
		"duration_ms", result.DurationMs,
		"message", result.Message)
	return result
}

// GetOverallHealth determines the overall system health
func (hc *HealthChecker) GetOverallHealth(ctx context.Context) (HealthStatus, map[string]HealthCheckResult) {
	results := hc.ExecuteAllChecks(ctx)

	hc.mutex.RLock()
	defer hc.mutex.RUnlock()

	overall := StatusHealthy
	for name, result := range results {
		switch result.Status {
		case StatusUnhealthy:
			if hc.checks[name].Critical {
				overall = StatusUnhealthy
			} else if overall == StatusHealthy {
				overall = StatusDegraded
			}
		case StatusDegraded:
			if overall == StatusHealthy {
				overall = StatusDegraded
			}
		}
	}
	return overall, results
}

// Dependencies are the collaborators the standard checks probe. Nil fields
// skip their check.
type Dependencies struct {
	Config      *config.Config
	ObjectStore Pinger
	RunHistory  Pinger
}

// CreateStandardHealthChecks registers the checks for a running service
func CreateStandardHealthChecks(deps Dependencies) *HealthChecker {
	hc := NewHealthChecker()

	hc.RegisterCheck(&HealthCheck{
		Name:        "application",
		Description: "Basic application health",
		Critical:    true,
		Timeout:     time.Second,
		Check: func(ctx context.Context) HealthCheckResult {
			return HealthCheckResult{
				Status:  StatusHealthy,
				Message: "Application is running",
				Details: map[string]any{
					"service":        utils.ServiceName,
					"uptime_seconds": int64(time.Since(hc.startTime).Seconds()),
				},
			}
		},
	})

	if deps.Config != nil {
		cfg := deps.Config
		hc.RegisterCheck(&HealthCheck{
			Name:        "configuration",
			Description: "Training configuration",
			Critical:    true,
			Timeout:     time.Second,
			Check: func(ctx context.Context) HealthCheckResult {
				if err := config.Validate(cfg); err != nil {
					return HealthCheckResult{Status: StatusUnhealthy, Message: err.Error()}
				}
				details := map[string]any{
					"project_id":     cfg.CustomVision.ProjectID,
					"bucket":         cfg.Storage.Bucket,
					"min_images":     cfg.Training.MinImages,
					"history_active": cfg.Database.Enabled(),
				}
				if cfg.CustomVision.PredictionResourceID == "" {
					return HealthCheckResult{
						Status:  StatusDegraded,
						Message: "PREDICTION_RESOURCE_ID is not set; trained iterations cannot be published",
						Details: details,
					}
				}
				return HealthCheckResult{Status: StatusHealthy, Message: "Configuration is valid", Details: details}
			},
		})

		hc.RegisterCheck(&HealthCheck{
			Name:        "ffmpeg",
			Description: "Frame extraction binary",
			Critical:    true,
			Timeout:     time.Second,
			Check: func(ctx context.Context) HealthCheckResult {
				path, err := exec.LookPath(cfg.Frames.FFmpegPath)
				if err != nil {
					return HealthCheckResult{Status: StatusUnhealthy, Message: fmt.Sprintf("ffmpeg not found: %v", err)}
				}
				return HealthCheckResult{Status: StatusHealthy, Message: "ffmpeg is available", Details: map[string]any{"path": path}}
			},
		})
	}

	hc.RegisterCheck(&HealthCheck{
		Name:        "circuit_breakers",
		Description: "Vendor circuit breaker status",
		Timeout:     time.Second,
		Check: func(ctx context.Context) HealthCheckResult {
			stats := reliability.GetAllCircuitBreakerStats()
			open := 0
			for _, s := range stats {
				if s.State == reliability.StateOpen.String() {
					open++
				}
			}
			result := HealthCheckResult{
				Status:  StatusHealthy,
				Message: "All circuit breakers are closed",
				Details: map[string]any{"circuit_breakers": stats, "open_circuits": open},
			}
			if open > 0 {
				result.Status = StatusDegraded
				result.Message = fmt.Sprintf("%d circuit breaker(s) are open", open)
			}
			return result
		},
	})

	if deps.ObjectStore != nil {
		hc.RegisterCheck(pingCheck("object_store", "S3 bucket reachability", deps.ObjectStore, 5*time.Second))
	}
	if deps.RunHistory != nil {
		hc.RegisterCheck(pingCheck("run_history", "MongoDB run history", deps.RunHistory, 3*time.Second))
	}
	return hc
}

func pingCheck(name, description string, p Pinger, timeout time.Duration) *HealthCheck {
	return &HealthCheck{
		Name:        name,
		Description: description,
		Timeout:     timeout,
		Check: func(ctx context.Context) HealthCheckResult {
			if err := p.HealthCheck(ctx); err != nil {
				return HealthCheckResult{Status: StatusUnhealthy, Message: err.Error()}
			}
			return HealthCheckResult{Status: StatusHealthy, Message: description + " is reachable"}
		},
	}
}

// Response is the body of the health endpoint.
type Response struct {
	Status    HealthStatus                 `json:"status"`
	Timestamp string                       `json:"timestamp"`
	Checks    map[string]HealthCheckResult `json:"checks"`
}

// HealthHandler serves all checks, or only ?check=<name>.
func HealthHandler(hc *HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var response Response
		if name := r.URL.Query().Get("check"); name != "" {
			result, err := hc.ExecuteCheck(ctx, name)
			if err != nil {
				writeJSON(ctx, w, http.StatusNotFound, map[string]string{"message": err.Error()})
				return
			}
			response = Response{Status: result.Status, Checks: map[string]HealthCheckResult{name: *result}}
		} else {
			status, results := hc.GetOverallHealth(ctx)
			response = Response{Status: status, Checks: results}
		}
		response.Timestamp = time.Now().UTC().Format(time.RFC3339)

		writeJSON(ctx, w, statusCode(response.Status), response)
	}
}

func statusCode(status HealthStatus) int {
	switch status {
	case StatusUnhealthy:
		return http.StatusServiceUnavailable
	case StatusDegraded:
		return http.StatusPartialContent
	default:
		return http.StatusOK
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set(utils.HeaderContentType, utils.ContentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.ErrorCtx(ctx, "Failed to write health response", "error", err)
	}
}
