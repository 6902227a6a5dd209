package reliability

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wheelscan/go-wheel-trainer/internal/logger"
)

// ErrCircuitOpen is returned while a breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitState represents the state of a circuit breaker
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

// String returns the string representation of the circuit state
func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// CircuitBreakerConfig defines configuration for circuit breaker behavior
type CircuitBreakerConfig struct {
	Name string
	// MaxFailures is the number of consecutive failures that opens the circuit.
	MaxFailures  int
	ResetTimeout time.Duration
	// IsFailure decides which errors count against the circuit. Nil counts all.
	IsFailure func(error) bool
}

// DefaultCircuitBreakerConfig returns a sensible default configuration
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:         name,
		MaxFailures:  5,
		ResetTimeout: 30 * time.Second,
	}
}

// CircuitBreakerStats is a point-in-time view of a breaker.
type CircuitBreakerStats struct {
	Name                string    `json:"name"`
	State               string    `json:"state"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	TotalFailures       int64     `json:"total_failures"`
	TotalSuccesses      int64     `json:"total_successes"`
	LastFailure         time.Time `json:"last_failure,omitempty"`
	OpenUntil           time.Time `json:"open_until,omitempty"`
}

// CircuitBreaker implements the circuit breaker pattern
type CircuitBreaker struct {
	config CircuitBreakerConfig
	now    func() time.Time

	mu                  sync.Mutex
	state               CircuitState
	consecutiveFailures int
	totalFailures       int64
	totalSuccesses      int64
	lastFailure         time.Time
	openUntil           time.Time
	probing             bool
}

// NewCircuitBreaker creates a new circuit breaker with the given configuration
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.MaxFailures < 1 {
		config.MaxFailures = 1
	}
	return &CircuitBreaker{config: config, now: time.Now}
}

// Execute runs operation unless the circuit is open. While half-open only one
// probe call is let through at a time.
func (cb *CircuitBreaker) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	if err := cb.beforeCall(ctx); err != nil {
		return err
	}
	err := operation(ctx)
	cb.afterCall(ctx, err)
	return err
}

func (cb *CircuitBreaker) beforeCall(ctx context.Context) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Before(cb.openUntil) {
			return fmt.Errorf("%s: %w", cb.config.Name, ErrCircuitOpen)
		}
		cb.state = StateHalfOpen
		cb.probing = true
		logger.InfoCtx(ctx, "Circuit breaker half-open", "circuit_name", cb.config.Name)
		return nil
	case StateHalfOpen:
		if cb.probing {
			return fmt.Errorf("%s: %w", cb.config.Name, ErrCircuitOpen)
		}
		cb.probing = true
		return nil
	default:
		return nil
	}
}

func (cb *CircuitBreaker) afterCall(ctx context.Context, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.probing = false
	if err == nil || (cb.config.IsFailure != nil && !cb.config.IsFailure(err)) {
		cb.totalSuccesses++
		if cb.state != StateClosed {
			logger.InfoCtx(ctx, "Circuit breaker closed", "circuit_name", cb.config.Name)
		}
		cb.state = StateClosed
		cb.consecutiveFailures = 0
		return
	}

	cb.totalFailures++
	cb.consecutiveFailures++
	cb.lastFailure = cb.now()

	if cb.state == StateHalfOpen || cb.consecutiveFailures >= cb.config.MaxFailures {
		cb.state = StateOpen
		cb.openUntil = cb.now().Add(cb.config.ResetTimeout)
		logger.ErrorCtx(ctx, "Circuit breaker opened",
			"circuit_name", cb.config.Name,
			"consecutive_failures", cb.consecutiveFailures,
			"open_until", cb.openUntil.Format(time.RFC3339),
			"error", err)
	}
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Stats returns a snapshot of the breaker counters.
func (cb *CircuitBreaker) Stats() CircuitBreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return CircuitBreakerStats{
		Name:                cb.config.Name,
		State:               cb.state.String(),
		ConsecutiveFailures: cb.consecutiveFailures,
		TotalFailures:       cb.totalFailures,
		TotalSuccesses:      cb.totalSuccesses,
		LastFailure:         cb.lastFailure,
		OpenUntil:           cb.openUntil,
	}
}

// Reset closes the circuit and clears its counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.consecutiveFailures = 0
	cb.probing = false
	cb.openUntil = time.Time{}
}

// CircuitBreakerManager manages multiple named circuit breakers
type CircuitBreakerManager struct {
	mu       sync.RWMutex
	breakers map[string]*CircuitBreaker
}

// NewCircuitBreakerManager creates a new circuit breaker manager
func NewCircuitBreakerManager() *CircuitBreakerManager {
	return &CircuitBreakerManager{breakers: make(map[string]*CircuitBreaker)}
}

// GetOrCreate gets an existing circuit breaker or creates one with config
func (m *CircuitBreakerManager) GetOrCreate(name string, config CircuitBreakerConfig) *CircuitBreaker {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cb, ok := m.breakers[name]; ok {
		return cb
	}
	config.Name = name
	cb := NewCircuitBreaker(config)
	m.breakers[name] = cb
	return cb
}

// Stats returns statistics for all breakers sorted by name.
func (m *CircuitBreakerManager) Stats() []CircuitBreakerStats {
	m.mu.RLock()
	breakers := make([]*CircuitBreaker, 0, len(m.breakers))
	for _, cb := range m.breakers {
		breakers = append(breakers, cb)
	}
	m.mu.RUnlock()

	stats := make([]CircuitBreakerStats, 0, len(breakers))
	for _, cb := range breakers {
		stats = append(stats, cb.Stats())
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats
}

var globalCBManager = NewCircuitBreakerManager()

// GetCircuitBreakerWithConfig gets or creates a breaker in the global manager
func GetCircuitBreakerWithConfig(name string, config CircuitBreakerConfig) *CircuitBreaker {
	return globalCBManager.GetOrCreate(name, config)
}

// GetCircuitBreaker gets or creates a breaker with the default configuration
func GetCircuitBreaker(name string) *CircuitBreaker {
	return globalCBManager.GetOrCreate(name, DefaultCircuitBreakerConfig(name))
}

// GetAllCircuitBreakerStats returns statistics for every global breaker
func GetAllCircuitBreakerStats() []CircuitBreakerStats {
	return globalCBManager.Stats()
}
