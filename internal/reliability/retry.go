package reliability

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"strings"
	"time"

	"github.com/wheelscan/go-wheel-trainer/internal/logger"
)

// RetryConfig defines configuration for retry behavior
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	// IsRetryable overrides the default classification when set.
	IsRetryable func(error) bool
}

// DefaultRetryConfig returns the configuration used for generic operations
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
	}
}

// VendorRetryConfig is tuned for the Custom Vision and S3 APIs, which both
// throttle with 429/503 and recover within a few seconds.
func VendorRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      4 * time.Second,
		BackoffFactor: 2.0,
	}
}

// Retryable lets an error decide whether it is worth another attempt.
type Retryable interface {
	Retryable() bool
}

type permanentError struct{ err error }

func (p *permanentError) Error() string   { return p.err.Error() }
func (p *permanentError) Unwrap() error   { return p.err }
func (p *permanentError) Retryable() bool { return false }

// Permanent marks err so that no further attempts are made.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// RetryExecutor handles retry logic with exponential backoff
type RetryExecutor struct {
	config RetryConfig
}

// NewRetryExecutor creates a new retry executor with the given configuration
func NewRetryExecutor(config RetryConfig) *RetryExecutor {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if config.BackoffFactor < 1 {
		config.BackoffFactor = 1
	}
	return &RetryExecutor{config: config}
}

// ExecuteWithRetry runs operation until it succeeds, returns a non-retryable
// error, runs out of attempts, or ctx is done.
func (r *RetryExecutor) ExecuteWithRetry(ctx context.Context, operation func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		err := operation(ctx)
		if err == nil {
			if attempt > 1 {
				logger.InfoCtx(ctx, "Operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		lastErr = err

		if ctx.Err() != nil || !r.isRetryable(err) {
			return err
		}
		if attempt == r.config.MaxAttempts {
			break
		}

		delay := r.calculateBackoff(attempt)
		logger.WarnCtx(logger.WithStage(ctx, logger.LogStages.Retry), "Operation failed, retrying",
			"attempt", attempt,
			"max_attempts", r.config.MaxAttempts,
			"delay_ms", delay.Milliseconds(),
			"error", err)

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", r.config.MaxAttempts, lastErr)
}

// calculateBackoff returns InitialDelay * BackoffFactor^(attempt-1), capped at MaxDelay
func (r *RetryExecutor) calculateBackoff(attempt int) time.Duration {
	delay := float64(r.config.InitialDelay) * math.Pow(r.config.BackoffFactor, float64(attempt-1))
	if r.config.MaxDelay > 0 && delay > float64(r.config.MaxDelay) {
		return r.config.MaxDelay
	}
	return time.Duration(delay)
}

func (r *RetryExecutor) isRetryable(err error) bool {
	if r.config.IsRetryable != nil {
		return r.config.IsRetryable(err)
	}
	return IsRetryableError(err)
}

// IsRetryableError is the default classification: errors that say so, network
// timeouts and the usual transient transport failures.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var retryable Retryable
	if errors.As(err, &retryable) {
		return retryable.Retryable()
	}
	// A spent deadline also reports Timeout() through net.Error.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"i/o timeout",
		"no such host",
		"temporary failure",
		"unexpected eof",
	} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
