package judge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/ppiankov/realitycheck/internal/llm"
	"github.com/ppiankov/realitycheck/internal/model"
	"go.uber.org/zap"
)

// RetryConfig configures retry behaviour for semantic judge calls
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts.
	// Default: 3
	MaxRetries int

	// InitialBackoff is the initial backoff duration.
	// Default: 1 second
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration.
	// Default: 30 seconds
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	// Default: 2
	BackoffMultiplier float64

	// CallTimeout bounds a single judge call.
	// Default: 90 seconds
	CallTimeout time.Duration
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
		CallTimeout:       90 * time.Second,
	}
}

// RetryConfigFromModel converts the judge configuration section
func RetryConfigFromModel(cfg model.JudgeConfig) RetryConfig {
	rc := RetryConfig{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
		CallTimeout:    cfg.CallTimeout,
	}
	rc.ApplyDefaults()
	return rc
}

// ApplyDefaults sets default values for unset fields. A negative
// MaxRetries disables retries.
func (c *RetryConfig) ApplyDefaults() {
	defaults := DefaultRetryConfig()

	if c.MaxRetries == 0 {
		c.MaxRetries = defaults.MaxRetries
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.InitialBackoff == 0 {
		c.InitialBackoff = defaults.InitialBackoff
	}
	if c.MaxBackoff == 0 {
		c.MaxBackoff = defaults.MaxBackoff
	}
	if c.BackoffMultiplier == 0 {
		c.BackoffMultiplier = defaults.BackoffMultiplier
	}
	if c.CallTimeout == 0 {
		c.CallTimeout = defaults.CallTimeout
	}
}

// sleepFunc waits for d or until ctx is done
type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// assessWithRetry calls the judge with a per-call timeout, retrying
// transient failures with exponential backoff
func assessWithRetry(ctx context.Context, j Judge, req Request, config RetryConfig, sleep sleepFunc, logger *zap.Logger) (*Assessment, error) {
	var lastErr error
	backoff := config.InitialBackoff
	startTime := time.Now()

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, config.CallTimeout)
		a, err := j.Assess(callCtx, req)
		cancel()

		if err == nil {
			if attempt > 0 {
				logger.Info("judge call recovered after retries",
					zap.Int("attempts", attempt),
					zap.Duration("total_time", time.Since(startTime)))
			}
			return a, nil
		}
		lastErr = err

		// The caller gave up; this is not a judge failure
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if !isRetryable(err) {
			logger.Debug("judge error is not retryable", zap.Error(err))
			return nil, err
		}

		if attempt == config.MaxRetries {
			break
		}

		logger.Info("retrying judge call after transient error",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", config.MaxRetries+1),
			zap.Error(err),
			zap.Duration("backoff", backoff))

		if err := sleep(ctx, backoff); err != nil {
			return nil, err
		}

		backoff = time.Duration(float64(backoff) * config.BackoffMultiplier)
		if backoff > config.MaxBackoff {
			backoff = config.MaxBackoff
		}
	}

	logger.Warn("judge call failed after all retries exhausted",
		zap.Int("total_attempts", config.MaxRetries+1),
		zap.Duration("total_time", time.Since(startTime)),
		zap.Error(lastErr))

	return nil, fmt.Errorf("judge call failed after %d retries: %w", config.MaxRetries, lastErr)
}

// isRetryable reports whether a judge error is transient
func isRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var apiErr *llm.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}
