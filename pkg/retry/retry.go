// Package retry provides retry logic with configurable backoff strategies.
package retry

import (
	"context"
	"fmt"

	"github.com/treeleaves30760/tw-dataset-generation/pkg/errors"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/logger"
)

// Config holds retry configuration
type Config struct {
	// MaxAttempts is the maximum number of attempts (0 = single attempt)
	MaxAttempts int
	// Backoff is the backoff strategy to use between attempts
	Backoff BackoffStrategy
	// RetryIf determines whether an error should trigger a retry
	RetryIf func(error) bool
	// OnRetry is called before each retry attempt
	OnRetry func(attempt int, err error)
	// Context for cancellation
	Context context.Context
	// Logger for retry events
	Logger logger.Logger
}

// DefaultConfig returns a retry config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		Backoff:     DefaultExponentialBackoff(),
		RetryIf:     errors.IsRetryable,
		Context:     context.Background(),
	}
}

// Do executes the operation with retry logic
func Do(operation func() error, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := cfg.Context.Err(); err != nil {
			return err
		}

		lastErr = operation()
		if lastErr == nil {
			return nil
		}

		if cfg.RetryIf != nil && !cfg.RetryIf(lastErr) {
			return lastErr
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, lastErr)
		}

		delay := cfg.Backoff.NextDelay(attempt)
		if cfg.Logger != nil {
			cfg.Logger.DebugWithFields("retrying after error", map[string]interface{}{
				"attempt": attempt,
				"delay":   delay.String(),
				"error":   lastErr.Error(),
			})
		}

		if err := Wait(cfg.Context, delay); err != nil {
			return err
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", cfg.MaxAttempts, lastErr)
}
