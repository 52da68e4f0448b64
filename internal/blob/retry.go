package blob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bcgov/pay-reconciler/internal/logging"
)

// ErrMaxRetries indicates that all attempts failed.
var ErrMaxRetries = errors.New("max retries exceeded")

// RetryOptions configures RetryStore backoff.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

func (o RetryOptions) withDefaults() RetryOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = 100 * time.Millisecond
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 10 * time.Second
	}
	if o.Multiplier <= 0 {
		o.Multiplier = 2.0
	}
	return o
}

// RetryStore retries failed reads of another Store with exponential
// backoff. Missing objects are not retried.
type RetryStore struct {
	next   Store
	opts   RetryOptions
	logger logging.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewRetryStore wraps next.
func NewRetryStore(next Store, opts RetryOptions, logger logging.Logger) *RetryStore {
	return &RetryStore{next: next, opts: opts.withDefaults(), logger: logger, sleep: sleepContext}
}

// GetObject reads through the wrapped store, retrying transient failures.
func (s *RetryStore) GetObject(ctx context.Context, bucket, path string) ([]byte, error) {
	delay := s.opts.InitialDelay

	for attempt := 1; ; attempt++ {
		data, err := s.next.GetObject(ctx, bucket, path)
		if err == nil {
			return data, nil
		}
		if !retryable(err) {
			return nil, err
		}
		if attempt == s.opts.MaxAttempts {
			return nil, fmt.Errorf("%w after %d attempts: %w", ErrMaxRetries, attempt, err)
		}

		s.logger.Warn("Object fetch failed, retrying",
			logging.F("attempt", attempt),
			logging.F("max_attempts", s.opts.MaxAttempts),
			logging.F("delay", delay.String()),
			logging.F(logging.FieldFileName, path),
			logging.F(logging.FieldError, err.Error()))

		if err := s.sleep(ctx, delay); err != nil {
			return nil, err
		}
		delay = time.Duration(float64(delay) * s.opts.Multiplier)
		if delay > s.opts.MaxDelay {
			delay = s.opts.MaxDelay
		}
	}
}

func retryable(err error) bool {
	return !errors.Is(err, ErrObjectNotFound) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
