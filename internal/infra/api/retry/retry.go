// Package retry runs calls under a bounded exponential-backoff policy.
package retry

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/vietddude/storefront/internal/infra/api/apierr"
)

// Policy defines retry behavior.
type Policy struct {
	MaxRetries        int           `yaml:"max_retries"`
	BaseDelay         time.Duration `yaml:"base_delay"`
	MaxDelay          time.Duration `yaml:"max_delay"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
}

// DefaultPolicy provides sensible defaults.
var DefaultPolicy = Policy{
	MaxRetries:        3,
	BaseDelay:         1 * time.Second,
	MaxDelay:          10 * time.Second,
	BackoffMultiplier: 2.0,
}

// NoRetry makes exactly one attempt.
var NoRetry = Policy{}

// Attempts returns the total number of attempts the policy permits.
func (p Policy) Attempts() int {
	if p.MaxRetries < 0 {
		return 1
	}
	return p.MaxRetries + 1
}

// Delay returns the wait before the retry that follows attempt (0-based).
func (p Policy) Delay(attempt int) time.Duration {
	delay := float64(p.BaseDelay) * math.Pow(p.BackoffMultiplier, float64(attempt))
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	switch {
	case math.IsNaN(delay) || delay <= 0:
		return 0
	case delay >= math.MaxInt64:
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(delay)
}

// Validate rejects policies that cannot produce a bounded schedule.
func (p Policy) Validate() error {
	switch {
	case p.MaxRetries < 0:
		return errors.New("max_retries must not be negative")
	case p.BaseDelay < 0:
		return errors.New("base_delay must not be negative")
	case p.MaxDelay <= 0:
		return errors.New("max_delay must be positive")
	case p.BackoffMultiplier <= 0:
		return errors.New("backoff_multiplier must be positive")
	}
	return nil
}

// UnmarshalYAML fills fields missing from the YAML block from DefaultPolicy,
// so an explicit max_retries: 0 means a single attempt.
func (p *Policy) UnmarshalYAML(unmarshal func(any) error) error {
	type plain Policy
	v := plain(DefaultPolicy)
	if err := unmarshal(&v); err != nil {
		return err
	}
	*p = Policy(v)
	return nil
}

// Action determines how to handle an error.
type Action int

const (
	ActionRetry Action = iota
	ActionFatal
	ActionCanceled
)

// Classify determines the action for a given error.
func Classify(err error) Action {
	if apierr.IsCanceled(err) {
		return ActionCanceled
	}
	if e, ok := apierr.As(err); ok {
		if e.Retryable() {
			return ActionRetry
		}
		return ActionFatal
	}
	// Untyped errors are bare transport failures.
	return ActionRetry
}

// Option customizes a single Do call.
type Option func(*options)

type options struct {
	onRetry func(attempt int, delay time.Duration, err error)
}

// OnRetry registers a hook called before each backoff wait.
func OnRetry(fn func(attempt int, delay time.Duration, err error)) Option {
	return func(o *options) { o.onRetry = fn }
}

// Do executes fn until it succeeds, fails with a non-retriable error, or the
// policy runs out of attempts. Caller cancellation is returned immediately and
// never retried.
func Do[T any](ctx context.Context, policy Policy, fn func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	var zero T
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	attempts := policy.Attempts()
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, apierr.Canceled(err)
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		switch Classify(err) {
		case ActionCanceled:
			return zero, apierr.FromTransport(err)
		case ActionFatal:
			return zero, err
		}

		if attempt == attempts-1 {
			break
		}

		delay := policy.Delay(attempt)
		if o.onRetry != nil {
			o.onRetry(attempt, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, apierr.Canceled(ctx.Err())
		case <-timer.C:
		}
	}

	return zero, apierr.FromTransport(lastErr)
}
