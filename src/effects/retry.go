// Package effects implements the effect orchestrator: a state machine over
// (input, invalidate, trigger, debounce, equality) producing combined,
// result, and error streams for one registered effect function.
package effects

import (
	"errors"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy defines retry behavior with exponential backoff and full
// jitter. Adapted near-verbatim from src/driver/retry.go; the driver
// retries Bolt round-trips, this retries effect invocations whose error
// reports itself Retriable.
type RetryPolicy struct {
	MaxAttempts  int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64 // 0.0 = no jitter, 1.0 = full jitter

	OnRetry   func(ctx RetryContext)
	OnFailure func(err error, attempts int)
}

// RetryContext provides context to the OnRetry callback.
type RetryContext struct {
	Attempt         int
	Error           error
	NextDelay       time.Duration
	CumulativeDelay time.Duration
}

// RetryError wraps the original error once retries are exhausted.
type RetryError struct {
	OriginalError   error
	Attempts        int
	CumulativeDelay time.Duration
}

func (e *RetryError) Error() string {
	return "effect retries exhausted after " + e.CumulativeDelay.String() + ": " + e.OriginalError.Error()
}

func (e *RetryError) Unwrap() error { return e.OriginalError }

// DefaultRetryPolicy returns a sensible default: five attempts, full jitter.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:  5,
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 1.0,
	}
}

// NoRetryPolicy makes a single attempt, preserving spec.md §4.6/§8
// semantics when no retry policy is configured.
func NoRetryPolicy() *RetryPolicy {
	return &RetryPolicy{MaxAttempts: 1}
}

// CalculateDelay computes the exponential-backoff-with-full-jitter delay
// for attempt.
func (p *RetryPolicy) CalculateDelay(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}
	exponent := float64(attempt - 1)
	baseExp := float64(p.BaseDelay) * math.Pow(p.Multiplier, exponent)
	capped := math.Min(baseExp, float64(p.MaxDelay))
	jitter := math.Max(0, math.Min(1, p.JitterFactor))
	jitterBlend := 1.0 - jitter + rand.Float64()*jitter
	return time.Duration(capped * jitterBlend)
}

// Retriable is implemented by effect errors that know whether a retry is
// worth attempting.
type Retriable interface {
	Retriable() bool
}

// isRetriable reports whether err should trigger another attempt.
func isRetriable(err error) bool {
	if err == nil {
		return false
	}
	var r Retriable
	if errors.As(err, &r) {
		return r.Retriable()
	}
	return false
}

// wrapRetryFailure turns the final error of an exhausted retry loop into a
// RetryError once more than one attempt was made, matching retryEffect's
// former contract (kept so the wrapping rule lives in one place).
func wrapRetryFailure(policy *RetryPolicy, lastErr error, attempts int, cumulative time.Duration) error {
	if policy.OnFailure != nil {
		policy.OnFailure(lastErr, attempts)
	}
	if attempts <= 1 {
		return lastErr
	}
	return &RetryError{OriginalError: lastErr, Attempts: attempts, CumulativeDelay: cumulative}
}
