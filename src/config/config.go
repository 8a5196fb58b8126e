// Package config holds the construction-time configuration for a signal
// store, in the shape of src/driver/config.go's Config/PoolConfig layering.
package config

import (
	"time"

	"github.com/gopherflux/signals/src/telemetry"
)

// QueueConfig parameterizes the store's delayed event queue. The teacher's
// PoolConfig sizes a connection pool; a single in-process store has no pool
// to size, so this instead carries the queue's warn threshold — how many
// pending jobs trigger a backlog warning on the configured logger.
type QueueConfig struct {
	BacklogWarnThreshold int
}

func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{BacklogWarnThreshold: 1024}
}

// RetryPolicy carries the store-wide default retry tuning for effect runs:
// plain sizing data only, no callbacks, so a package can depend on it without
// depending on src/effects (which depends on src/signals, which depends on
// this package — a RetryPolicy with callback fields that named effects
// types would create an import cycle). src/effects converts this into its
// own effects.RetryPolicy when an orchestrator is built without a
// per-instance policy of its own.
type RetryPolicy struct {
	MaxAttempts  int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64
}

// DefaultRetryPolicy returns the same five-attempt, full-jitter tuning
// src/effects.DefaultRetryPolicy() uses, for callers that want a store-wide
// default without naming the effects package.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:  5,
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 1.0,
	}
}

// Config bundles every subsystem's construction-time configuration,
// mirroring src/driver/config.go's top-level Config struct.
type Config struct {
	Queue         *QueueConfig
	Observability *telemetry.ObservabilityConfig
	Logging       *telemetry.LoggingConfig

	// Retry is the store-wide default retry policy effect orchestrators fall
	// back to when built without a RetryPolicy of their own. Nil means no
	// retries by default, matching effects.NoRetryPolicy().
	Retry *RetryPolicy
}

// DefaultConfig returns a Config with queueing enabled, observability
// disabled, logging off, and no store-wide retry default — matching the
// driver's silent-by-default posture.
func DefaultConfig() *Config {
	return &Config{
		Queue:         DefaultQueueConfig(),
		Observability: telemetry.DefaultObservabilityConfig(),
		Logging:       telemetry.DefaultLoggingConfig(),
	}
}
