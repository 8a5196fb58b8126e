package config

import (
	"testing"

	"github.com/gopherflux/signals/src/telemetry"
)

func TestDefaultConfigIsSilentByDefault(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Queue == nil || cfg.Queue.BacklogWarnThreshold != 1024 {
		t.Errorf("expected default queue backlog threshold 1024, got %+v", cfg.Queue)
	}
	if cfg.Observability == nil || cfg.Observability.EnableTracing || cfg.Observability.EnableMetrics {
		t.Errorf("expected observability disabled by default, got %+v", cfg.Observability)
	}
	if cfg.Logging == nil || cfg.Logging.Level != telemetry.LevelOff {
		t.Errorf("expected logging off by default, got %+v", cfg.Logging)
	}
	if cfg.Retry != nil {
		t.Errorf("expected no store-wide retry default, got %+v", cfg.Retry)
	}
}

func TestDefaultRetryPolicyHasFullJitterAndFiveAttempts(t *testing.T) {
	p := DefaultRetryPolicy()
	if p.MaxAttempts != 5 {
		t.Errorf("expected 5 max attempts, got %d", p.MaxAttempts)
	}
	if p.JitterFactor != 1.0 {
		t.Errorf("expected full jitter, got %v", p.JitterFactor)
	}
}

func TestDefaultQueueConfig(t *testing.T) {
	qc := DefaultQueueConfig()
	if qc.BacklogWarnThreshold <= 0 {
		t.Error("expected a positive backlog warn threshold")
	}
}

func TestConfigFieldsAreIndependentlyOverridable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Queue.BacklogWarnThreshold = 16
	cfg.Logging = telemetry.NewConsoleLoggingConfig(telemetry.LevelDebug)

	if cfg.Queue.BacklogWarnThreshold != 16 {
		t.Error("expected queue override to stick")
	}
	if cfg.Logging.Level != telemetry.LevelDebug {
		t.Error("expected logging override to stick")
	}
}
