package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ObservabilityConfig toggles tracing and metrics emission. Grounded on
// src/driver/observability.go's ObservabilityConfig; this module depends
// only on the otel API packages, the same way the driver does — the host
// application supplies the SDK and exporter.
type ObservabilityConfig struct {
	EnableTracing     bool
	EnableMetrics     bool
	ServiceName       string
	ExtraAttributes   []attribute.KeyValue
}

func DefaultObservabilityConfig() *ObservabilityConfig {
	return &ObservabilityConfig{EnableTracing: false, EnableMetrics: false, ServiceName: "gopherflux-signals"}
}

// Instruments bundles every metric instrument a store emits into. Grounded
// on src/driver/observability.go's observabilityInstruments.
type Instruments struct {
	cfg *ObservabilityConfig

	tracer trace.Tracer
	meter  metric.Meter

	dispatchDuration  metric.Float64Histogram
	dispatchCount     metric.Int64Counter
	dispatchErrors    metric.Int64Counter
	activeSubs        metric.Int64UpDownCounter
	effectRuns        metric.Int64Counter
	effectErrors      metric.Int64Counter
}

// NewInstruments wires tracer + meter from the global otel providers. If
// metrics are disabled the instrument fields remain nil and every recording
// helper below becomes a no-op.
func NewInstruments(cfg *ObservabilityConfig) *Instruments {
	if cfg == nil {
		cfg = DefaultObservabilityConfig()
	}
	inst := &Instruments{cfg: cfg}
	if cfg.EnableTracing {
		inst.tracer = otel.Tracer(cfg.ServiceName)
	}
	if cfg.EnableMetrics {
		inst.meter = otel.Meter(cfg.ServiceName)
		inst.dispatchDuration, _ = inst.meter.Float64Histogram("signals.dispatch.duration")
		inst.dispatchCount, _ = inst.meter.Int64Counter("signals.dispatch.count")
		inst.dispatchErrors, _ = inst.meter.Int64Counter("signals.dispatch.errors")
		inst.activeSubs, _ = inst.meter.Int64UpDownCounter("signals.subscriptions.active")
		inst.effectRuns, _ = inst.meter.Int64Counter("signals.effect.runs")
		inst.effectErrors, _ = inst.meter.Int64Counter("signals.effect.errors")
	}
	return inst
}

type dispatchSpan struct {
	span  trace.Span
	start time.Time
}

// StartDispatchSpan opens a span for one event dispatch, tagging the
// event's debug name. Mirrors startQuerySpan/finishQuerySpan in
// src/driver/observability.go.
func (i *Instruments) StartDispatchSpan(ctx context.Context, eventName string) (context.Context, *dispatchSpan) {
	if i.tracer == nil {
		return ctx, nil
	}
	ctx, span := i.tracer.Start(ctx, "signals.dispatch", trace.WithAttributes(attribute.String("event.name", eventName)))
	return ctx, &dispatchSpan{span: span, start: time.Now()}
}

// FinishDispatchSpan closes the span and records duration/count metrics.
func (i *Instruments) FinishDispatchSpan(ds *dispatchSpan, delivered bool, err error) {
	if i.dispatchCount != nil {
		i.dispatchCount.Add(context.Background(), 1)
	}
	if err != nil && i.dispatchErrors != nil {
		i.dispatchErrors.Add(context.Background(), 1)
	}
	if ds == nil {
		return
	}
	if i.dispatchDuration != nil {
		i.dispatchDuration.Record(context.Background(), time.Since(ds.start).Seconds())
	}
	if err != nil {
		ds.span.RecordError(err)
		ds.span.SetStatus(codes.Error, err.Error())
	} else {
		ds.span.SetAttributes(attribute.Bool("event.delivered", delivered))
	}
	ds.span.End()
}

// RecordSubscriptionChange adjusts the active-subscription gauge by delta
// (+1 on subscribe, -1 on unsubscribe).
func (i *Instruments) RecordSubscriptionChange(delta int64) {
	if i.activeSubs != nil {
		i.activeSubs.Add(context.Background(), delta)
	}
}

// RecordEffectRun records one effect invocation outcome.
func (i *Instruments) RecordEffectRun(err error) {
	if i.effectRuns != nil {
		i.effectRuns.Add(context.Background(), 1)
	}
	if err != nil && i.effectErrors != nil {
		i.effectErrors.Add(context.Background(), 1)
	}
}
