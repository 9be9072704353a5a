package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records signal bus metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordCycle records one ProcessSignals call.
	RecordCycle(ctx context.Context, duration time.Duration, deliveries int, err error)

	// RecordDelivery records a coalesced delivery of count occurrences.
	RecordDelivery(ctx context.Context, signal string, count uint64)

	// RecordReceiverPanic records a receiver that panicked.
	RecordReceiverPanic(ctx context.Context, signal string)

	// RecordConnection records a connect or disconnect attempt.
	RecordConnection(ctx context.Context, op string, err error)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	cycles         metric.Int64Counter
	cycleLatency   metric.Float64Histogram
	deliveries     metric.Int64Counter
	occurrences    metric.Int64Counter
	receiverPanics metric.Int64Counter
	connectionOps  metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("signalbus")

	cycles, err := meter.Int64Counter("signalbus.cycles",
		metric.WithDescription("Number of signal processing cycles"),
	)
	if err != nil {
		return nil, err
	}

	cycleLatency, err := meter.Float64Histogram("signalbus.cycle.latency_ms",
		metric.WithDescription("Signal processing cycle latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	deliveries, err := meter.Int64Counter("signalbus.deliveries",
		metric.WithDescription("Number of coalesced deliveries to receivers"),
	)
	if err != nil {
		return nil, err
	}

	occurrences, err := meter.Int64Counter("signalbus.occurrences",
		metric.WithDescription("Number of signal occurrences delivered"),
	)
	if err != nil {
		return nil, err
	}

	receiverPanics, err := meter.Int64Counter("signalbus.receiver.panics",
		metric.WithDescription("Number of receivers that panicked during delivery"),
	)
	if err != nil {
		return nil, err
	}

	connectionOps, err := meter.Int64Counter("signalbus.connection.ops",
		metric.WithDescription("Number of connect and disconnect attempts"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		cycles:         cycles,
		cycleLatency:   cycleLatency,
		deliveries:     deliveries,
		occurrences:    occurrences,
		receiverPanics: receiverPanics,
		connectionOps:  connectionOps,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordCycle records a processing cycle.
func (m *otelMetrics) RecordCycle(ctx context.Context, duration time.Duration, deliveries int, err error) {
	attrs := metric.WithAttributes(attribute.Bool("success", err == nil))
	m.cycles.Add(ctx, 1, attrs)
	m.cycleLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}

// RecordDelivery records a delivery.
func (m *otelMetrics) RecordDelivery(ctx context.Context, signal string, count uint64) {
	attrs := metric.WithAttributes(attribute.String("signal", signal))
	m.deliveries.Add(ctx, 1, attrs)
	m.occurrences.Add(ctx, int64(count), attrs)
}

// RecordReceiverPanic records a receiver panic.
func (m *otelMetrics) RecordReceiverPanic(ctx context.Context, signal string) {
	m.receiverPanics.Add(ctx, 1, metric.WithAttributes(attribute.String("signal", signal)))
}

// RecordConnection records a connection change.
func (m *otelMetrics) RecordConnection(ctx context.Context, op string, err error) {
	m.connectionOps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.Bool("success", err == nil),
	))
}
