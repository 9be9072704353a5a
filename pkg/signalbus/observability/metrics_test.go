package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupMetricsTest installs a test meter provider and returns its reader.
func setupMetricsTest(t *testing.T) (*sdkmetric.ManualReader, func()) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	originalProvider := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)

	cleanup := func() {
		otel.SetMeterProvider(originalProvider)
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down meter provider: %v", err)
		}
	}

	return reader, cleanup
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return &rm
}

func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// sumFor returns the int64 sum of the data points carrying key=value.
func sumFor(t *testing.T, m *metricdata.Metrics, key, value string) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected Sum type for %s", m.Name)

	var total int64
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.Emit() == value {
			total += dp.Value
		}
	}
	return total
}

func TestNewMetricsRecorder(t *testing.T) {
	_, cleanup := setupMetricsTest(t)
	defer cleanup()

	recorder := NewMetricsRecorder()
	require.NotNil(t, recorder)

	_, isNoop := recorder.(NoopMetrics)
	assert.False(t, isNoop, "Expected real metrics recorder, got noop")
}

func TestRecordCycle(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordCycle(ctx, 2*time.Millisecond, 3, nil)
	m.RecordCycle(ctx, time.Millisecond, 0, errors.New("receiver panicked"))

	rm := collectMetrics(t, reader)

	cycles := findMetric(rm, "signalbus.cycles")
	require.NotNil(t, cycles)
	assert.Equal(t, int64(1), sumFor(t, cycles, "success", "true"))
	assert.Equal(t, int64(1), sumFor(t, cycles, "success", "false"))

	latency := findMetric(rm, "signalbus.cycle.latency_ms")
	require.NotNil(t, latency)
	hist, ok := latency.Data.(metricdata.Histogram[float64])
	require.True(t, ok, "Expected Histogram type")
	assert.NotEmpty(t, hist.DataPoints)
}

func TestRecordDelivery(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordDelivery(ctx, "ready", 3)
	m.RecordDelivery(ctx, "ready", 2)
	m.RecordDelivery(ctx, "done", 1)

	rm := collectMetrics(t, reader)

	deliveries := findMetric(rm, "signalbus.deliveries")
	require.NotNil(t, deliveries)
	assert.Equal(t, int64(2), sumFor(t, deliveries, "signal", "ready"))
	assert.Equal(t, int64(1), sumFor(t, deliveries, "signal", "done"))

	occurrences := findMetric(rm, "signalbus.occurrences")
	require.NotNil(t, occurrences)
	assert.Equal(t, int64(5), sumFor(t, occurrences, "signal", "ready"))
}

func TestRecordReceiverPanicAndConnection(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordReceiverPanic(ctx, "ready")
	m.RecordConnection(ctx, "connect", nil)
	m.RecordConnection(ctx, "connect", errors.New("already connected"))
	m.RecordConnection(ctx, "disconnect", nil)

	rm := collectMetrics(t, reader)

	panics := findMetric(rm, "signalbus.receiver.panics")
	require.NotNil(t, panics)
	assert.Equal(t, int64(1), sumFor(t, panics, "signal", "ready"))

	ops := findMetric(rm, "signalbus.connection.ops")
	require.NotNil(t, ops)
	assert.Equal(t, int64(2), sumFor(t, ops, "operation", "connect"))
	assert.Equal(t, int64(1), sumFor(t, ops, "operation", "disconnect"))
}
