package signalbus_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/randalmurphal/signalbus/pkg/signalbus"
)

// call is one ReceiveSignal invocation.
type call struct {
	source signalbus.SignalSource
	signal string
	count  uint64
}

// recorder is a Receiver that remembers every call.
type recorder struct {
	mu    sync.Mutex
	calls []call
}

func (r *recorder) ReceiveSignal(source signalbus.SignalSource, signal string, count uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{source: source, signal: signal, count: count})
}

func (r *recorder) snapshot() []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]call, len(r.calls))
	copy(out, r.calls)
	return out
}

func (r *recorder) total(signal string) uint64 {
	var n uint64
	for _, c := range r.snapshot() {
		if c.signal == signal {
			n += c.count
		}
	}
	return n
}

// tally is a Receiver that keeps no reference to the source, so sources
// connected to it can be garbage collected.
type tally struct {
	n atomic.Uint64
}

func (t *tally) ReceiveSignal(_ signalbus.SignalSource, _ string, count uint64) {
	t.n.Add(count)
}

// panicker is a Receiver that always panics.
type panicker struct {
	calls atomic.Int32
}

func (p *panicker) ReceiveSignal(_ signalbus.SignalSource, signal string, _ uint64) {
	p.calls.Add(1)
	panic("receiver failed on " + signal)
}

// fakeMetrics records what the bus reports.
type fakeMetrics struct {
	mu          sync.Mutex
	cycles      int
	deliveries  map[string]uint64
	panics      int
	connections map[string]int
	failedOps   int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{deliveries: map[string]uint64{}, connections: map[string]int{}}
}

func (m *fakeMetrics) RecordCycle(_ context.Context, _ time.Duration, _ int, _ error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cycles++
}

func (m *fakeMetrics) RecordDelivery(_ context.Context, signal string, count uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveries[signal] += count
}

func (m *fakeMetrics) RecordReceiverPanic(_ context.Context, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panics++
}

func (m *fakeMetrics) RecordConnection(_ context.Context, op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections[op]++
	if err != nil {
		m.failedOps++
	}
}

// fakeSpans records span activity.
type fakeSpans struct {
	mu      sync.Mutex
	started []string
	events  []string
	errs    []error
}

func (s *fakeSpans) StartCycleSpan(ctx context.Context, busID string) (context.Context, trace.Span) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = append(s.started, busID)
	return ctx, noop.Span{}
}

func (s *fakeSpans) EndSpanWithError(_ trace.Span, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

func (s *fakeSpans) AddSpanEvent(_ context.Context, name string, _ ...attribute.KeyValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, name)
}

func newSource(t *testing.T, bus *signalbus.Bus, names ...string) *signalbus.Source {
	t.Helper()
	src, err := signalbus.NewSource(bus, names...)
	require.NoError(t, err)
	return src
}

func emit(t *testing.T, src *signalbus.Source, name string, n int) {
	t.Helper()
	for range n {
		require.NoError(t, src.SendSignal(name))
	}
}
