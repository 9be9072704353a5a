package signalbus

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/randalmurphal/signalbus/pkg/signalbus/counter"
	"github.com/randalmurphal/signalbus/pkg/signalbus/critical"
	"github.com/randalmurphal/signalbus/pkg/signalbus/observability"
)

// Bus tracks connections between signal sources and receivers and
// periodically delivers coalesced occurrence counts.
//
// Senders and receivers are referenced weakly. Once either is garbage
// collected its connections are pruned.
//
// A Bus is safe for concurrent use.
type Bus struct {
	id           string
	pollInterval time.Duration
	logger       *slog.Logger
	metrics      observability.MetricsRecorder
	spans        observability.SpanManager
	clock        clock.Clock

	// activity counts signals sent through sources bound to this bus.
	activity *counter.Counter

	// section serializes structural changes to the table.
	section *critical.Section
	table   atomic.Pointer[table]
	mark    atomic.Pointer[commitMark]

	// tracked holds the keys of participants with a registered cleanup.
	// Guarded by section.
	tracked map[any]struct{}

	// processMu serializes commit scans.
	processMu sync.Mutex

	loopMu sync.Mutex
	loop   *loopRun

	cycles      atomic.Uint64
	deliveries  atomic.Uint64
	occurrences atomic.Uint64
	panics      atomic.Uint64
}

var _ observability.StatsSource = (*Bus)(nil)

type loopRun struct {
	stop chan struct{}
}

// NewBus creates an idle bus.
func NewBus(opts ...Option) *Bus {
	cfg := defaultBusConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.id == "" {
		cfg.id = uuid.NewString()
	}

	b := &Bus{
		id:           cfg.id,
		pollInterval: cfg.pollInterval,
		logger:       observability.EnrichLogger(cfg.logger, cfg.id),
		metrics:      cfg.metrics,
		spans:        cfg.spans,
		clock:        cfg.clock,
		activity:     counter.New(0),
		section:      critical.New(cfg.lockTimeout),
		tracked:      make(map[any]struct{}),
	}
	b.table.Store(&table{})
	return b
}

// ID returns the bus ID.
func (b *Bus) ID() string { return b.id }

// PollInterval returns the pause between processing cycles of Start.
func (b *Bus) PollInterval() time.Duration { return b.pollInterval }

// NotifyActivity tells the bus that a signal was sent. Source calls it on
// every SendSignal; custom SignalSource implementations must call it too,
// or the bus may skip their occurrences until another source is active.
func (b *Bus) NotifyActivity() {
	b.activity.Increase(1)
}

// Start runs processing cycles on the calling goroutine until Stop is
// called or ctx is done. Each cycle calls ProcessSignals and then waits
// one poll interval on the bus clock. Cycle errors are logged and do not
// end the loop.
//
// Start returns nil after Stop, ctx.Err() when ctx ends the loop, and
// ErrAlreadyRunning if the bus is already running.
func (b *Bus) Start(ctx context.Context) error {
	b.loopMu.Lock()
	if b.loop != nil {
		b.loopMu.Unlock()
		return ErrAlreadyRunning
	}
	run := &loopRun{stop: make(chan struct{})}
	b.loop = run
	b.loopMu.Unlock()

	defer func() {
		b.loopMu.Lock()
		if b.loop == run {
			b.loop = nil
		}
		b.loopMu.Unlock()
	}()

	observability.LogLoopStart(b.logger, b.pollInterval)
	var cycles uint64
	for {
		select {
		case <-run.stop:
			observability.LogLoopStop(b.logger, cycles)
			return nil
		default:
		}

		if err := b.ProcessSignals(ctx); err != nil && ctx.Err() == nil {
			observability.LogLoopError(b.logger, err)
		}
		cycles++

		select {
		case <-ctx.Done():
			observability.LogLoopStop(b.logger, cycles)
			return ctx.Err()
		case <-run.stop:
			observability.LogLoopStop(b.logger, cycles)
			return nil
		case <-b.clock.After(b.pollInterval):
		}
	}
}

// Stop ends the polling loop. The running cycle, if any, completes first.
// Stop on an idle bus does nothing.
func (b *Bus) Stop() {
	b.loopMu.Lock()
	defer b.loopMu.Unlock()
	if b.loop != nil {
		close(b.loop.stop)
		b.loop = nil
	}
}

// Running reports whether Start is looping.
func (b *Bus) Running() bool {
	b.loopMu.Lock()
	defer b.loopMu.Unlock()
	return b.loop != nil
}

// Stats returns a point-in-time view of the bus. Connections whose
// participants have been collected are not counted.
func (b *Bus) Stats() observability.Stats {
	s := observability.Stats{
		Activity:    b.activity.Value(),
		Cycles:      b.cycles.Load(),
		Deliveries:  b.deliveries.Load(),
		Occurrences: b.occurrences.Load(),
		Panics:      b.panics.Load(),
	}
	for _, se := range b.table.Load().senders {
		if se.resolve() == nil {
			continue
		}
		live := false
		for _, sig := range se.signals {
			n := 0
			for _, re := range sig.receivers {
				if re.resolve() != nil {
					n++
				}
			}
			if n > 0 {
				s.Signals++
				s.Connections += n
				live = true
			}
		}
		if live {
			s.Senders++
		}
	}
	return s
}
