package signalbus

import (
	"github.com/google/uuid"

	"github.com/randalmurphal/signalbus/pkg/signalbus/checkpoint"
	"github.com/randalmurphal/signalbus/pkg/signalbus/counter"
)

// Source is the standard SignalSource. It owns a Storage and notifies its
// bus whenever a signal is sent.
type Source struct {
	id      string
	storage *Storage
	bus     *Bus
}

var _ SignalSource = (*Source)(nil)

// NewSource creates a source bound to bus that can emit the given names.
func NewSource(bus *Bus, names ...string) (*Source, error) {
	if bus == nil {
		return nil, ErrNilBus
	}
	storage, err := NewStorage(names...)
	if err != nil {
		return nil, err
	}
	return &Source{id: uuid.NewString(), storage: storage, bus: bus}, nil
}

// RestoreSource recreates a source from a checkpoint. Its counters start
// at the recorded values, so receivers connected afterwards only see new
// occurrences.
func RestoreSource(bus *Bus, snap checkpoint.Snapshot) (*Source, error) {
	if bus == nil {
		return nil, ErrNilBus
	}
	storage, err := RestoreStorage(snap.Signals)
	if err != nil {
		return nil, err
	}
	id := snap.SourceID
	if id == "" {
		id = uuid.NewString()
	}
	return &Source{id: id, storage: storage, bus: bus}, nil
}

// ID returns the source ID.
func (s *Source) ID() string { return s.id }

// Bus returns the bus the source notifies.
func (s *Source) Bus() *Bus { return s.bus }

// SendSignal records one occurrence of name and bumps the bus activity
// counter. It never blocks.
func (s *Source) SendSignal(name string) error {
	if err := s.storage.Emit(name); err != nil {
		return err
	}
	s.bus.NotifyActivity()
	return nil
}

// Signals returns the signal names the source can emit.
func (s *Source) Signals() []string {
	return s.storage.Names()
}

// SignalsCounters returns a snapshot of the named counters.
func (s *Source) SignalsCounters(names ...string) map[string]uint64 {
	return s.storage.Counters(names...)
}

// LinkedCounters returns counters linked to the named signals.
func (s *Source) LinkedCounters(names ...string) (map[string]*counter.Linked, error) {
	return s.storage.LinkedCounters(names...)
}

// SourceCounter returns the total number of occurrences emitted.
func (s *Source) SourceCounter() uint64 {
	return s.storage.Total()
}

// Snapshot captures the source's counters for a checkpoint store.
// Timestamp is taken from the bus clock.
func (s *Source) Snapshot() checkpoint.Snapshot {
	names := s.storage.Names()
	counts := s.storage.Counters(names...)
	var total uint64
	for _, v := range counts {
		total += v
	}
	return checkpoint.Snapshot{
		SourceID:  s.id,
		Signals:   counts,
		Total:     total,
		Timestamp: s.bus.clock.Now(),
	}
}
