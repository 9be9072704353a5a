package signalbus

import (
	"fmt"
	"slices"

	"github.com/randalmurphal/signalbus/pkg/signalbus/counter"
)

// Storage holds one counter per signal name plus an aggregate counter
// equal to their sum. The set of names is fixed at construction.
type Storage struct {
	names    []string
	counters map[string]*counter.Counter
	total    *counter.Counter
}

// NewStorage creates a storage for the given signal names. An empty set
// is allowed; such a storage can emit nothing.
func NewStorage(names ...string) (*Storage, error) {
	counts := make(map[string]uint64, len(names))
	for _, name := range names {
		counts[name] = 0
	}
	return newStorage(names, counts)
}

// RestoreStorage creates a storage whose counters start at the given
// values. Names are ordered lexically.
func RestoreStorage(counts map[string]uint64) (*Storage, error) {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	slices.Sort(names)
	return newStorage(names, counts)
}

func newStorage(names []string, counts map[string]uint64) (*Storage, error) {
	s := &Storage{
		names:    make([]string, 0, len(names)),
		counters: make(map[string]*counter.Counter, len(names)),
	}

	var total uint64
	for _, name := range names {
		if name == "" {
			return nil, &SignalError{Signal: name, Op: "storage", Err: ErrEmptySignalName}
		}
		if _, dup := s.counters[name]; dup {
			return nil, &SignalError{Signal: name, Op: "storage", Err: ErrDuplicateSignal}
		}
		v := counts[name]
		s.names = append(s.names, name)
		s.counters[name] = counter.New(v)
		total += v
	}
	s.total = counter.New(total)

	return s, nil
}

// Emit records one occurrence of name. The named counter is increased
// before the aggregate.
func (s *Storage) Emit(name string) error {
	c, ok := s.counters[name]
	if !ok {
		return &SignalError{Signal: name, Op: "emit", Err: ErrUnknownSignal}
	}
	c.Increase(1)
	s.total.Increase(1)
	return nil
}

// Names returns the configured signal names in construction order.
func (s *Storage) Names() []string {
	return slices.Clone(s.names)
}

// Has reports whether name is a configured signal.
func (s *Storage) Has(name string) bool {
	_, ok := s.counters[name]
	return ok
}

// Counters returns a snapshot of the named counters. Unknown names are
// omitted from the result.
func (s *Storage) Counters(names ...string) map[string]uint64 {
	out := make(map[string]uint64, len(names))
	for _, name := range names {
		if c, ok := s.counters[name]; ok {
			out[name] = c.Value()
		}
	}
	return out
}

// LinkedCounters returns a fresh linked counter for each name, starting
// at the name's current value. If any name is unknown nothing is returned.
func (s *Storage) LinkedCounters(names ...string) (map[string]*counter.Linked, error) {
	for _, name := range names {
		if _, ok := s.counters[name]; !ok {
			return nil, &SignalError{Signal: name, Op: "link", Err: ErrUnknownSignal}
		}
	}

	out := make(map[string]*counter.Linked, len(names))
	for _, name := range names {
		out[name] = counter.NewLinked(s.counters[name])
	}
	return out, nil
}

// Total returns the aggregate counter value.
func (s *Storage) Total() uint64 {
	return s.total.Value()
}

// Increase always fails: the aggregate only moves through Emit.
func (s *Storage) Increase(delta uint64) error {
	return fmt.Errorf("increase by %d: %w", delta, ErrDerivedCounter)
}
