package signalbus

import (
	"github.com/randalmurphal/signalbus/pkg/signalbus/counter"
)

// SignalSource is anything that emits named signals and exposes the
// counters the bus reads.
type SignalSource interface {
	// Signals returns the signal names the source can emit.
	Signals() []string

	// SendSignal records one occurrence of name.
	SendSignal(name string) error

	// SourceCounter returns the total number of occurrences emitted.
	SourceCounter() uint64

	// SignalsCounters returns a snapshot of the named counters.
	// Unknown names are omitted.
	SignalsCounters(names ...string) map[string]uint64

	// LinkedCounters returns counters linked to the named signals.
	LinkedCounters(names ...string) (map[string]*counter.Linked, error)
}

// Receiver is notified of coalesced signal occurrences. count is always
// greater than zero.
type Receiver interface {
	ReceiveSignal(source SignalSource, signal string, count uint64)
}

// Delivery is one coalesced notification owed to a receiver.
type Delivery struct {
	Count    uint64
	Source   SignalSource
	Signal   string
	Receiver Receiver
}

// identified is implemented by participants with a stable ID.
type identified interface {
	ID() string
}
