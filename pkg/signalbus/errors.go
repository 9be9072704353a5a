package signalbus

import (
	"errors"
	"fmt"
)

// Sentinel errors for signal names and counters.
var (
	// ErrUnknownSignal indicates a signal name the source was not built with.
	ErrUnknownSignal = errors.New("unknown signal")

	// ErrDuplicateSignal indicates a signal name listed twice.
	ErrDuplicateSignal = errors.New("duplicate signal name")

	// ErrEmptySignalName indicates an empty signal name.
	ErrEmptySignalName = errors.New("empty signal name")

	// ErrDerivedCounter indicates a direct write to the aggregate counter,
	// which only moves when a signal is emitted.
	ErrDerivedCounter = errors.New("aggregate counter is derived from signal counters")
)

// Sentinel errors for connections.
var (
	// ErrAlreadyConnected indicates the (sender, signal, receiver) triple exists.
	ErrAlreadyConnected = errors.New("receiver already connected")

	// ErrNotConnected indicates the (sender, signal, receiver) triple does not exist.
	ErrNotConnected = errors.New("receiver not connected")

	// ErrInvalidParticipant indicates a nil sender or receiver.
	ErrInvalidParticipant = errors.New("sender and receiver must not be nil")
)

// Sentinel errors for the bus.
var (
	// ErrNilBus indicates a source created without a bus.
	ErrNilBus = errors.New("bus cannot be nil")

	// ErrAlreadyRunning indicates Start was called on a running bus.
	ErrAlreadyRunning = errors.New("bus already running")
)

// SignalError wraps an error with signal context.
type SignalError struct {
	// Signal is the signal name involved.
	Signal string
	// Op is the operation that failed ("emit", "link", "storage").
	Op string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *SignalError) Error() string {
	return fmt.Sprintf("signal %q: %s: %v", e.Signal, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *SignalError) Unwrap() error {
	return e.Err
}

// ConnectionError wraps a failed connect or disconnect.
type ConnectionError struct {
	// Source identifies the sender.
	Source string
	// Signal is the signal name.
	Signal string
	// Op is "connect" or "disconnect".
	Op string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s %s/%s: %v", e.Op, e.Source, e.Signal, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ReceiverPanicError captures a panic raised by a receiver during delivery.
// The occurrences it was handed count as delivered.
type ReceiverPanicError struct {
	// Source identifies the sender.
	Source string
	// Signal is the delivered signal.
	Signal string
	// Count is the number of occurrences in the failed delivery.
	Count uint64
	// Value is the value passed to panic().
	Value any
	// Stack is the stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *ReceiverPanicError) Error() string {
	return fmt.Sprintf("receiver of %s/%s panicked: %v", e.Source, e.Signal, e.Value)
}
