// Package errors classifies signal bus errors and retries operations that
// failed for transient reasons.
//
// The bus itself never retries. A Connect or Disconnect that could not
// enter the bus's critical section in time is the one failure worth
// retrying, and callers opt into that with WithRetry:
//
//	res := errors.WithRetryContext(ctx, errors.DefaultRetry, func(ctx context.Context) (struct{}, error) {
//	    return struct{}{}, signalbus.Connect(ctx, bus, source, "ready", receiver)
//	})
package errors

import (
	"errors"
	"fmt"

	"github.com/randalmurphal/signalbus/pkg/signalbus"
	"github.com/randalmurphal/signalbus/pkg/signalbus/critical"
)

// Category represents how an error should be handled.
type Category int

const (
	// CategoryUnknown is anything not produced by the bus.
	CategoryUnknown Category = iota

	// CategoryUsage indicates a caller mistake; retrying won't help.
	// Examples: unknown signal, duplicate connection, nil bus.
	CategoryUsage

	// CategoryContention indicates the critical section was busy.
	// Retrying will likely help.
	CategoryContention

	// CategoryReceiver indicates a receiver panicked during delivery.
	CategoryReceiver
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryUsage:
		return "usage"
	case CategoryContention:
		return "contention"
	case CategoryReceiver:
		return "receiver"
	default:
		return "unknown"
	}
}

// CategorizedError wraps an error with its category and context.
type CategorizedError struct {
	// Err is the underlying error.
	Err error

	// Category indicates how this error should be handled.
	Category Category

	// Attempts is the number of attempts that have been made.
	Attempts int

	// Context describes what operation was being attempted.
	Context string
}

// Error implements the error interface.
func (e *CategorizedError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (category: %s, attempts: %d)",
			e.Context, e.Err, e.Category, e.Attempts)
	}
	return fmt.Sprintf("%s (category: %s, attempts: %d)",
		e.Err, e.Category, e.Attempts)
}

// Unwrap returns the underlying error.
func (e *CategorizedError) Unwrap() error {
	return e.Err
}

var usageErrors = []error{
	signalbus.ErrUnknownSignal,
	signalbus.ErrDuplicateSignal,
	signalbus.ErrEmptySignalName,
	signalbus.ErrDerivedCounter,
	signalbus.ErrAlreadyConnected,
	signalbus.ErrNotConnected,
	signalbus.ErrInvalidParticipant,
	signalbus.ErrNilBus,
	signalbus.ErrAlreadyRunning,
}

// Categorize determines how an error should be handled.
func Categorize(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	var catErr *CategorizedError
	if errors.As(err, &catErr) {
		return catErr.Category
	}

	if errors.Is(err, critical.ErrTimeout) {
		return CategoryContention
	}

	var panicErr *signalbus.ReceiverPanicError
	if errors.As(err, &panicErr) {
		return CategoryReceiver
	}

	for _, target := range usageErrors {
		if errors.Is(err, target) {
			return CategoryUsage
		}
	}

	return CategoryUnknown
}

// IsRetryable reports whether the error should be retried.
func IsRetryable(err error) bool {
	return Categorize(err) == CategoryContention
}
