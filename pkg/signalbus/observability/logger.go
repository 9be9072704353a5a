// Package observability provides logging, metrics, and tracing helpers for
// the signal bus.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry, plus a Prometheus collector for bus stats
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"fmt"
	"log/slog"
	"time"
)

// EnrichLogger adds bus context to a logger.
//
// Example:
//
//	logger = EnrichLogger(logger, bus.ID())
//	logger.Info("polling") // includes bus_id
func EnrichLogger(logger *slog.Logger, busID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("bus_id", busID))
}

// LogConnect logs a new connection.
func LogConnect(logger *slog.Logger, sourceID, signal string) {
	if logger == nil {
		return
	}
	logger.Debug("receiver connected",
		slog.String("source_id", sourceID),
		slog.String("signal", signal),
	)
}

// LogDisconnect logs a removed connection.
func LogDisconnect(logger *slog.Logger, sourceID, signal string) {
	if logger == nil {
		return
	}
	logger.Debug("receiver disconnected",
		slog.String("source_id", sourceID),
		slog.String("signal", signal),
	)
}

// LogConnectionError logs a failed connect or disconnect.
func LogConnectionError(logger *slog.Logger, op, sourceID, signal string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("connection change failed",
		slog.String("operation", op),
		slog.String("source_id", sourceID),
		slog.String("signal", signal),
		slog.String("error", err.Error()),
	)
}

// LogCycle logs a processing cycle that delivered something.
func LogCycle(logger *slog.Logger, deliveries int, occurrences uint64, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("signals processed",
		slog.Int("deliveries", deliveries),
		slog.Uint64("occurrences", occurrences),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogReceiverPanic logs a receiver that panicked during delivery.
func LogReceiverPanic(logger *slog.Logger, sourceID, signal string, count uint64, value any) {
	if logger == nil {
		return
	}
	logger.Error("receiver panicked",
		slog.String("source_id", sourceID),
		slog.String("signal", signal),
		slog.Uint64("count", count),
		slog.String("panic", fmt.Sprint(value)),
	)
}

// LogPrune logs removal of connections whose participant was collected.
func LogPrune(logger *slog.Logger, participant string, removed int) {
	if logger == nil || removed == 0 {
		return
	}
	logger.Debug("pruned collected participant",
		slog.String("participant", participant),
		slog.Int("connections", removed),
	)
}

// LogPruneError logs a prune that could not enter the critical section.
// Dead entries stay until the next structural change.
func LogPruneError(logger *slog.Logger, err error) {
	if logger == nil {
		return
	}
	logger.Warn("prune skipped",
		slog.String("error", err.Error()),
	)
}

// LogLoopStart logs the start of the polling loop.
func LogLoopStart(logger *slog.Logger, interval time.Duration) {
	if logger == nil {
		return
	}
	logger.Info("signal bus polling started",
		slog.Duration("poll_interval", interval),
	)
}

// LogLoopStop logs the end of the polling loop.
func LogLoopStop(logger *slog.Logger, cycles uint64) {
	if logger == nil {
		return
	}
	logger.Info("signal bus polling stopped",
		slog.Uint64("cycles", cycles),
	)
}

// LogLoopError logs a cycle that returned an error. The loop keeps running.
func LogLoopError(logger *slog.Logger, err error) {
	if logger == nil {
		return
	}
	logger.Error("signal processing failed",
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
