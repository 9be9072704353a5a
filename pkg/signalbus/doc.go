/*
Package signalbus provides coalescing publish/subscribe built from atomic
counters.

# Overview

A Source emits payload-free occurrences of named signals. Each emission
bumps one counter and never blocks. A Bus remembers, for every
(sender, signal, receiver) connection, how many occurrences the receiver
has already been told about, and periodically hands each receiver the
difference as a single count. Three emissions between two cycles reach
the receiver as one call with count 3.

Senders and receivers are referenced weakly. Dropping the last reference
to either is enough to make its connections disappear. Pointers to
zero-size types all share one address and are never collected, so
participants should have at least one field.

# Basic Usage

	type Logger struct {
	    prefix string
	}

	func (l *Logger) ReceiveSignal(src signalbus.SignalSource, signal string, count uint64) {
	    fmt.Printf("%s%s fired %d times\n", l.prefix, signal, count)
	}

	func main() {
	    ctx := context.Background()
	    bus := signalbus.NewBus(signalbus.WithPollInterval(50 * time.Millisecond))

	    src, err := signalbus.NewSource(bus, "ready", "done")
	    if err != nil {
	        log.Fatal(err)
	    }

	    recv := &Logger{prefix: "app: "}
	    if err := signalbus.Connect(ctx, bus, src, "ready", recv); err != nil {
	        log.Fatal(err)
	    }

	    go bus.Start(ctx)
	    defer bus.Stop()

	    src.SendSignal("ready")
	    src.SendSignal("ready")
	}

# Processing

Start loops on the calling goroutine: ProcessSignals, then wait one poll
interval. ProcessSignals can also be called directly. Receivers run
synchronously on the processing goroutine.

Scan exposes the underlying delta scan. Scan(false) and Peek report what
is owed without consuming it.

# Delivery Guarantees

Occurrences are committed before the receiver is called, so each
occurrence is delivered at most once. A receiver that panics is recovered,
the rest of the cycle still runs, and ProcessSignals returns the panics
as *ReceiverPanicError values combined into one error.

No ordering is defined between different signal names, and delivery
latency is bounded below by the poll interval.

# Concurrency

SendSignal is safe from any goroutine. Connect, Disconnect and pruning of
collected participants share one critical section per bus whose
acquisition is bounded by the lock timeout (WithLockTimeout). A caller
that cannot enter in time gets an error matching critical.ErrTimeout.
*/
package signalbus
