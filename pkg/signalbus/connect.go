package signalbus

import (
	"context"
	"fmt"
	"runtime"
	"weak"

	"github.com/randalmurphal/signalbus/pkg/signalbus/observability"
)

// Connect subscribes receiver to the named signal of sender. The receiver
// is owed only occurrences emitted after the connection is made.
//
// Both participants are held weakly. When either is garbage collected the
// connection is pruned without a call to Disconnect.
//
// Connect waits at most the bus lock timeout for the bus's critical
// section; on expiry the error matches critical.ErrTimeout.
//
// Example:
//
//	err := signalbus.Connect(ctx, bus, source, "ready", receiver)
func Connect[S any, PS interface {
	*S
	SignalSource
}, R any, PR interface {
	*R
	Receiver
}](ctx context.Context, bus *Bus, sender PS, name string, receiver PR) error {
	if bus == nil {
		return ErrNilBus
	}
	if sender == nil || receiver == nil {
		return &ConnectionError{Op: "connect", Signal: name, Err: ErrInvalidParticipant}
	}

	sk := weak.Make((*S)(sender))
	rk := weak.Make((*R)(receiver))
	id := participantID(sender)

	err := bus.section.Do(ctx, func() error {
		tbl := bus.table.Load()
		if se := tbl.sender(sk); se != nil {
			if sig := se.signal(name); sig != nil && sig.receiver(rk) != nil {
				return ErrAlreadyConnected
			}
		}

		linked, err := sender.LinkedCounters(name)
		if err != nil {
			return err
		}

		re := &receiverEntry{
			key:     rk,
			resolve: resolveReceiver[R, PR](rk),
			linked:  linked[name],
		}
		nt := tbl.clone(nil)
		nt.add(sk, resolveSender[S, PS](sk), id, name, re)
		bus.table.Store(nt)

		track(bus, (*S)(sender), any(sk))
		track(bus, (*R)(receiver), any(rk))
		return nil
	})

	bus.metrics.RecordConnection(ctx, "connect", err)
	if err != nil {
		observability.LogConnectionError(bus.logger, "connect", id, name, err)
		return &ConnectionError{Source: id, Signal: name, Op: "connect", Err: err}
	}
	observability.LogConnect(bus.logger, id, name)
	return nil
}

// Disconnect removes a connection made by Connect. Occurrences not yet
// delivered to the receiver are dropped. Removing the last receiver of a
// signal removes the signal entry; removing the last signal of a sender
// removes the sender entry.
func Disconnect[S any, PS interface {
	*S
	SignalSource
}, R any, PR interface {
	*R
	Receiver
}](ctx context.Context, bus *Bus, sender PS, name string, receiver PR) error {
	if bus == nil {
		return ErrNilBus
	}
	if sender == nil || receiver == nil {
		return &ConnectionError{Op: "disconnect", Signal: name, Err: ErrInvalidParticipant}
	}

	sk := weak.Make((*S)(sender))
	rk := weak.Make((*R)(receiver))
	id := participantID(sender)

	err := bus.section.Do(ctx, func() error {
		tbl := bus.table.Load()
		se := tbl.sender(sk)
		if se == nil {
			return ErrNotConnected
		}
		sig := se.signal(name)
		if sig == nil || sig.receiver(rk) == nil {
			return ErrNotConnected
		}

		nt := tbl.clone(nil)
		if !nt.remove(sk, name, rk) {
			// The receiver was collected between the lookup and the clone.
			return ErrNotConnected
		}
		bus.table.Store(nt)
		return nil
	})

	bus.metrics.RecordConnection(ctx, "disconnect", err)
	if err != nil {
		observability.LogConnectionError(bus.logger, "disconnect", id, name, err)
		return &ConnectionError{Source: id, Signal: name, Op: "disconnect", Err: err}
	}
	observability.LogDisconnect(bus.logger, id, name)
	return nil
}

func resolveSender[S any, PS interface {
	*S
	SignalSource
}](wp weak.Pointer[S]) func() SignalSource {
	return func() SignalSource {
		p := wp.Value()
		if p == nil {
			return nil
		}
		return PS(p)
	}
}

func resolveReceiver[R any, PR interface {
	*R
	Receiver
}](wp weak.Pointer[R]) func() Receiver {
	return func() Receiver {
		p := wp.Value()
		if p == nil {
			return nil
		}
		return PR(p)
	}
}

// track registers a cleanup that prunes key's connections once ptr is
// collected. Must be called inside the critical section.
func track[T any](b *Bus, ptr *T, key any) {
	if _, ok := b.tracked[key]; ok {
		return
	}
	b.tracked[key] = struct{}{}
	label := fmt.Sprintf("%T", ptr)
	runtime.AddCleanup(ptr, func(key any) { b.prune(key, label) }, key)
}

// prune removes every connection of a collected participant. It runs on
// the runtime's cleanup goroutine.
func (b *Bus) prune(key any, label string) {
	ctx := context.Background()
	err := b.section.Do(ctx, func() error {
		delete(b.tracked, key)
		tbl := b.table.Load()
		nt := tbl.clone(key)
		if removed := tbl.connections() - nt.connections(); removed > 0 {
			b.table.Store(nt)
			observability.LogPrune(b.logger, label, removed)
		}
		return nil
	})
	if err != nil {
		// Scans skip dead participants, and the next structural change
		// drops them from the table.
		observability.LogPruneError(b.logger, err)
	}
}

func participantID(p any) string {
	if v, ok := p.(identified); ok {
		return v.ID()
	}
	return fmt.Sprintf("%p", p)
}
