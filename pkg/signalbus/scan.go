package signalbus

import (
	"context"
	"iter"
	"runtime/debug"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/multierr"

	"github.com/randalmurphal/signalbus/pkg/signalbus/observability"
)

// Scan yields every delivery currently owed: for each live connection
// whose signal counter is ahead of its linked counter, the difference.
//
// With commit set, each linked counter is advanced by the yielded count
// before the delivery is handed out, and baselines are recorded so that
// unchanged senders are skipped next time. Commit scans are serialized;
// receivers must not start another commit scan from inside the loop body.
// Without commit the scan has no side effects and can be repeated.
//
// Stopping the iteration early leaves the remaining deliveries owed.
func (b *Bus) Scan(commit bool) iter.Seq[Delivery] {
	return func(yield func(Delivery) bool) {
		if commit {
			b.processMu.Lock()
			defer b.processMu.Unlock()
		}

		activity := b.activity.Value()
		tbl := b.table.Load()
		if m := b.mark.Load(); m != nil && m.table == tbl && activity <= m.activity {
			return
		}

		for _, se := range tbl.senders {
			if !b.scanSender(se, commit, yield) {
				return
			}
		}

		if commit {
			b.mark.Store(&commitMark{table: tbl, activity: activity})
		}
	}
}

func (b *Bus) scanSender(se *senderEntry, commit bool, yield func(Delivery) bool) bool {
	source := se.resolve()
	if source == nil {
		return true
	}

	total := source.SourceCounter()
	if total <= se.baseline.Load() {
		return true
	}

	names := make([]string, len(se.signals))
	for i, sig := range se.signals {
		names[i] = sig.name
	}
	current := source.SignalsCounters(names...)

	for _, sig := range se.signals {
		cur, ok := current[sig.name]
		if !ok || cur <= sig.baseline.Load() {
			continue
		}
		for _, re := range sig.receivers {
			seen := re.linked.Value()
			if cur <= seen {
				continue
			}
			receiver := re.resolve()
			if receiver == nil {
				continue
			}
			delta := cur - seen
			if commit {
				re.linked.Increase(delta)
			}
			if !yield(Delivery{Count: delta, Source: source, Signal: sig.name, Receiver: receiver}) {
				return false
			}
		}
		if commit {
			sig.baseline.Store(cur)
		}
	}

	if commit {
		se.baseline.Store(total)
	}
	return true
}

// Peek returns the deliveries currently owed without consuming them.
func (b *Bus) Peek() []Delivery {
	return slices.Collect(b.Scan(false))
}

// ProcessSignals runs one commit scan and calls every receiver that is
// owed occurrences, synchronously on the calling goroutine.
//
// Occurrences count as delivered before the receiver runs. A receiver
// that panics is recovered and the cycle continues; the panics of the
// cycle are returned combined, each as a *ReceiverPanicError.
func (b *Bus) ProcessSignals(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx, span := b.spans.StartCycleSpan(ctx, b.id)
	start := b.clock.Now()
	elapsed := observability.TimedOperation()

	deliveries := slices.Collect(b.Scan(true))

	var (
		errs        error
		occurrences uint64
	)
	for _, d := range deliveries {
		occurrences += d.Count
		errs = multierr.Append(errs, b.deliver(ctx, d))
	}

	b.cycles.Add(1)
	if len(deliveries) > 0 {
		observability.LogCycle(b.logger, len(deliveries), occurrences, elapsed())
	}
	b.metrics.RecordCycle(ctx, b.clock.Since(start), len(deliveries), errs)
	b.spans.EndSpanWithError(span, errs)
	return errs
}

// deliver invokes one receiver, converting a panic into an error.
func (b *Bus) deliver(ctx context.Context, d Delivery) (err error) {
	sourceID := participantID(d.Source)

	defer func() {
		if r := recover(); r != nil {
			b.panics.Add(1)
			b.metrics.RecordReceiverPanic(ctx, d.Signal)
			observability.LogReceiverPanic(b.logger, sourceID, d.Signal, d.Count, r)
			err = &ReceiverPanicError{
				Source: sourceID,
				Signal: d.Signal,
				Count:  d.Count,
				Value:  r,
				Stack:  string(debug.Stack()),
			}
		}
	}()

	b.deliveries.Add(1)
	b.occurrences.Add(d.Count)
	b.metrics.RecordDelivery(ctx, d.Signal, d.Count)
	b.spans.AddSpanEvent(ctx, "signal.delivered",
		attribute.String("signal", d.Signal),
		attribute.String("source.id", sourceID),
		attribute.Int64("count", int64(d.Count)),
	)

	d.Receiver.ReceiveSignal(d.Source, d.Signal, d.Count)
	return nil
}
