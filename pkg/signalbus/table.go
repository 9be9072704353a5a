package signalbus

import (
	"sync/atomic"

	"github.com/randalmurphal/signalbus/pkg/signalbus/counter"
)

// table is an immutable snapshot of the bus's connections. Structural
// changes build a new table and publish it; only baselines mutate in place.
type table struct {
	senders []*senderEntry
}

type senderEntry struct {
	key     any // weak.Pointer to the sender
	resolve func() SignalSource
	id      string
	signals []*signalEntry

	// baseline is the sender aggregate at the last commit scan.
	baseline atomic.Uint64
}

type signalEntry struct {
	name      string
	receivers []*receiverEntry

	// baseline is the signal counter at the last commit scan.
	baseline atomic.Uint64
}

type receiverEntry struct {
	key     any // weak.Pointer to the receiver
	resolve func() Receiver
	linked  *counter.Linked
}

// commitMark records the activity value a commit scan caught up to and
// the table it scanned.
type commitMark struct {
	table    *table
	activity uint64
}

func (t *table) sender(key any) *senderEntry {
	for _, se := range t.senders {
		if se.key == key {
			return se
		}
	}
	return nil
}

func (se *senderEntry) signal(name string) *signalEntry {
	for _, sig := range se.signals {
		if sig.name == name {
			return sig
		}
	}
	return nil
}

func (sig *signalEntry) receiver(key any) *receiverEntry {
	for _, re := range sig.receivers {
		if re.key == key {
			return re
		}
	}
	return nil
}

// clone copies the table into fresh entries with zero baselines. Entries
// whose sender or receiver has been collected, as well as anything whose
// key matches drop, are left out.
func (t *table) clone(drop any) *table {
	nt := &table{senders: make([]*senderEntry, 0, len(t.senders))}
	for _, se := range t.senders {
		if se.key == drop || se.resolve() == nil {
			continue
		}
		ns := &senderEntry{key: se.key, resolve: se.resolve, id: se.id}
		for _, sig := range se.signals {
			nsig := &signalEntry{name: sig.name}
			for _, re := range sig.receivers {
				if re.key == drop || re.resolve() == nil {
					continue
				}
				nsig.receivers = append(nsig.receivers, re)
			}
			if len(nsig.receivers) > 0 {
				ns.signals = append(ns.signals, nsig)
			}
		}
		if len(ns.signals) > 0 {
			nt.senders = append(nt.senders, ns)
		}
	}
	return nt
}

// connections counts (sender, signal, receiver) triples.
func (t *table) connections() int {
	n := 0
	for _, se := range t.senders {
		for _, sig := range se.signals {
			n += len(sig.receivers)
		}
	}
	return n
}

// add inserts a connection into a freshly cloned table.
func (t *table) add(key any, resolve func() SignalSource, id, name string, re *receiverEntry) {
	se := t.sender(key)
	if se == nil {
		se = &senderEntry{key: key, resolve: resolve, id: id}
		t.senders = append(t.senders, se)
	}
	sig := se.signal(name)
	if sig == nil {
		sig = &signalEntry{name: name}
		se.signals = append(se.signals, sig)
	}
	sig.receivers = append(sig.receivers, re)
}

// remove deletes a connection from a freshly cloned table, dropping
// signal and sender entries that become empty. It reports whether the
// connection existed.
func (t *table) remove(senderKey any, name string, receiverKey any) bool {
	for i, se := range t.senders {
		if se.key != senderKey {
			continue
		}
		for j, sig := range se.signals {
			if sig.name != name {
				continue
			}
			for k, re := range sig.receivers {
				if re.key != receiverKey {
					continue
				}
				sig.receivers = append(sig.receivers[:k:k], sig.receivers[k+1:]...)
				if len(sig.receivers) == 0 {
					se.signals = append(se.signals[:j:j], se.signals[j+1:]...)
				}
				if len(se.signals) == 0 {
					t.senders = append(t.senders[:i:i], t.senders[i+1:]...)
				}
				return true
			}
			return false
		}
		return false
	}
	return false
}
