package checkpoint

import (
	"sort"
	"sync"
)

// MemoryStore is an in-memory snapshot store for testing.
// Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]storedSnapshot // sourceID -> snapshot
	seq    int
	closed bool
}

type storedSnapshot struct {
	snap     Snapshot
	sequence int
}

// NewMemoryStore creates a new in-memory snapshot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]storedSnapshot),
	}
}

// Save implements Store.
func (m *MemoryStore) Save(snap Snapshot) error {
	if snap.SourceID == "" {
		return ErrSourceIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	m.seq++
	m.data[snap.SourceID] = storedSnapshot{
		snap:     snap.Clone(),
		sequence: m.seq,
	}
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(sourceID string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Snapshot{}, ErrStoreClosed
	}

	stored, ok := m.data[sourceID]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return stored.snap.Clone(), nil
}

// List implements Store.
func (m *MemoryStore) List() ([]Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	infos := make([]Info, 0, len(m.data))
	for id, stored := range m.data {
		infos = append(infos, Info{
			SourceID:  id,
			Sequence:  stored.sequence,
			Signals:   len(stored.snap.Signals),
			Total:     stored.snap.Total,
			Timestamp: stored.snap.Timestamp,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Sequence < infos[j].Sequence
	})

	return infos, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(sourceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	delete(m.data, sourceID)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.data = nil
	return nil
}

// Len returns the number of stored snapshots.
// Useful for testing.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
