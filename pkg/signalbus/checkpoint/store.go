// Package checkpoint persists signal source counters so a restarted process
// can resume counting where it left off.
package checkpoint

import (
	"errors"
	"maps"
	"time"
)

// Store persists counter snapshots.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores a snapshot, replacing any previous one for the same source.
	Save(snap Snapshot) error

	// Load retrieves the snapshot of a source.
	// Returns ErrNotFound if the source has no snapshot.
	Load(sourceID string) (Snapshot, error)

	// List returns metadata for every stored snapshot, ordered by sequence.
	// Returns an empty slice (not an error) if the store is empty.
	List() ([]Info, error)

	// Delete removes the snapshot of a source.
	// Returns nil if it doesn't exist.
	Delete(sourceID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Snapshot captures the counters of one signal source.
type Snapshot struct {
	SourceID  string
	Signals   map[string]uint64
	Total     uint64
	Timestamp time.Time
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	s.Signals = maps.Clone(s.Signals)
	return s
}

// Info provides metadata without loading the counters.
type Info struct {
	SourceID  string
	Sequence  int
	Signals   int
	Total     uint64
	Timestamp time.Time
}

// Sentinel errors for checkpoint operations.
var (
	// ErrNotFound indicates a snapshot doesn't exist.
	ErrNotFound = errors.New("checkpoint not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("checkpoint store closed")

	// ErrSourceIDRequired indicates a snapshot without a source ID.
	ErrSourceIDRequired = errors.New("source ID required")
)
