package checkpoint

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists snapshots to SQLite, one row per source.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore creates a new SQLite snapshot store.
// The path should be a file path (e.g., "./counters.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS source_counters (
			source_id TEXT PRIMARY KEY,
			sequence INTEGER NOT NULL,
			total INTEGER NOT NULL,
			timestamp TEXT NOT NULL,
			signals TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(snap Snapshot) error {
	if snap.SourceID == "" {
		return ErrSourceIDRequired
	}

	signals, err := json.Marshal(snap.Signals)
	if err != nil {
		return fmt.Errorf("encode signals: %w", err)
	}

	ts := snap.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err = s.db.Exec(`
		INSERT INTO source_counters (source_id, sequence, total, timestamp, signals)
		VALUES (
			?,
			COALESCE((SELECT MAX(sequence) FROM source_counters), 0) + 1,
			?, ?, ?
		)
		ON CONFLICT(source_id) DO UPDATE SET
			sequence = (SELECT MAX(sequence) FROM source_counters) + 1,
			total = excluded.total,
			timestamp = excluded.timestamp,
			signals = excluded.signals
	`, snap.SourceID, int64(snap.Total), ts.UTC().Format(time.RFC3339Nano), string(signals))
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *SQLiteStore) Load(sourceID string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Snapshot{}, ErrStoreClosed
	}

	var (
		total     int64
		timestamp string
		signals   string
	)
	err := s.db.QueryRow(`
		SELECT total, timestamp, signals FROM source_counters
		WHERE source_id = ?
	`, sourceID).Scan(&total, &timestamp, &signals)

	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load checkpoint: %w", err)
	}

	snap := Snapshot{SourceID: sourceID, Total: uint64(total)}
	if err := json.Unmarshal([]byte(signals), &snap.Signals); err != nil {
		return Snapshot{}, fmt.Errorf("decode signals: %w", err)
	}
	snap.Timestamp, _ = time.Parse(time.RFC3339Nano, timestamp)
	return snap, nil
}

// List implements Store.
func (s *SQLiteStore) List() ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`
		SELECT source_id, sequence, total, timestamp, signals
		FROM source_counters
		ORDER BY sequence
	`)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		var (
			info      Info
			total     int64
			timestamp string
			signals   string
		)
		if err := rows.Scan(&info.SourceID, &info.Sequence, &total, &timestamp, &signals); err != nil {
			return nil, fmt.Errorf("scan checkpoint info: %w", err)
		}
		var counts map[string]uint64
		if err := json.Unmarshal([]byte(signals), &counts); err != nil {
			return nil, fmt.Errorf("decode signals of %s: %w", info.SourceID, err)
		}
		info.Signals = len(counts)
		info.Total = uint64(total)
		info.Timestamp, _ = time.Parse(time.RFC3339Nano, timestamp)
		infos = append(infos, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkpoints: %w", err)
	}

	return infos, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(sourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.Exec(`
		DELETE FROM source_counters WHERE source_id = ?
	`, sourceID)
	if err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}
