// Package framelog persists raw broadcast frames to a single SQLite table so
// a captured session can be replayed by the development broadcaster. The
// live session never reads from it; it is tooling for reproducing streams.
package framelog

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Frame is one recorded broadcast frame.
type Frame struct {
	Seq     int64
	At      time.Time
	Payload []byte
}

// Log is an append-only frame journal backed by a SQLite file.
type Log struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// Open creates or opens the journal at path.
func Open(path string) (*Log, error) {
	if path == "" {
		return nil, errors.New("framelog: path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS frames (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		at INTEGER NOT NULL,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create frames table: %w", err)
	}
	return &Log{db: db, path: path}, nil
}

// Path returns the journal file path.
func (l *Log) Path() string { return l.path }

// Append records one frame with its emission time.
func (l *Log) Append(at time.Time, payload []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.db.Exec(`INSERT INTO frames(at, payload) VALUES(?, ?)`, at.UnixMilli(), payload); err != nil {
		return fmt.Errorf("insert frame: %w", err)
	}
	return nil
}

// Replay streams every recorded frame to fn in sequence order. A non-nil
// error from fn stops the replay and is returned.
func (l *Log) Replay(fn func(Frame) error) error {
	rows, err := l.db.Query(`SELECT seq, at, payload FROM frames ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("select frames: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var f Frame
		var at int64
		if err := rows.Scan(&f.Seq, &at, &f.Payload); err != nil {
			return fmt.Errorf("scan frame: %w", err)
		}
		f.At = time.UnixMilli(at).UTC()
		if err := fn(f); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Count returns the number of recorded frames.
func (l *Log) Count() (int64, error) {
	var n int64
	if err := l.db.QueryRow(`SELECT COUNT(*) FROM frames`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count frames: %w", err)
	}
	return n, nil
}

// Close releases the underlying database handle.
func (l *Log) Close() error {
	return l.db.Close()
}
