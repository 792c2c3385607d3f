// Package runlog records VM execution results in a SQLite database. The VM
// core itself is persistence-free; recording is opt-in caller machinery.
package runlog

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store handles SQLite storage for execution records.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Record is one completed VM execution.
type Record struct {
	ID      int64
	Program string
	Engine  string
	Result  int
	Steps   int // instructions dispatched, including the terminal HALT
	When    time.Time
}

// Open creates or opens a run-history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		program TEXT NOT NULL,
		engine TEXT NOT NULL,
		result INTEGER NOT NULL,
		steps INTEGER NOT NULL,
		created_at TEXT NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Add persists one execution record. A zero When is stamped with the
// current time.
func (s *Store) Add(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	when := r.When
	if when.IsZero() {
		when = time.Now().UTC()
	}

	_, err := s.db.Exec(
		"INSERT INTO runs (program, engine, result, steps, created_at) VALUES (?, ?, ?, ?, ?)",
		r.Program, r.Engine, r.Result, r.Steps, when.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// History returns the most recent records for a program, newest first.
func (s *Store) History(program string, limit int) ([]Record, error) {
	rows, err := s.db.Query(
		"SELECT id, program, engine, result, steps, created_at FROM runs WHERE program = ? ORDER BY id DESC LIMIT ?",
		program, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var created string
		if err := rows.Scan(&r.ID, &r.Program, &r.Engine, &r.Result, &r.Steps, &created); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			r.When = t
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Count returns the total number of recorded runs.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting runs: %w", err)
	}
	return n, nil
}
