package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"fedsearch/internal/logging"
)

// Store keeps a record of past dispatches in a SQLite database.
type Store struct {
	conn   *sql.DB
	logger *logging.Logger
	keep   int
}

// Entry is one recorded search.
type Entry struct {
	ID         string
	Query      string
	Servers    int
	Matches    int
	Failures   int
	DurationMs int64
	CreatedAt  time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS searches (
	id          TEXT PRIMARY KEY,
	query       TEXT NOT NULL,
	servers     INTEGER NOT NULL,
	matches     INTEGER NOT NULL,
	failures    INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_searches_created_at ON searches(created_at);
`

// Open opens or creates <dir>/history.db and initializes its schema. keep
// caps the retained rows; zero disables pruning.
func Open(dir string, keep int, logger *logging.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}
	dbPath := filepath.Join(dir, "history.db")

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	return &Store{conn: conn, logger: logger, keep: keep}, nil
}

// Record stores one search. Failures to record are logged, never fatal to
// the dispatch that produced them.
func (s *Store) Record(e Entry) {
	_, err := s.conn.Exec(`
		INSERT INTO searches (id, query, servers, matches, failures, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Query, e.Servers, e.Matches, e.Failures, e.DurationMs,
		e.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		s.logger.Warn("Failed to record search", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	s.prune()
}

// Recent returns the most recent searches, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	rows, err := s.conn.Query(`
		SELECT id, query, servers, matches, failures, duration_ms, created_at
		FROM searches
		ORDER BY created_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("history query failed: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Query, &e.Servers, &e.Matches,
			&e.Failures, &e.DurationMs, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) prune() {
	if s.keep <= 0 {
		return
	}
	_, err := s.conn.Exec(`
		DELETE FROM searches WHERE id NOT IN (
			SELECT id FROM searches ORDER BY created_at DESC, id LIMIT ?
		)
	`, s.keep)
	if err != nil {
		s.logger.Warn("Failed to prune history", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}
