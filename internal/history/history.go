package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sahilm/fuzzy"
	_ "modernc.org/sqlite"

	"github.com/tabsql/tabsql/internal/config"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS history (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	query         TEXT NOT NULL,
	database_name TEXT,
	executed_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
	duration_ms   INTEGER,
	row_count     INTEGER,
	is_error      BOOLEAN DEFAULT FALSE
)`

// Entry represents a single executed query in the history log.
type Entry struct {
	ID           int64
	Query        string
	DatabaseName string
	ExecutedAt   time.Time
	DurationMS   int64
	RowCount     int64
	IsError      bool
}

// Store provides SQLite-backed query history storage.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("history: create dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create table: %w", err)
	}

	return &Store{db: db}, nil
}

// OpenDefault opens the history database at ConfigDir()/history.db.
func OpenDefault() (*Store, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return nil, fmt.Errorf("history: config dir: %w", err)
	}
	return Open(filepath.Join(dir, "history.db"))
}

// Add inserts a new history entry.
func (s *Store) Add(e Entry) error {
	_, err := s.db.Exec(
		`INSERT INTO history (query, database_name, executed_at, duration_ms, row_count, is_error)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.Query,
		e.DatabaseName,
		e.ExecutedAt,
		e.DurationMS,
		e.RowCount,
		e.IsError,
	)
	if err != nil {
		return fmt.Errorf("history add: %w", err)
	}
	return nil
}

// Recent returns the most recent history entries, limited to limit rows.
func (s *Store) Recent(limit int) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT id, query, database_name, executed_at, duration_ms, row_count, is_error
		 FROM history
		 ORDER BY executed_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history recent: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// queryTexts implements fuzzy.Source over a slice of entries.
type queryTexts []Entry

func (q queryTexts) String(i int) string { return q[i].Query }
func (q queryTexts) Len() int            { return len(q) }

// Search fuzzy-matches term against the most recent scan entries and
// returns the matching entries ranked best-first, limited to limit rows.
func (s *Store) Search(term string, limit int) ([]Entry, error) {
	const scan = 500
	recent, err := s.Recent(scan)
	if err != nil {
		return nil, err
	}

	matches := fuzzy.FindFrom(term, queryTexts(recent))

	out := make([]Entry, 0, limit)
	for _, m := range matches {
		out = append(out, recent[m.Index])
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Prune deletes all but the newest keep entries.
func (s *Store) Prune(keep int) error {
	_, err := s.db.Exec(
		`DELETE FROM history
		 WHERE id NOT IN (SELECT id FROM history ORDER BY executed_at DESC, id DESC LIMIT ?)`,
		keep,
	)
	if err != nil {
		return fmt.Errorf("history prune: %w", err)
	}
	return nil
}

// Clear deletes all history entries.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM history`); err != nil {
		return fmt.Errorf("history clear: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// scanEntries reads all rows from the result set into a slice of Entry.
func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID,
			&e.Query,
			&e.DatabaseName,
			&e.ExecutedAt,
			&e.DurationMS,
			&e.RowCount,
			&e.IsError,
		); err != nil {
			return nil, fmt.Errorf("history scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history rows: %w", err)
	}
	return entries, nil
}
