package state

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"jobscout/internal/dedup"
	"jobscout/internal/model"
)

// SQLiteStore persists the processed set in a SQLite database, for setups
// that want to query their posting history with real tooling.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the processed_postings table exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	createTable := `CREATE TABLE IF NOT EXISTS processed_postings (
		identity   TEXT PRIMARY KEY,
		first_seen TEXT NOT NULL,
		title      TEXT NOT NULL DEFAULT '',
		source     TEXT NOT NULL DEFAULT ''
	)`
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating processed_postings table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Load reads every stored identity into a processed set.
func (s *SQLiteStore) Load() (*dedup.ProcessedSet, error) {
	rows, err := s.db.Query("SELECT identity, first_seen, title, source FROM processed_postings")
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	defer rows.Close()

	entries := make(map[model.Identity]dedup.Entry)
	for rows.Next() {
		var id, firstSeen, title, source string
		if err := rows.Scan(&id, &firstSeen, &title, &source); err != nil {
			return nil, fmt.Errorf("scan state row: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, firstSeen)
		if err != nil {
			return nil, fmt.Errorf("parse first_seen for %s: %w", id, err)
		}
		entries[model.Identity(id)] = dedup.Entry{FirstSeen: ts, Title: title, Source: source}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	return dedup.FromEntries(entries), nil
}

// Save replaces the stored set with the given one in a single transaction,
// so a load after save returns exactly what was saved.
func (s *SQLiteStore) Save(set *dedup.ProcessedSet) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM processed_postings"); err != nil {
		return fmt.Errorf("clear state: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO processed_postings (identity, first_seen, title, source) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare state insert: %w", err)
	}
	defer stmt.Close()

	for id, e := range set.Entries() {
		ts := e.FirstSeen.UTC().Format(time.RFC3339Nano)
		if _, err := stmt.Exec(string(id), ts, e.Title, e.Source); err != nil {
			return fmt.Errorf("insert state for %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit state: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
