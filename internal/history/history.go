// Package history keeps a local sqlite log of catalog searches and book
// downloads. It records what the user did, never book data; the catalog
// itself is always fetched fresh.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

const (
	KindDownload = "download"
	KindSearch   = "search"
)

type Entry struct {
	ID        int64
	Kind      string
	BookID    string
	Detail    string
	CreatedAt time.Time
}

type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

func Open(dbPath string, log zerolog.Logger) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	schema := `
    CREATE TABLE IF NOT EXISTS activity (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        kind TEXT NOT NULL,
        book_id TEXT,
        detail TEXT,
        created_at INTEGER NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_activity_created_at ON activity(created_at);
    `
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}

	log.Debug().Str("path", dbPath).Msg("history database opened")
	return &Store{db: db, log: log}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// RecordDownload logs a completed download of bookID to dest.
func (s *Store) RecordDownload(bookID, dest string) error {
	_, err := s.db.Exec(
		`INSERT INTO activity (kind, book_id, detail, created_at) VALUES (?, ?, ?, ?)`,
		KindDownload, bookID, dest, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record download: %w", err)
	}
	return nil
}

// RecordSearch logs a catalog search query.
func (s *Store) RecordSearch(query string) error {
	_, err := s.db.Exec(
		`INSERT INTO activity (kind, detail, created_at) VALUES (?, ?, ?)`,
		KindSearch, query, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record search: %w", err)
	}
	return nil
}

// Recent returns the newest entries, most recent first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, kind, COALESCE(book_id, ''), COALESCE(detail, ''), created_at
         FROM activity ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.Kind, &e.BookID, &e.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.CreatedAt = time.Unix(createdAt, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
