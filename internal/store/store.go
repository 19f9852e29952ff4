// Package store persists dashboard, widget and template metadata in
// SQLite. The clinical data itself lives in the analytical engine;
// this store only holds definitions.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store is the SQLite-backed metadata store.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// New creates a Store. Call Open before use.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{logger: logger}
}

// Open opens the SQLite database and runs pending migrations.
// Use ":memory:" for an in-memory database.
func (s *Store) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
	} else {
		dsn = ":memory:?_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open metadata database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping metadata database: %w", err)
	}

	s.db = db
	s.path = path
	if err := s.Migrate(); err != nil {
		db.Close()
		s.db = nil
		return err
	}
	s.logger.Debug("metadata store opened", "path", path)
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}
