package workspace

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// Keys under which the language choices are stored
const (
	KeyTargetLanguage = "deepl.workspace.targetLanguage"
	KeySourceLanguage = "deepl.workspace.sourceLanguage"

	// Keys used by older releases, migrated on first load
	LegacyKeyTargetLanguage = "deepl.targetLanguage"
	LegacyKeySourceLanguage = "deepl.sourceLanguage"
)

// DatabaseFileName is the name of the database inside the data directory
const DatabaseFileName = "workspace.db"

// Store reads and writes the state of one workspace
type Store struct {
	mu        sync.Mutex
	db        *sql.DB
	workspace string
}

// Open opens (or creates) the database at dbPath and scopes the returned
// Store to the given workspace identifier.
func Open(dbPath, workspace string) (*Store, error) {
	if workspace == "" {
		return nil, errors.New("workspace identifier is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workspace database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &Store{db: db, workspace: workspace}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS workspace_state (
			workspace text NOT NULL,
			key text NOT NULL,
			value text NOT NULL,
			PRIMARY KEY (workspace, key)
		)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Workspace returns the identifier this store is scoped to
func (s *Store) Workspace() string {
	return s.workspace
}

// Get returns the value for key, or "" when unset
func (s *Store) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var value string
	err := s.db.QueryRow(
		`SELECT value FROM workspace_state WHERE workspace = ? AND key = ?`,
		s.workspace, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

// Update stores value under key. An empty value removes the key.
func (s *Store) Update(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if value == "" {
		_, err = s.db.Exec(
			`DELETE FROM workspace_state WHERE workspace = ? AND key = ?`,
			s.workspace, key,
		)
	} else {
		_, err = s.db.Exec(
			`INSERT INTO workspace_state (workspace, key, value) VALUES (?, ?, ?)
			 ON CONFLICT(workspace, key) DO UPDATE SET value = excluded.value`,
			s.workspace, key, value,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Close releases the database
func (s *Store) Close() error {
	return s.db.Close()
}
