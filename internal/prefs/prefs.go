// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prefs persists UI preferences across sessions.
//
// Preferences that the user toggles at runtime (theme, sidebar state,
// last selected chat) are stored in a small SQLite database under
// ~/.medinsight, separate from the hand-edited TOML config.
package prefs

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrNotFound = errors.New("preference not found")
	ErrClosed   = errors.New("preference store closed")
)

// =============================================================================
// WELL-KNOWN KEYS
// =============================================================================

// Preference keys used by the TUI.
const (
	KeyTheme          = "ui.theme"
	KeySidebarVisible = "ui.sidebar_visible"
	KeySidebarWidth   = "ui.sidebar_width"
	KeyShowSteps      = "ui.show_steps"
	KeyLastChatID     = "session.last_chat_id"
	KeyLastThreadID   = "session.last_thread_id"
)

// =============================================================================
// STORE
// =============================================================================

// Schema is the preference table definition.
const schema = `
CREATE TABLE IF NOT EXISTS prefs (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// Store is a SQLite-backed key-value preference store.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the default preference database path
// (~/.medinsight/prefs.db).
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".medinsight", "prefs.db"), nil
}

// Open opens (or creates) the preference database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create preference directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open preference database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize preference schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// =============================================================================
// RAW ACCESS
// =============================================================================

// Get returns the raw string value for key.
func (s *Store) Get(key string) (string, error) {
	if s.db == nil {
		return "", ErrClosed
	}

	var value string
	err := s.db.QueryRow("SELECT value FROM prefs WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// Set stores the raw string value for key, replacing any previous value.
func (s *Store) Set(key, value string) error {
	if s.db == nil {
		return ErrClosed
	}

	_, err := s.db.Exec(`
		INSERT INTO prefs (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().Unix())
	return err
}

// Delete removes a preference. Deleting a missing key is a no-op.
func (s *Store) Delete(key string) error {
	if s.db == nil {
		return ErrClosed
	}
	_, err := s.db.Exec("DELETE FROM prefs WHERE key = ?", key)
	return err
}

// =============================================================================
// TYPED HELPERS
// =============================================================================

// GetString returns the value for key, or fallback when unset.
func (s *Store) GetString(key, fallback string) string {
	value, err := s.Get(key)
	if err != nil {
		return fallback
	}
	return value
}

// GetBool returns the boolean value for key, or fallback when unset or
// unparsable.
func (s *Store) GetBool(key string, fallback bool) bool {
	value, err := s.Get(key)
	if err != nil {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}

// SetBool stores a boolean value for key.
func (s *Store) SetBool(key string, value bool) error {
	return s.Set(key, strconv.FormatBool(value))
}

// GetInt returns the integer value for key, or fallback when unset or
// unparsable.
func (s *Store) GetInt(key string, fallback int) int {
	value, err := s.Get(key)
	if err != nil {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

// SetInt stores an integer value for key.
func (s *Store) SetInt(key string, value int) error {
	return s.Set(key, strconv.Itoa(value))
}
