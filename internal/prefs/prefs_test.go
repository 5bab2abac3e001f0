// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prefs

import (
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "prefs.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetSet(t *testing.T) {
	s := openTestStore(t)

	if err := s.Set(KeyTheme, "dark"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	value, err := s.Get(KeyTheme)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if value != "dark" {
		t.Errorf("Get() = %q, want dark", value)
	}
}

func TestGet_Missing(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.Get("no.such.key"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestSet_Overwrite(t *testing.T) {
	s := openTestStore(t)

	if err := s.Set(KeyTheme, "light"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(KeyTheme, "dark"); err != nil {
		t.Fatal(err)
	}

	if got := s.GetString(KeyTheme, ""); got != "dark" {
		t.Errorf("GetString() = %q, want dark", got)
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)

	if err := s.Set(KeyLastChatID, "chat_abc"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(KeyLastChatID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(KeyLastChatID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted key should be gone, got %v", err)
	}

	// Deleting a missing key is a no-op
	if err := s.Delete("never.set"); err != nil {
		t.Errorf("Delete() on missing key error = %v", err)
	}
}

func TestTypedHelpers(t *testing.T) {
	s := openTestStore(t)

	if got := s.GetBool(KeySidebarVisible, true); !got {
		t.Error("unset bool should return fallback")
	}
	if err := s.SetBool(KeySidebarVisible, false); err != nil {
		t.Fatal(err)
	}
	if got := s.GetBool(KeySidebarVisible, true); got {
		t.Error("GetBool() = true, want false")
	}

	if got := s.GetInt(KeySidebarWidth, 32); got != 32 {
		t.Errorf("unset int fallback = %d, want 32", got)
	}
	if err := s.SetInt(KeySidebarWidth, 48); err != nil {
		t.Fatal(err)
	}
	if got := s.GetInt(KeySidebarWidth, 32); got != 48 {
		t.Errorf("GetInt() = %d, want 48", got)
	}

	// Corrupt values fall back
	if err := s.Set(KeySidebarWidth, "wide"); err != nil {
		t.Fatal(err)
	}
	if got := s.GetInt(KeySidebarWidth, 32); got != 32 {
		t.Errorf("unparsable int should return fallback, got %d", got)
	}
}

func TestClosedStore(t *testing.T) {
	s := openTestStore(t)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Get(KeyTheme); !errors.Is(err, ErrClosed) {
		t.Errorf("Get() on closed store error = %v, want ErrClosed", err)
	}
	if err := s.Set(KeyTheme, "dark"); !errors.Is(err, ErrClosed) {
		t.Errorf("Set() on closed store error = %v, want ErrClosed", err)
	}
}

func TestPersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set(KeyLastThreadID, "thread-42"); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	if got := s2.GetString(KeyLastThreadID, ""); got != "thread-42" {
		t.Errorf("persisted value = %q, want thread-42", got)
	}
}
