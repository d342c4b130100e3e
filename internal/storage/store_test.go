package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewCreatesDirectoryRoots(t *testing.T) {
	root := t.TempDir()
	if _, err := New(root); err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for _, dir := range []string{"notes", "reminders", "alarms", "screenshots", "music"} {
		info, err := os.Stat(filepath.Join(root, dir))
		if err != nil || !info.IsDir() {
			t.Fatalf("directory %s was not created: %v", dir, err)
		}
	}
}

func TestSaveNoteWritesExactText(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	path, err := s.SaveNote("buy milk")
	if err != nil {
		t.Fatalf("SaveNote() error = %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read note: %v", err)
	}
	if string(raw) != "buy milk" {
		t.Fatalf("note content = %q, want %q", raw, "buy milk")
	}
	if !strings.HasPrefix(filepath.Base(path), "note_") {
		t.Fatalf("note file name = %q, want note_ prefix", filepath.Base(path))
	}
}

func TestSaveNoteRejectsEmptyText(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := s.SaveNote("   "); err == nil {
		t.Fatalf("SaveNote() should reject whitespace-only text")
	}
}

func TestSameSecondNotesDoNotClobber(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	frozen := time.Date(2026, time.May, 4, 12, 0, 0, 0, time.UTC)
	s.SetNowFunc(func() time.Time { return frozen })

	first, err := s.SaveNote("one")
	if err != nil {
		t.Fatalf("SaveNote() error = %v", err)
	}
	second, err := s.SaveNote("two")
	if err != nil {
		t.Fatalf("SaveNote() error = %v", err)
	}
	if first == second {
		t.Fatalf("same-second notes share path %q", first)
	}

	notes, err := s.ListNotes()
	if err != nil {
		t.Fatalf("ListNotes() error = %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("ListNotes() returned %d entries, want 2", len(notes))
	}
	if notes[0].Text != "one" || notes[1].Text != "two" {
		t.Fatalf("ListNotes() = %+v", notes)
	}
}

func TestRemindersAreSeparateFromNotes(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := s.SaveReminder("call the dentist"); err != nil {
		t.Fatalf("SaveReminder() error = %v", err)
	}

	notes, err := s.ListNotes()
	if err != nil {
		t.Fatalf("ListNotes() error = %v", err)
	}
	if len(notes) != 0 {
		t.Fatalf("ListNotes() = %+v, want empty", notes)
	}
	reminders, err := s.ListReminders()
	if err != nil {
		t.Fatalf("ListReminders() error = %v", err)
	}
	if len(reminders) != 1 || reminders[0].Text != "call the dentist" {
		t.Fatalf("ListReminders() = %+v", reminders)
	}
}
