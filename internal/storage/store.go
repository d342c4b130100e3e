package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const timestampLayout = "2006-01-02_15-04-05"

// Store keeps notes and reminders as flat per-event files under a data root.
// Each artifact is write-once: there is no update or delete path.
type Store struct {
	root string
	now  func() time.Time
}

// New creates the store root and its fixed set of subdirectories.
func New(root string) (*Store, error) {
	s := &Store{root: root, now: time.Now}
	for _, dir := range []string{"notes", "reminders", "alarms", "screenshots", "music"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("create %s dir: %w", dir, err)
		}
	}
	return s, nil
}

// SetNowFunc replaces the clock used for artifact names. Test hook.
func (s *Store) SetNowFunc(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// SaveNote writes one note artifact and returns its path.
func (s *Store) SaveNote(text string) (string, error) {
	return s.saveEvent("notes", "note", text)
}

// SaveReminder writes one reminder artifact and returns its path.
func (s *Store) SaveReminder(text string) (string, error) {
	return s.saveEvent("reminders", "reminder", text)
}

func (s *Store) saveEvent(dir, prefix, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%s text is empty", prefix)
	}

	stamp := s.now().Format(timestampLayout)
	base := filepath.Join(s.root, dir, fmt.Sprintf("%s_%s", prefix, stamp))

	// Same-second events get a numbered suffix instead of clobbering.
	path := base + ".txt"
	for n := 2; ; n++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			if os.IsExist(err) {
				path = fmt.Sprintf("%s_%d.txt", base, n)
				continue
			}
			return "", fmt.Errorf("create %s file: %w", prefix, err)
		}
		_, werr := f.WriteString(text)
		cerr := f.Close()
		if werr != nil {
			return "", fmt.Errorf("write %s file: %w", prefix, werr)
		}
		if cerr != nil {
			return "", fmt.Errorf("close %s file: %w", prefix, cerr)
		}
		return path, nil
	}
}

// Entry is one persisted note or reminder.
type Entry struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// ListNotes returns all note artifacts, oldest first.
func (s *Store) ListNotes() ([]Entry, error) {
	return s.listEvents("notes")
}

// ListReminders returns all reminder artifacts, oldest first.
func (s *Store) ListReminders() ([]Entry, error) {
	return s.listEvents("reminders")
}

func (s *Store) listEvents(dir string) ([]Entry, error) {
	full := filepath.Join(s.root, dir)
	entries, err := os.ReadDir(full)
	if err != nil {
		return nil, fmt.Errorf("read %s dir: %w", dir, err)
	}

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(full, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		out = append(out, Entry{Name: e.Name(), Text: string(raw)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ScreenshotPath returns a fresh timestamped path under the screenshots root.
func (s *Store) ScreenshotPath() string {
	stamp := s.now().Format(timestampLayout)
	return filepath.Join(s.root, "screenshots", fmt.Sprintf("screenshot_%s.png", stamp))
}

// MusicDir is the directory scanned for playable tracks.
func (s *Store) MusicDir() string {
	return filepath.Join(s.root, "music")
}
