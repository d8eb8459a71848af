package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/renameio"
	"github.com/google/uuid"
)

// ErrNotFound is returned by Get for an unknown ID.
var ErrNotFound = errors.New("history entry not found")

// Log stores entries as JSON files in a directory.
type Log struct {
	dir string
	mu  sync.Mutex
}

// New returns a Log rooted at dir. The directory is created on the first
// Record.
func New(dir string) (*Log, error) {
	if dir == "" {
		return nil, errors.New("history directory cannot be empty")
	}
	return &Log{dir: dir}, nil
}

// Dir returns the directory entries are stored in.
func (l *Log) Dir() string {
	return l.dir
}

// Record assigns an ID and timestamp to entry and writes it.
func (l *Log) Record(entry *Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	entry.ID = newID(entry.Operation, entry.Timestamp)

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("creating history directory: %w", err)
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding history entry: %w", err)
	}

	path := filepath.Join(l.dir, entry.ID+".json")
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing history entry: %w", err)
	}
	return nil
}

// List returns entries newest first. A limit of 0 or less returns all.
func (l *Log) List(limit int) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := []Entry{}
	err := l.each(func(e *Entry) bool {
		entries = append(entries, *e)
		return true
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(entries, func(a, b Entry) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Get returns the entry with the given ID. A unique ID prefix is
// accepted.
func (l *Log) Get(id string) (*Entry, error) {
	if id == "" {
		return nil, errors.New("entry ID cannot be empty")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var found []*Entry
	err := l.each(func(e *Entry) bool {
		if e.ID == id {
			found = []*Entry{e}
			return false
		}
		if strings.HasPrefix(e.ID, id) {
			found = append(found, e)
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("ambiguous entry ID %q matches %d entries", id, len(found))
	}
}

// Cleanup removes entries older than retentionDays and returns how many
// were removed.
func (l *Log) Cleanup(retentionDays int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	files, err := os.ReadDir(l.dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading history directory: %w", err)
	}

	removed := 0
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		info, err := f.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(l.dir, f.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

// each calls fn for every readable entry until fn returns false.
// Unparseable files are skipped. Must be called with l.mu held.
func (l *Log) each(fn func(*Entry) bool) error {
	files, err := os.ReadDir(l.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading history directory: %w", err)
	}

	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(l.dir, f.Name()))
		if err != nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}
		if !fn(&entry) {
			return nil
		}
	}
	return nil
}

// newID returns an ID like "check-2026-01-20T15-04-05-1b4e28ba".
func newID(op Operation, ts time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%s-%s", op, ts.UTC().Format("2006-01-02T15-04-05"), suffix)
}
