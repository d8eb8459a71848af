// Package watch re-verifies a manifest whenever one of its files, or the
// manifest itself, changes on disk.
package watch

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jamesainslie/hashsum/pkg/hashsum/logging"
	"github.com/jamesainslie/hashsum/pkg/hashsum/pathutil"
	"github.com/jamesainslie/hashsum/pkg/hashsum/verify"
)

// DefaultDebounce is how long the watcher waits for events to settle
// before re-checking.
const DefaultDebounce = 250 * time.Millisecond

// ErrClosed is returned by Run on a closed Watcher.
var ErrClosed = errors.New("watcher closed")

// Options configure a Watcher.
type Options struct {
	// Verify is passed to every check. Set Verify.Cache so re-checks only
	// hash files that changed.
	Verify verify.Options

	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration
}

// ReportFunc receives the result of every check.
type ReportFunc func(report *verify.Report, err error)

// Watcher watches the directories holding a manifest and its entries.
type Watcher struct {
	manifest string
	opts     Options
	fsw      *fsnotify.Watcher

	mu      sync.Mutex
	dirs    map[string]bool
	targets map[string]bool
	closed  bool
}

// New creates a Watcher for the manifest at path.
func New(path string, opts Options) (*Watcher, error) {
	resolved, err := pathutil.Resolve(path)
	if err != nil {
		return nil, err
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		manifest: resolved,
		opts:     opts,
		fsw:      fsw,
		dirs:     make(map[string]bool),
		targets:  make(map[string]bool),
	}, nil
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	return w.fsw.Close()
}

// Run checks the manifest once, then again after every settled burst of
// changes, until ctx is cancelled. onReport is called after each check.
func (w *Watcher) Run(ctx context.Context, onReport ReportFunc) error {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return ErrClosed
	}

	w.check(onReport)

	log := logging.Get("watch")
	timer := time.NewTimer(w.opts.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			log.Debug("change detected", "path", event.Name, "op", event.Op.String())
			w.opts.Verify.Cache.Invalidate(event.Name)
			timer.Reset(w.opts.Debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.Error("watcher error", "error", err)

		case <-timer.C:
			w.check(onReport)
		}
	}
}

// check verifies the manifest and refreshes the watch set, since the
// manifest may have gained or lost entries. A failed check keeps the
// previous targets, so a manifest that does not exist yet is picked up
// once it is created.
func (w *Watcher) check(onReport ReportFunc) {
	report, err := verify.Check(w.manifest, w.opts.Verify)
	if err != nil {
		report = nil
	}
	w.refresh(report)
	if onReport != nil {
		onReport(report, err)
	}
}

// refresh watches the parent directory of the manifest and of every
// entry. A nil report leaves the entry targets unchanged.
func (w *Watcher) refresh(report *verify.Report) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	targets := map[string]bool{w.manifest: true}
	if report == nil {
		for path := range w.targets {
			targets[path] = true
		}
	} else {
		for _, o := range report.Outcomes {
			targets[o.Path] = true
		}
	}
	w.targets = targets

	for path := range targets {
		dir := filepath.Dir(path)
		if w.dirs[dir] {
			continue
		}
		if err := w.fsw.Add(dir); err != nil {
			// The directory may not exist yet; it is retried on the
			// next check.
			logging.Get("watch").Warn("failed to add watch", "path", dir, "error", err)
			continue
		}
		w.dirs[dir] = true
	}
}

// relevant reports whether event touches a watched file. Chmod alone
// never changes content.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.targets[filepath.Clean(event.Name)]
}

// Dirs returns the directories currently watched.
func (w *Watcher) Dirs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	dirs := make([]string, 0, len(w.dirs))
	for dir := range w.dirs {
		dirs = append(dirs, dir)
	}
	return dirs
}

// Manifest returns the resolved manifest path.
func (w *Watcher) Manifest() string {
	return w.manifest
}
