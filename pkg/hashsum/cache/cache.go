// Package cache memoizes per-file operation results keyed by the file's
// resolved path and modification time. A changed modification time
// discards every cached result for that path. Results can optionally be
// persisted in a Badger store so they survive across runs.
package cache

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/vmihailenco/msgpack"

	"github.com/jamesainslie/hashsum/pkg/hashsum/digest"
	"github.com/jamesainslie/hashsum/pkg/hashsum/logging"
	"github.com/jamesainslie/hashsum/pkg/hashsum/pathutil"
)

// Operation names used as the middle level of the cache.
const (
	OpDigest   = "digest"
	OpEOLCount = "eol_count"
)

// Stats are cumulative counters for one Cache.
type Stats struct {
	// Hits counts calls answered from memory or the persistent store.
	Hits int64 `json:"hits"`

	// Misses counts calls that ran the operation.
	Misses int64 `json:"misses"`

	// Invalidations counts per-path entries dropped because the file's
	// modification time changed.
	Invalidations int64 `json:"invalidations"`

	// Paths is the number of files currently held in memory.
	Paths int `json:"paths"`
}

// pathEntry holds every cached result for one file.
type pathEntry struct {
	mtime int64
	ops   map[string]map[string][]byte
}

// Cache is safe for concurrent use. A nil *Cache is valid and caches
// nothing.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*pathEntry
	store   *Store

	hits          atomic.Int64
	misses        atomic.Int64
	invalidations atomic.Int64

	log *logging.Logger
}

// New returns an in-memory cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]*pathEntry),
		log:     logging.Get("cache"),
	}
}

// Open returns a cache backed by a persistent store in dir.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	store, err := OpenStore(dir)
	if err != nil {
		return nil, fmt.Errorf("opening cache store: %w", err)
	}

	c := New()
	c.store = store
	c.log.Debug("opened persistent cache", "dir", dir)
	return c, nil
}

// Close releases the persistent store, if any.
func (c *Cache) Close() error {
	if c == nil || c.store == nil {
		return nil
	}
	return c.store.Close()
}

// Persistent reports whether results are written to disk.
func (c *Cache) Persistent() bool {
	return c != nil && c.store != nil
}

// Store returns the persistent store, or nil for a memory-only cache.
func (c *Cache) Store() *Store {
	if c == nil {
		return nil
	}
	return c.store
}

// Digest returns digest.File(path, opts), cached. The chunk size does
// not take part in the key since it cannot change the result.
func (c *Cache) Digest(path string, opts digest.Options) (string, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return "", err
	}
	args := Args{"algorithm": opts.Algorithm, "length": opts.Length}
	return Do(c, path, OpDigest, args, func(p string) (string, error) {
		return digest.File(p, opts)
	})
}

// EOLCount returns digest.EOLCount(path, eol, chunkSize), cached.
func (c *Cache) EOLCount(path, eol string, chunkSize int) (int64, error) {
	if eol == "" {
		eol = digest.DefaultEOL
	}
	return Do(c, path, OpEOLCount, Args{"eol": fmt.Sprintf("%q", eol)}, func(p string) (int64, error) {
		return digest.EOLCount(p, eol, chunkSize)
	})
}

// Do returns the cached result of op(path) for args, computing it with
// fn on a miss. The file is stat'd on every call; when its modification
// time differs from the one recorded for the path, all results for the
// path are discarded first. Errors from fn are never cached.
func Do[T any](c *Cache, path, op string, args Args, fn func(path string) (T, error)) (T, error) {
	if c == nil {
		return fn(path)
	}

	resolved, err := pathutil.Resolve(path)
	if err != nil {
		return fn(path)
	}

	current, err := currentStamp(resolved)
	if err != nil {
		// The operation reports the access error itself; anything cached
		// for a file that vanished is no longer valid.
		c.Invalidate(resolved)
		return fn(path)
	}

	key := args.Canonical()
	if data, ok := c.lookup(resolved, op, key, current); ok {
		var value T
		if err := msgpack.Unmarshal(data, &value); err == nil {
			c.hits.Add(1)
			return value, nil
		}
		c.log.Warn("discarding undecodable cache value", "path", resolved, "op", op)
	}

	c.misses.Add(1)
	value, err := fn(path)
	if err != nil {
		return value, err
	}

	data, err := msgpack.Marshal(value)
	if err != nil {
		return value, fmt.Errorf("encoding cached %s result: %w", op, err)
	}
	c.insert(resolved, op, key, current, data)
	return value, nil
}

// lookup finds a value in memory or, failing that, in the store. It
// drops stale state for the path on the way.
func (c *Cache) lookup(path, op, key string, current stamp) ([]byte, bool) {
	c.mu.Lock()
	entry := c.entries[path]
	stale := entry != nil && entry.mtime != current.mtime
	if stale {
		delete(c.entries, path)
	}
	var (
		data  []byte
		found bool
	)
	if entry != nil && !stale {
		data, found = entry.ops[op][key]
	}
	c.mu.Unlock()

	if stale {
		c.invalidations.Add(1)
		c.log.Debug("modification time changed, dropping cached results", "path", path)
		c.dropPersisted(path)
	}
	if found {
		return data, true
	}

	if c.store == nil {
		return nil, false
	}

	record, err := c.store.Get(MakeKey(path, op, key))
	switch {
	case errors.Is(err, ErrNotFound):
		return nil, false
	case err != nil:
		c.log.Warn("reading persistent cache", "path", path, "error", err)
		return nil, false
	case !current.fresh(record):
		c.invalidations.Add(1)
		c.dropPersisted(path)
		return nil, false
	}

	c.remember(path, op, key, current, record.Value)
	return record.Value, true
}

func (c *Cache) insert(path, op, key string, current stamp, data []byte) {
	c.remember(path, op, key, current, data)

	if c.store == nil {
		return
	}
	record := &Record{Version: FormatVersion, Mtime: current.mtime, Value: data}
	if err := c.store.Put(MakeKey(path, op, key), record); err != nil {
		c.log.Warn("writing persistent cache", "path", path, "error", err)
	}
}

func (c *Cache) remember(path, op, key string, current stamp, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := c.entries[path]
	if entry == nil || entry.mtime != current.mtime {
		entry = &pathEntry{mtime: current.mtime, ops: make(map[string]map[string][]byte)}
		c.entries[path] = entry
	}
	if entry.ops[op] == nil {
		entry.ops[op] = make(map[string][]byte)
	}
	entry.ops[op][key] = data
}

func (c *Cache) dropPersisted(path string) {
	if c.store == nil {
		return
	}
	if err := c.store.DeletePrefix(MakeKeyPrefix(path)); err != nil {
		c.log.Warn("dropping persistent cache records", "path", path, "error", err)
	}
}

// Invalidate discards every result cached for path.
func (c *Cache) Invalidate(path string) {
	if c == nil {
		return
	}
	if resolved, err := pathutil.Resolve(path); err == nil {
		path = resolved
	}

	c.mu.Lock()
	_, ok := c.entries[path]
	delete(c.entries, path)
	c.mu.Unlock()

	if ok {
		c.invalidations.Add(1)
	}
	c.dropPersisted(path)
}

// Clear discards everything, including persisted records.
func (c *Cache) Clear() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	c.entries = make(map[string]*pathEntry)
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	return c.store.DeletePrefix(nil)
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	c.mu.Lock()
	paths := len(c.entries)
	c.mu.Unlock()

	return Stats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Invalidations: c.invalidations.Load(),
		Paths:         paths,
	}
}
