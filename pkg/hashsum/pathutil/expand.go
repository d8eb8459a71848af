package pathutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
	"github.com/gobwas/glob"
)

// ExpandOptions controls how command-line inputs become a file list.
type ExpandOptions struct {
	// Exclude contains patterns for paths to skip. A pattern matches a
	// path equal to it, a path below it, or (as a glob) the base name or
	// the slash-separated full path. "**" crosses directory boundaries.
	Exclude []string

	// Recursive descends into directories. Without it directories are
	// passed through unchanged and later reported as inaccessible.
	Recursive bool
}

// Expand turns arguments into an ordered list of file paths.
//
// Glob patterns are expanded (matches sorted), directories are walked
// when Recursive is set (files sorted per directory), and plain paths are
// kept even when they do not exist so callers can report them.
// Duplicates are preserved.
func Expand(args []string, opts ExpandOptions) ([]string, error) {
	exclude, err := compileExclusions(opts.Exclude)
	if err != nil {
		return nil, err
	}

	var files []string

	for _, arg := range args {
		candidates := []string{arg}
		if hasMeta(arg) {
			matches, err := Glob(arg)
			if err != nil {
				return nil, err
			}
			candidates = matches
		}

		for _, path := range candidates {
			if exclude.match(path) {
				continue
			}

			info, err := os.Stat(path)
			if err == nil && info.IsDir() && opts.Recursive {
				found, err := walkFiles(path, exclude)
				if err != nil {
					return nil, err
				}
				files = append(files, found...)
				continue
			}
			files = append(files, path)
		}
	}

	return files, nil
}

// Glob returns the paths matching pattern in lexical order. A pattern
// without glob metacharacters matches itself only if it exists.
func Glob(pattern string) ([]string, error) {
	if !hasMeta(pattern) {
		if Exists(pattern) {
			return []string{pattern}, nil
		}
		return nil, nil
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	return matches, nil
}

// walkFiles collects the regular files below root with fastwalk. The
// callback runs on several goroutines, so collection is locked and the
// result sorted afterwards.
func walkFiles(root string, exclude exclusions) ([]string, error) {
	var (
		mu    sync.Mutex
		files []string
	)

	conf := fastwalk.Config{
		Follow: false,
	}

	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped; their files never
			// become inputs.
			return nil
		}
		if exclude.match(path) {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			mu.Lock()
			files = append(files, path)
			mu.Unlock()
		}
		return nil
	})
	if err != nil && !errors.Is(err, fastwalk.ErrSkipFiles) {
		return nil, err
	}

	slices.Sort(files)
	return files, nil
}

func hasMeta(path string) bool {
	return strings.ContainsAny(path, `*?[`)
}

type exclusion struct {
	prefix string
	glob   glob.Glob
}

type exclusions []exclusion

func compileExclusions(patterns []string) (exclusions, error) {
	var out exclusions
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		g, err := glob.Compile(filepath.ToSlash(pattern), '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		out = append(out, exclusion{prefix: filepath.Clean(pattern), glob: g})
	}
	return out, nil
}

func (e exclusions) match(path string) bool {
	for _, x := range e {
		if x.match(path) {
			return true
		}
	}
	return false
}

func (x exclusion) match(path string) bool {
	if path == x.prefix || strings.HasPrefix(path, x.prefix+string(filepath.Separator)) {
		return true
	}
	return x.glob.Match(filepath.Base(path)) || x.glob.Match(filepath.ToSlash(path))
}
