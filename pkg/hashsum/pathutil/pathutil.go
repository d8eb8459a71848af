// Package pathutil provides the path primitives the manifest code relies
// on. Paths stay plain strings; every function returns a new value.
package pathutil

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotRelative is returned by RelativeTo when target cannot be
// expressed relative to base under the requested rules.
var ErrNotRelative = errors.New("path is not relative to base")

// maxLineSize bounds a single line read by Lines.
const maxLineSize = 1024 * 1024

// Resolve returns the absolute, symlink-free form of path. Paths that do
// not exist are still resolved: the deepest existing ancestor is
// evaluated and the remaining components are appended unchanged.
func Resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}

	var rest []string
	current := abs
	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...), nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return abs, nil
		}
		rest = append([]string{filepath.Base(current)}, rest...)
		current = parent
	}
}

// IsAbs reports whether path is absolute.
func IsAbs(path string) bool {
	return filepath.IsAbs(path)
}

// RelativeTo returns target relative to base in POSIX form. Unless
// allowUpward is set, target must lie inside base; otherwise ".."
// components are permitted. Both paths should already be resolved.
func RelativeTo(target, base string, allowUpward bool) (string, error) {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return "", fmt.Errorf("%w: %s from %s", ErrNotRelative, target, base)
	}
	if !allowUpward && (rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
		return "", fmt.Errorf("%w: %s is outside %s", ErrNotRelative, target, base)
	}
	return filepath.ToSlash(rel), nil
}

// Parent returns the directory containing path.
func Parent(path string) string {
	return filepath.Dir(path)
}

// Suffix returns the final extension of path including the dot, or ""
// when there is none.
func Suffix(path string) string {
	return filepath.Ext(path)
}

// WithSuffix returns path with suffix appended when it has no extension.
func WithSuffix(path, suffix string) string {
	if Suffix(path) != "" {
		return path
	}
	return path + "." + strings.TrimPrefix(suffix, ".")
}

// Exists reports whether anything exists at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsFile reports whether path is a regular file.
func IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// ModTime returns the modification time of path in nanoseconds.
func ModTime(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.ModTime().UnixNano(), nil
}

// Lines streams the UTF-8 lines of the file at path with the line
// terminator removed. The file is opened when iteration starts and is
// closed when it ends, including on early break. A failure is yielded
// once as the error of the final pair.
func Lines(path string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		f, err := os.Open(path)
		if err != nil {
			yield("", err)
			return
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			if !yield(scanner.Text(), nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield("", fmt.Errorf("reading %s: %w", path, err))
		}
	}
}

// IsAccessError reports whether err is a not-found or permission error.
func IsAccessError(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission)
}
