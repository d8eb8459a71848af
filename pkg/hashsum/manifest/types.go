// Package manifest reads and writes checksum manifests: text files that
// list one upper-case hex digest and file path per line, optionally
// preceded by "#" comments.
//
//	# release 1.2
//
//	5D41402ABC4B2A76B9719D911017C592 *a.txt
//	7D793037A0760186574B0282F2F435E7 *docs/b.txt
//
// Paths inside the manifest's directory are stored relative to it with
// forward slashes; other paths are stored absolute. The digest algorithm
// is taken from the manifest file extension unless given explicitly.
package manifest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/hashsum/pkg/hashsum/digest"
)

var (
	// ErrMalformedEntry is returned for a line that has the shape of an
	// entry but cannot be used, such as one with an empty path.
	ErrMalformedEntry = errors.New("malformed manifest entry")

	// ErrIncompleteDigestSet is matched by *IncompleteDigestSetError.
	ErrIncompleteDigestSet = errors.New("incomplete digest set")
)

// IncompleteDigestSetError is returned when a manifest would be written
// while some files could not be digested.
type IncompleteDigestSetError struct {
	// Files are the unreadable files, in manifest order.
	Files []string
}

// FilesInaccessible returns the error reported for unreadable inputs.
func FilesInaccessible(files []string) *IncompleteDigestSetError {
	return &IncompleteDigestSetError{Files: files}
}

func (e *IncompleteDigestSetError) Error() string {
	return fmt.Sprintf("%d file(s) inaccessible: %s", len(e.Files), strings.Join(e.Files, ", "))
}

// Is makes errors.Is(err, ErrIncompleteDigestSet) succeed.
func (e *IncompleteDigestSetError) Is(target error) bool {
	return target == ErrIncompleteDigestSet
}

// Entry is one manifest line.
type Entry struct {
	// Digest is the upper-case hex digest. It is empty for a file whose
	// digest could not be computed.
	Digest string `json:"digest" yaml:"digest"`

	// Path is the resolved absolute path of the file.
	Path string `json:"path" yaml:"path"`
}

// Manifest is a parsed or freshly computed manifest. All entries share
// one algorithm.
type Manifest struct {
	// Path is the resolved location of the manifest file.
	Path string

	// Algorithm is the digest algorithm of every entry.
	Algorithm digest.Algorithm

	// Length is the digest length in bytes for extendable algorithms.
	// Zero for fixed-size algorithms and for loaded manifests where the
	// length was not given; see EntryLength.
	Length int

	// Comments are the comment texts without the leading "# ".
	Comments []string

	// Entries are the manifest lines in order. Duplicates are kept.
	Entries []Entry

	// AllowUpward writes paths outside the manifest directory with ".."
	// components instead of absolute paths.
	AllowUpward bool
}

// Dir returns the directory relative entry paths are resolved against.
func (m *Manifest) Dir() string {
	return filepath.Dir(m.Path)
}

// Files returns the entry paths in order.
func (m *Manifest) Files() []string {
	files := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		files[i] = e.Path
	}
	return files
}

// Missing returns the paths of entries without a digest.
func (m *Manifest) Missing() []string {
	var missing []string
	for _, e := range m.Entries {
		if e.Digest == "" {
			missing = append(missing, e.Path)
		}
	}
	return missing
}

// EntryLength returns the output length to use when recomputing the
// digest of e. For extendable algorithms without an explicit Length it is
// derived from the recorded digest.
func (m *Manifest) EntryLength(e Entry) int {
	if !m.Algorithm.Extendable() {
		return 0
	}
	if m.Length > 0 {
		return m.Length
	}
	return len(e.Digest) / 2
}

// AlgorithmFor returns the algorithm for a manifest at path: explicit
// when given, else inferred from the file extension.
func AlgorithmFor(path, explicit string) (digest.Algorithm, error) {
	if explicit != "" {
		return digest.ParseAlgorithm(explicit)
	}
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension to infer one from", digest.ErrUnsupportedAlgorithm, filepath.Base(path))
	}
	return digest.ParseAlgorithm(ext)
}

// SplitHeader turns free header text into comment lines. A leading "#"
// and one following space are removed from each line.
func SplitHeader(header string) []string {
	if header == "" {
		return nil
	}
	lines := strings.Split(strings.ReplaceAll(header, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = stripComment(line)
	}
	return lines
}

func stripComment(line string) string {
	line = strings.TrimPrefix(line, "#")
	return strings.TrimPrefix(line, " ")
}
