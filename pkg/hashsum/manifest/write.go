package manifest

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/google/renameio"

	"github.com/jamesainslie/hashsum/pkg/hashsum/pathutil"
)

// WriteTo writes the manifest text: comments, a blank line when there
// are comments, then one "DIGEST *path" line per entry. It fails with
// *IncompleteDigestSetError if any entry lacks a digest.
func (m *Manifest) WriteTo(w io.Writer) (int64, error) {
	if missing := m.Missing(); len(missing) > 0 {
		return 0, FilesInaccessible(missing)
	}

	cw := &countingWriter{w: bufio.NewWriter(w)}
	for _, comment := range m.Comments {
		fmt.Fprintf(cw, "# %s\n", comment)
	}
	if len(m.Comments) > 0 {
		io.WriteString(cw, "\n")
	}
	for _, e := range m.Entries {
		fmt.Fprintf(cw, "%s *%s\n", strings.ToUpper(e.Digest), m.displayPath(e.Path))
	}

	if cw.err != nil {
		return cw.n, cw.err
	}
	return cw.n, cw.w.Flush()
}

// MarshalText returns the manifest text.
func (m *Manifest) MarshalText() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileMode is the permission of saved manifests.
const FileMode = 0o644

// Save writes the manifest to m.Path, replacing any existing file
// atomically. Nothing is written when an entry lacks a digest.
func (m *Manifest) Save() error {
	if missing := m.Missing(); len(missing) > 0 {
		return FilesInaccessible(missing)
	}

	pending, err := renameio.TempFile("", m.Path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", m.Path, err)
	}
	defer pending.Cleanup()

	if _, err := m.WriteTo(pending); err != nil {
		return fmt.Errorf("writing %s: %w", m.Path, err)
	}
	if err := pending.Chmod(FileMode); err != nil {
		return fmt.Errorf("setting mode of %s: %w", m.Path, err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replacing %s: %w", m.Path, err)
	}
	return nil
}

// displayPath is the form of path written into the manifest.
func (m *Manifest) displayPath(path string) string {
	if rel, err := pathutil.RelativeTo(path, m.Dir(), m.AllowUpward); err == nil {
		return rel
	}
	return path
}

type countingWriter struct {
	w   *bufio.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}
