package manifest

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jamesainslie/hashsum/pkg/hashsum/pathutil"
)

// entryPattern accepts the binary form "DIGEST *path" and the text form
// "DIGEST  path" written by common checksum tools.
var entryPattern = regexp.MustCompile(`^([0-9A-Fa-f]{8,}) [ *](.*)$`)

const bom = "\ufeff"

// LoadOptions configures Load.
type LoadOptions struct {
	// Algorithm overrides the algorithm inferred from the extension.
	Algorithm string

	// Length is the output length for extendable algorithms.
	Length int
}

// Load reads the manifest at path. Recorded digests are kept as they are;
// nothing is hashed.
func Load(path string, opts LoadOptions) (*Manifest, error) {
	resolved, err := pathutil.Resolve(path)
	if err != nil {
		return nil, err
	}

	alg, err := AlgorithmFor(resolved, opts.Algorithm)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(resolved)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := Parse(f, filepath.Dir(resolved))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", resolved, err)
	}
	m.Path = resolved
	m.Algorithm = alg
	m.Length = opts.Length
	return m, nil
}

// Parse reads manifest text from r. Relative entry paths are resolved
// against dir. Lines that are neither comments, blank nor entries are
// skipped. The returned manifest has no Path or Algorithm set.
func Parse(r io.Reader, dir string) (*Manifest, error) {
	m := &Manifest{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	p := parser{dir: dir}
	for scanner.Scan() {
		comment, entry, ok, err := p.line(scanner.Text())
		switch {
		case err != nil:
			return nil, err
		case !ok:
		case entry != nil:
			m.Entries = append(m.Entries, *entry)
		default:
			m.Comments = append(m.Comments, comment)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// Entries streams the entries of the manifest at path. Every iteration
// re-opens and re-parses the file, so the sequence can be ranged over
// again. A failure ends the sequence with one (Entry{}, err) pair.
func Entries(path string) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		resolved, err := pathutil.Resolve(path)
		if err != nil {
			yield(Entry{}, err)
			return
		}

		p := parser{dir: filepath.Dir(resolved)}
		for line, err := range pathutil.Lines(resolved) {
			if err != nil {
				yield(Entry{}, err)
				return
			}
			_, entry, ok, err := p.line(line)
			if err != nil {
				yield(Entry{}, fmt.Errorf("parsing %s: %w", resolved, err))
				return
			}
			if ok && entry != nil && !yield(*entry, nil) {
				return
			}
		}
	}
}

// parser classifies manifest lines one at a time.
type parser struct {
	dir    string
	lineNo int
}

// line returns either a comment (entry nil) or an entry. ok is false for
// blank and unrecognized lines.
func (p *parser) line(text string) (comment string, entry *Entry, ok bool, err error) {
	p.lineNo++
	if p.lineNo == 1 {
		text = strings.TrimPrefix(text, bom)
	}
	text = strings.TrimSuffix(text, "\r")

	if strings.HasPrefix(text, "#") {
		return stripComment(text), nil, true, nil
	}
	if strings.TrimSpace(text) == "" {
		return "", nil, false, nil
	}

	match := entryPattern.FindStringSubmatch(text)
	if match == nil {
		return "", nil, false, nil
	}
	if match[2] == "" {
		return "", nil, false, fmt.Errorf("%w: line %d has no path", ErrMalformedEntry, p.lineNo)
	}

	path, err := p.resolve(match[2])
	if err != nil {
		return "", nil, false, fmt.Errorf("%w: line %d: %w", ErrMalformedEntry, p.lineNo, err)
	}
	return "", &Entry{Digest: strings.ToUpper(match[1]), Path: path}, true, nil
}

func (p *parser) resolve(raw string) (string, error) {
	path := filepath.FromSlash(raw)
	if !filepath.IsAbs(path) {
		path = filepath.Join(p.dir, path)
	}
	return pathutil.Resolve(path)
}
