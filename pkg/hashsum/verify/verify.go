// Package verify recomputes the digests listed in a manifest and sorts
// the entries into matched, modified and missing.
package verify

import (
	"fmt"
	"iter"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jamesainslie/hashsum/pkg/hashsum/apply"
	"github.com/jamesainslie/hashsum/pkg/hashsum/cache"
	"github.com/jamesainslie/hashsum/pkg/hashsum/digest"
	"github.com/jamesainslie/hashsum/pkg/hashsum/logging"
	"github.com/jamesainslie/hashsum/pkg/hashsum/manifest"
	"github.com/jamesainslie/hashsum/pkg/hashsum/pathutil"
)

// Options configures verification. Zero values defer to the manifest.
type Options struct {
	// Algorithm overrides the manifest's algorithm.
	Algorithm string

	// Length overrides the output length for extendable algorithms. When
	// zero it is taken from the manifest or, failing that, from each
	// recorded digest.
	Length int

	// ChunkSize is the read size; 0 uses digest.DefaultChunkSize.
	ChunkSize int

	// Workers bounds concurrent digests; 0 sizes the pool automatically.
	Workers int

	// Cache, if set, memoizes digests across verifications.
	Cache *cache.Cache

	// OnProgress is passed to apply.Apply.
	OnProgress func(done, total int)
}

// Verifier classifies the entries of one manifest. The files are hashed
// once, on first use of any accessor, and the result is shared by all of
// them for the Verifier's lifetime.
type Verifier struct {
	manifest *manifest.Manifest
	opts     Options
	adhoc    bool

	once     sync.Once
	outcomes []Outcome
	err      error
	elapsed  time.Duration
}

// New returns a Verifier for m.
func New(m *manifest.Manifest, opts Options) *Verifier {
	return &Verifier{manifest: m, opts: opts}
}

// NewFiles returns a Verifier for an ad hoc file list. There is nothing
// recorded to compare against: every readable file is Matched and every
// unreadable one Missing.
func NewFiles(files []string, opts Options) (*Verifier, error) {
	alg, err := manifest.AlgorithmFor("", opts.Algorithm)
	if err != nil {
		return nil, err
	}
	entries := make([]manifest.Entry, len(files))
	for i, f := range files {
		resolved, err := pathutil.Resolve(f)
		if err != nil {
			return nil, err
		}
		entries[i] = manifest.Entry{Path: resolved}
	}
	m := &manifest.Manifest{Algorithm: alg, Length: opts.Length, Entries: entries}
	return &Verifier{manifest: m, opts: opts, adhoc: true}, nil
}

// Manifest returns the manifest being verified.
func (v *Verifier) Manifest() *manifest.Manifest {
	return v.manifest
}

// Outcomes returns one outcome per entry, in manifest order.
func (v *Verifier) Outcomes() ([]Outcome, error) {
	v.once.Do(v.classify)
	return v.outcomes, v.err
}

// Err returns the error that stopped classification, if any.
func (v *Verifier) Err() error {
	v.once.Do(v.classify)
	return v.err
}

// Matched yields the paths whose digest is unchanged.
//
// Matched, Modified and Missing yield nothing when classification fails.
// Callers must check Err after ranging, the way bufio.Scanner callers
// check Err after Scan returns false.
func (v *Verifier) Matched() iter.Seq[string] { return v.paths(Matched) }

// Modified yields the paths whose digest changed. See Matched for error
// handling.
func (v *Verifier) Modified() iter.Seq[string] { return v.paths(Modified) }

// Missing yields the paths that could not be read. See Matched for error
// handling.
func (v *Verifier) Missing() iter.Seq[string] { return v.paths(Missing) }

func (v *Verifier) paths(status Status) iter.Seq[string] {
	return func(yield func(string) bool) {
		outcomes, err := v.Outcomes()
		if err != nil {
			return
		}
		for _, o := range outcomes {
			if o.Status == status && !yield(o.Path) {
				return
			}
		}
	}
}

// Report returns the classification as a Report.
func (v *Verifier) Report() (*Report, error) {
	outcomes, err := v.Outcomes()
	if err != nil {
		return nil, err
	}

	r := &Report{
		Manifest:  v.manifest.Path,
		Algorithm: v.algorithm(),
		Outcomes:  outcomes,
		Matched:   []string{},
		Modified:  []string{},
		Missing:   []string{},
		Elapsed:   v.elapsed,
	}
	for _, o := range outcomes {
		r.Bytes += o.Size
		switch o.Status {
		case Matched:
			r.Matched = append(r.Matched, o.Path)
		case Modified:
			r.Modified = append(r.Modified, o.Path)
		case Missing:
			r.Missing = append(r.Missing, o.Path)
		}
	}
	return r, nil
}

func (v *Verifier) algorithm() digest.Algorithm {
	if v.opts.Algorithm != "" {
		if alg, err := digest.ParseAlgorithm(v.opts.Algorithm); err == nil {
			return alg
		}
	}
	return v.manifest.Algorithm
}

// entryLength returns the output length for e under alg.
func (v *Verifier) entryLength(alg digest.Algorithm, e manifest.Entry) int {
	switch {
	case !alg.Extendable():
		return 0
	case v.opts.Length > 0:
		return v.opts.Length
	case v.manifest.Length > 0:
		return v.manifest.Length
	default:
		return len(e.Digest) / 2
	}
}

type fileDigest struct {
	hex  string
	size int64
}

func (v *Verifier) classify() {
	start := time.Now()
	log := logging.Get("verify")

	alg := v.manifest.Algorithm
	if v.opts.Algorithm != "" {
		parsed, err := digest.ParseAlgorithm(v.opts.Algorithm)
		if err != nil {
			v.err = err
			return
		}
		alg = parsed
	}
	if alg == "" {
		v.err = fmt.Errorf("%w: no algorithm for %s", digest.ErrUnsupportedAlgorithm, v.manifest.Path)
		return
	}

	entries := v.manifest.Entries

	// Extendable outputs are prefixes of longer outputs, so each path is
	// hashed once at the longest length any of its entries needs.
	lengths := make(map[string]int, len(entries))
	var paths []string
	for _, e := range entries {
		n, seen := lengths[e.Path]
		if !seen {
			paths = append(paths, e.Path)
		}
		lengths[e.Path] = max(n, v.entryLength(alg, e))
	}

	results, err := apply.Apply(paths, func(path string) (fileDigest, error) {
		hex, err := v.opts.Cache.Digest(path, digest.Options{
			Algorithm: string(alg),
			ChunkSize: v.opts.ChunkSize,
			Length:    lengths[path],
		})
		if err != nil {
			return fileDigest{}, err
		}
		info, err := os.Stat(path)
		if err != nil {
			return fileDigest{}, err
		}
		return fileDigest{hex: strings.ToUpper(hex), size: info.Size()}, nil
	}, apply.Options{Workers: v.opts.Workers, OnProgress: v.opts.OnProgress})
	if err != nil {
		v.err = err
		return
	}

	byPath := make(map[string]apply.Result[fileDigest], len(results))
	for _, r := range results {
		byPath[r.Path] = r
	}

	v.outcomes = make([]Outcome, len(entries))
	for i, e := range entries {
		r := byPath[e.Path]
		o := Outcome{Path: e.Path, Recorded: strings.ToUpper(e.Digest)}

		switch {
		case !r.Ok():
			o.Status = Missing
			o.Err = r.Err
		default:
			o.Size = r.Value.size
			o.Actual = r.Value.hex
			if n := v.entryLength(alg, e); n > 0 && len(o.Actual) > 2*n {
				o.Actual = o.Actual[:2*n]
			}
			if v.adhoc {
				o.Recorded = o.Actual
			}
			if o.Actual == o.Recorded {
				o.Status = Matched
			} else {
				o.Status = Modified
			}
		}
		v.outcomes[i] = o
	}

	v.elapsed = time.Since(start)
	log.Debug("classified entries", "manifest", v.manifest.Path, "entries", len(entries), "elapsed", v.elapsed)
}
