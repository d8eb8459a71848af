package manifest

import (
	"fmt"
	"strings"
	"time"

	"github.com/jamesainslie/hashsum/pkg/hashsum/apply"
	"github.com/jamesainslie/hashsum/pkg/hashsum/cache"
	"github.com/jamesainslie/hashsum/pkg/hashsum/digest"
	"github.com/jamesainslie/hashsum/pkg/hashsum/logging"
	"github.com/jamesainslie/hashsum/pkg/hashsum/pathutil"
)

// Options configures New and Compute.
type Options struct {
	// Algorithm overrides the algorithm inferred from the output name.
	Algorithm string

	// Length is the output length in bytes for extendable algorithms.
	Length int

	// ChunkSize is the read size; 0 uses digest.DefaultChunkSize.
	ChunkSize int

	// Workers bounds concurrent digests; 0 sizes the pool automatically.
	Workers int

	// Header is free text written as leading comments.
	Header string

	// AllowUpward permits ".." in written paths.
	AllowUpward bool

	// Cache, if set, memoizes digests.
	Cache *cache.Cache

	// OnProgress is passed to apply.Apply.
	OnProgress func(done, total int)
}

// New digests files for a manifest that will live at output. Files that
// cannot be read get an entry with an empty digest; Save refuses such a
// manifest. Invalid algorithm settings fail before any file is read.
func New(files []string, output string, opts Options) (*Manifest, error) {
	out, err := pathutil.Resolve(output)
	if err != nil {
		return nil, err
	}

	alg, err := AlgorithmFor(out, opts.Algorithm)
	if err != nil {
		return nil, err
	}
	dopts, err := digest.Options{
		Algorithm: string(alg),
		ChunkSize: opts.ChunkSize,
		Length:    opts.Length,
	}.Normalize()
	if err != nil {
		return nil, err
	}

	resolved := make([]string, len(files))
	for i, f := range files {
		if resolved[i], err = pathutil.Resolve(f); err != nil {
			return nil, err
		}
	}

	log := logging.Get("manifest")
	start := time.Now()

	results, err := apply.Apply(resolved, func(path string) (string, error) {
		return opts.Cache.Digest(path, dopts)
	}, apply.Options{Workers: opts.Workers, OnProgress: opts.OnProgress})
	if err != nil {
		return nil, err
	}

	m := &Manifest{
		Path:        out,
		Algorithm:   alg,
		Length:      dopts.Length,
		Comments:    SplitHeader(opts.Header),
		Entries:     make([]Entry, len(results)),
		AllowUpward: opts.AllowUpward,
	}
	for i, r := range results {
		m.Entries[i] = Entry{Digest: strings.ToUpper(r.Value), Path: r.Path}
		if !r.Ok() {
			log.Warn("file inaccessible", "path", r.Path, "error", r.Err)
		}
	}

	log.Debug("digested files", "count", len(files), "algorithm", alg, "elapsed", time.Since(start))
	return m, nil
}

// Compute digests files and writes the manifest to output, returning its
// resolved path. An output without an extension gets ".<algorithm>"
// appended. When any file cannot be read nothing is written and the error
// is an *IncompleteDigestSetError listing those files.
func Compute(files []string, output string, opts Options) (string, error) {
	if pathutil.Suffix(output) == "" {
		if opts.Algorithm == "" {
			return "", fmt.Errorf("%w: no algorithm given and %s has no extension", digest.ErrUnsupportedAlgorithm, output)
		}
		alg, err := digest.ParseAlgorithm(opts.Algorithm)
		if err != nil {
			return "", err
		}
		output = pathutil.WithSuffix(output, string(alg))
	}

	m, err := New(files, output, opts)
	if err != nil {
		return "", err
	}
	if err := m.Save(); err != nil {
		return "", err
	}

	logging.Get("manifest").Info("manifest written", "path", m.Path, "entries", len(m.Entries), "algorithm", m.Algorithm)
	return m.Path, nil
}
