package verify

import (
	"time"

	"github.com/jamesainslie/hashsum/pkg/hashsum/digest"
	"github.com/jamesainslie/hashsum/pkg/hashsum/logging"
	"github.com/jamesainslie/hashsum/pkg/hashsum/manifest"
)

// Report is the three-way partition of a verified manifest. Path lists
// are in manifest order and never nil.
type Report struct {
	Manifest  string
	Algorithm digest.Algorithm
	Outcomes  []Outcome
	Matched   []string
	Modified  []string
	Missing   []string

	// Bytes is the total size of the files that could be read.
	Bytes int64

	// Elapsed is the time spent hashing.
	Elapsed time.Duration
}

// OK reports whether every entry matched.
func (r *Report) OK() bool {
	return len(r.Modified) == 0 && len(r.Missing) == 0
}

// Check loads the manifest at path and verifies it.
func Check(path string, opts Options) (*Report, error) {
	m, err := manifest.Load(path, manifest.LoadOptions{Algorithm: opts.Algorithm, Length: opts.Length})
	if err != nil {
		return nil, err
	}

	report, err := New(m, opts).Report()
	if err != nil {
		return nil, err
	}

	logging.Get("verify").Info("manifest checked",
		"path", m.Path,
		"matched", len(report.Matched),
		"modified", len(report.Modified),
		"missing", len(report.Missing),
	)
	return report, nil
}

// Files digests an ad hoc list of files; see NewFiles.
func Files(files []string, opts Options) (*Report, error) {
	v, err := NewFiles(files, opts)
	if err != nil {
		return nil, err
	}
	return v.Report()
}
