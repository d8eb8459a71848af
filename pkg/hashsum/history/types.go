// Package history keeps a log of create and check runs as one JSON file
// per run, so past verifications can be listed and inspected.
package history

import "time"

// Operation is the kind of run recorded.
type Operation string

const (
	// OpCreate records a manifest being written.
	OpCreate Operation = "create"
	// OpCheck records a manifest being verified.
	OpCheck Operation = "check"
)

// Entry is one recorded run.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Operation Operation `json:"operation"`
	Manifest  string    `json:"manifest"`
	Algorithm string    `json:"algorithm"`
	Summary   Summary   `json:"summary"`

	// Problems lists modified and missing files for check runs, or
	// inaccessible files for failed create runs.
	Problems []Problem `json:"problems,omitempty"`

	// Error is set when the run failed as a whole.
	Error string `json:"error,omitempty"`
}

// Summary holds the counts of a run.
type Summary struct {
	Files    int           `json:"files"`
	Matched  int           `json:"matched"`
	Modified int           `json:"modified"`
	Missing  int           `json:"missing"`
	Bytes    int64         `json:"bytes"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Problem is one file that did not verify.
type Problem struct {
	Path   string `json:"path"`
	Status string `json:"status"`
}

// OK reports whether the run found nothing wrong.
func (e *Entry) OK() bool {
	return e.Error == "" && len(e.Problems) == 0
}
