// Package output renders verification reports in the formats selectable
// with the -o flag (pretty, plain, json, yaml, template and others).
//
// Formatters are looked up by name in a registry:
//
//	formatter, err := output.Get("json")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, output.FromReport(report)); err != nil {
//	    return err
//	}
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jamesainslie/hashsum/pkg/hashsum/types"
	"github.com/jamesainslie/hashsum/pkg/hashsum/verify"
)

// Entry is one verified file.
type Entry struct {
	Path      string `json:"path" yaml:"path"`
	Status    string `json:"status" yaml:"status"`
	Recorded  string `json:"recorded" yaml:"recorded"`
	Actual    string `json:"actual,omitempty" yaml:"actual,omitempty"`
	Size      int64  `json:"size" yaml:"size"`
	SizeHuman string `json:"size_human" yaml:"size_human"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

// OK reports whether the entry matched its recorded digest.
func (e Entry) OK() bool {
	return e.Status == verify.Matched.String()
}

// Result is the formatter input.
type Result struct {
	Manifest  string        `json:"manifest" yaml:"manifest"`
	Algorithm string        `json:"algorithm" yaml:"algorithm"`
	Entries   []Entry       `json:"entries" yaml:"entries"`
	Matched   int           `json:"matched" yaml:"matched"`
	Modified  int           `json:"modified" yaml:"modified"`
	Missing   int           `json:"missing" yaml:"missing"`
	Bytes     int64         `json:"bytes" yaml:"bytes"`
	Elapsed   time.Duration `json:"elapsed" yaml:"elapsed"`
	Warnings  []string      `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// FromReport converts a verification report.
func FromReport(r *verify.Report) *Result {
	result := &Result{
		Manifest:  r.Manifest,
		Algorithm: r.Algorithm.String(),
		Entries:   make([]Entry, len(r.Outcomes)),
		Matched:   len(r.Matched),
		Modified:  len(r.Modified),
		Missing:   len(r.Missing),
		Bytes:     r.Bytes,
		Elapsed:   r.Elapsed,
	}
	for i, o := range r.Outcomes {
		e := Entry{
			Path:      o.Path,
			Status:    o.Status.String(),
			Recorded:  o.Recorded,
			Actual:    o.Actual,
			Size:      o.Size,
			SizeHuman: types.FormatSize(o.Size),
		}
		if o.Err != nil {
			e.Error = o.Err.Error()
		}
		result.Entries[i] = e
	}
	return result
}

// Total returns the number of entries.
func (r *Result) Total() int {
	return len(r.Entries)
}

// OK reports whether every entry matched.
func (r *Result) OK() bool {
	return r.Modified == 0 && r.Missing == 0
}

// Problems returns the entries that did not match.
func (r *Result) Problems() []Entry {
	var problems []Entry
	for _, e := range r.Entries {
		if !e.OK() {
			problems = append(problems, e)
		}
	}
	return problems
}

// Formatter writes a Result in one output format.
type Formatter interface {
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory creates a Formatter.
type FormatterFactory func() Formatter

// Registry maps format names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a factory, replacing any with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns the registered names, sorted.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry holds the built-in formatters.
var DefaultRegistry = NewRegistry()

// Register adds a factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a formatter from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns the names in the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
