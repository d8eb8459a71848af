package output

import (
	"bytes"

	"github.com/goccy/go-json"
)

type jsonOutput struct {
	Manifest  string      `json:"manifest,omitempty"`
	Algorithm string      `json:"algorithm"`
	Entries   []Entry     `json:"entries"`
	Summary   jsonSummary `json:"summary"`
	Warnings  []string    `json:"warnings,omitempty"`
}

type jsonSummary struct {
	Total    int    `json:"total"`
	Matched  int    `json:"matched"`
	Modified int    `json:"modified"`
	Missing  int    `json:"missing"`
	Bytes    int64  `json:"bytes"`
	Elapsed  string `json:"elapsed,omitempty"`
	OK       bool   `json:"ok"`
}

func buildSummary(r *Result) jsonSummary {
	return jsonSummary{
		Total:    r.Total(),
		Matched:  r.Matched,
		Modified: r.Modified,
		Missing:  r.Missing,
		Bytes:    r.Bytes,
		Elapsed:  formatDurationString(r.Elapsed),
		OK:       r.OK(),
	}
}

// JSONFormatter writes one indented JSON document.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	entries := r.Entries
	if entries == nil {
		entries = []Entry{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(jsonOutput{
		Manifest:  r.Manifest,
		Algorithm: r.Algorithm,
		Entries:   entries,
		Summary:   buildSummary(r),
		Warnings:  r.Warnings,
	})
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

var _ Formatter = (*JSONFormatter)(nil)

// JSONLFormatter writes one compact JSON object per entry, suitable for
// streaming into jq.
type JSONLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONLFormatter) Format(w *bytes.Buffer, r *Result) error {
	for _, e := range r.Entries {
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	return nil
}

func init() {
	Register("jsonl", func() Formatter {
		return &JSONLFormatter{}
	})
}

var _ Formatter = (*JSONLFormatter)(nil)
