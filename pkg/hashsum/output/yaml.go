package output

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

type yamlOutput struct {
	Manifest  string      `yaml:"manifest,omitempty"`
	Algorithm string      `yaml:"algorithm"`
	Entries   []Entry     `yaml:"entries"`
	Summary   yamlSummary `yaml:"summary"`
	Warnings  []string    `yaml:"warnings,omitempty"`
}

type yamlSummary struct {
	Total    int    `yaml:"total"`
	Matched  int    `yaml:"matched"`
	Modified int    `yaml:"modified"`
	Missing  int    `yaml:"missing"`
	Bytes    int64  `yaml:"bytes"`
	Elapsed  string `yaml:"elapsed,omitempty"`
	OK       bool   `yaml:"ok"`
}

// YAMLFormatter writes the same document as JSONFormatter in YAML.
type YAMLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *YAMLFormatter) Format(w *bytes.Buffer, r *Result) error {
	s := buildSummary(r)
	out := yamlOutput{
		Manifest:  r.Manifest,
		Algorithm: r.Algorithm,
		Entries:   r.Entries,
		Summary: yamlSummary{
			Total:    s.Total,
			Matched:  s.Matched,
			Modified: s.Modified,
			Missing:  s.Missing,
			Bytes:    s.Bytes,
			Elapsed:  s.Elapsed,
			OK:       s.OK,
		},
		Warnings: r.Warnings,
	}
	if out.Entries == nil {
		out.Entries = []Entry{}
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(out); err != nil {
		return err
	}
	return encoder.Close()
}

func init() {
	Register("yaml", func() Formatter {
		return &YAMLFormatter{}
	})
}

var _ Formatter = (*YAMLFormatter)(nil)
