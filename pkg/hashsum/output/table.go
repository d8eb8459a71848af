package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

// CSVFormatter writes RFC 4180 CSV with a header row.
type CSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *CSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"status", "path", "recorded", "actual", "size"}); err != nil {
		return err
	}
	for _, e := range r.Entries {
		row := []string{e.Status, e.Path, e.Recorded, e.Actual, strconv.FormatInt(e.Size, 10)}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func init() {
	Register("csv", func() Formatter {
		return &CSVFormatter{}
	})
}

var _ Formatter = (*CSVFormatter)(nil)

// MarkdownFormatter writes a GitHub-flavored Markdown table.
type MarkdownFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *MarkdownFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString("| STATUS | SIZE | PATH |\n")
	w.WriteString("|--------|------|------|\n")

	for _, e := range r.Entries {
		fmt.Fprintf(w, "| %s | %s | %s |\n",
			e.Status, escapeMarkdownPipe(e.SizeHuman), escapeMarkdownPipe(e.Path))
	}
	return nil
}

func escapeMarkdownPipe(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func init() {
	Register("markdown", func() Formatter {
		return &MarkdownFormatter{}
	})
}

var _ Formatter = (*MarkdownFormatter)(nil)
