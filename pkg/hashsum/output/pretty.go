package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// PrettyFormatter renders a styled report for a terminal. Only entries
// that failed are listed; matches are counted in the footer.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")
	w.WriteString(f.formatTable(r))
	w.WriteString(f.formatFooter(r))
	w.WriteString("\n")

	if len(r.Warnings) > 0 {
		w.WriteString(f.formatWarnings(r.Warnings))
	}
	return nil
}

func (f *PrettyFormatter) formatHeader(r *Result) string {
	var parts []string
	if r.Manifest != "" {
		parts = append(parts, LabelStyle.Render("Manifest:")+" "+ValueStyle.Render(r.Manifest))
	}
	parts = append(parts, LabelStyle.Render("Algorithm:")+" "+ValueStyle.Render(r.Algorithm))
	return HeaderBox.Render(strings.Join(parts, "  "))
}

func (f *PrettyFormatter) formatTable(r *Result) string {
	problems := r.Problems()
	if len(problems) == 0 {
		if r.Total() == 0 {
			return MutedStyle.Render("  Manifest has no entries") + "\n"
		}
		return SuccessStyle.Render(fmt.Sprintf("  All %s files verified", humanize.Comma(int64(r.Total())))) + "\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("  %s  %s\n",
		TableHeaderStyle.Render(padRight("STATUS", 8)),
		TableHeaderStyle.Render("PATH")))

	for _, e := range problems {
		status := statusStyle(e.Status).Render(padRight(e.Status, 8))
		sb.WriteString(fmt.Sprintf("  %s  %s\n", status, PathStyle.Render(e.Path)))
		if e.Error != "" {
			sb.WriteString("            " + MutedStyle.Render(e.Error) + "\n")
		}
	}
	return sb.String()
}

func (f *PrettyFormatter) formatFooter(r *Result) string {
	parts := []string{
		LabelStyle.Render("Matched:") + " " + SuccessStyle.Render(humanize.Comma(int64(r.Matched))),
		LabelStyle.Render("Modified:") + " " + countStyle(r.Modified, "modified").Render(humanize.Comma(int64(r.Modified))),
		LabelStyle.Render("Missing:") + " " + countStyle(r.Missing, "missing").Render(humanize.Comma(int64(r.Missing))),
		LabelStyle.Render("Read:") + " " + SizeStyle.Render(humanize.IBytes(uint64(r.Bytes))),
	}
	if r.Elapsed > 0 {
		parts = append(parts, LabelStyle.Render("in")+" "+ValueStyle.Render(formatDuration(r.Elapsed)))
	}
	return FooterBox.Render(strings.Join(parts, "  "))
}

func (f *PrettyFormatter) formatWarnings(warnings []string) string {
	var sb strings.Builder
	sb.WriteString(WarningStyle.Bold(true).Render("Warnings:"))
	sb.WriteString("\n")
	for _, warning := range warnings {
		sb.WriteString(WarningStyle.Render("  " + warning))
		sb.WriteString("\n")
	}
	return sb.String()
}

func countStyle(n int, status string) lipgloss.Style {
	if n == 0 {
		return MutedStyle
	}
	return statusStyle(status)
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// formatDuration formats d for humans: "350ms", "2.4s", "3m 5s", "1h 2m".
func formatDuration(d time.Duration) string {
	sec := d.Seconds()
	if sec < 1 {
		return fmt.Sprintf("%.0fms", sec*1000)
	}
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	minutes := int(sec) / 60
	seconds := int(sec) % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

func formatDurationString(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

var _ Formatter = (*PrettyFormatter)(nil)
