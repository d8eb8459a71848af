// Package tui renders hashing progress on a terminal.
package tui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"
)

var (
	primaryColor = lipgloss.Color("39")
	mutedColor   = lipgloss.Color("245")

	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	mutedStyle = lipgloss.NewStyle().Foreground(mutedColor)
)

// ProgressMsg reports finished and total file counts.
type ProgressMsg struct {
	Done  int
	Total int
}

// DoneMsg ends the program.
type DoneMsg struct{}

// ProgressModel shows a spinner, a bar and a files-per-second rate.
type ProgressModel struct {
	label     string
	spinner   spinner.Model
	bar       progress.Model
	done      int
	total     int
	startTime time.Time
	finished  bool
}

// NewProgressModel creates a model labelled with the running operation.
func NewProgressModel(label string) ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return ProgressModel{
		label:     label,
		spinner:   s,
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		startTime: time.Now(),
	}
}

// Init starts the spinner.
func (m ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles progress, completion and resize messages.
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ProgressMsg:
		m.done = msg.Done
		m.total = msg.Total
		return m, nil

	case DoneMsg:
		m.finished = true
		return m, tea.Quit

	case tea.WindowSizeMsg:
		width := msg.Width - 40
		m.bar.Width = max(10, min(width, 60))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// Percent returns the finished fraction in [0, 1].
func (m ProgressModel) Percent() float64 {
	if m.total <= 0 {
		return 0
	}
	return float64(m.done) / float64(m.total)
}

// View renders a single status line. It is empty once finished so the
// report that follows starts on a clean line.
func (m ProgressModel) View() string {
	if m.finished {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(labelStyle.Render(m.label))
	b.WriteString(" ")
	b.WriteString(m.bar.ViewAs(m.Percent()))
	b.WriteString(" ")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%s/%s files%s",
		humanize.Comma(int64(m.done)), humanize.Comma(int64(m.total)), m.rate())))
	return b.String()
}

func (m ProgressModel) rate() string {
	elapsed := time.Since(m.startTime).Seconds()
	if elapsed < 1 || m.done == 0 {
		return ""
	}
	return fmt.Sprintf(" (%.0f/s)", float64(m.done)/elapsed)
}

// Tracker runs a ProgressModel in the background.
type Tracker struct {
	program *tea.Program
	exited  chan struct{}
	once    sync.Once
}

// Enabled reports whether progress should be drawn on f.
func Enabled(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Start draws progress on w until Stop is called. Keyboard input is not
// read, so Ctrl+C reaches the caller as a signal.
func Start(label string, w io.Writer) *Tracker {
	t := &Tracker{
		program: tea.NewProgram(NewProgressModel(label),
			tea.WithOutput(w),
			tea.WithInput(nil),
			tea.WithoutSignalHandler(),
		),
		exited: make(chan struct{}),
	}
	go func() {
		defer close(t.exited)
		_, _ = t.program.Run()
	}()
	return t
}

// Update forwards counts; it matches apply's OnProgress signature and is
// safe to call from several goroutines.
func (t *Tracker) Update(done, total int) {
	if t == nil {
		return
	}
	t.program.Send(ProgressMsg{Done: done, Total: total})
}

// Stop clears the progress line and waits for the program to exit.
func (t *Tracker) Stop() {
	if t == nil {
		return
	}
	t.once.Do(func() {
		t.program.Send(DoneMsg{})
		<-t.exited
	})
}
