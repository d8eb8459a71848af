package output

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/valyala/fasttemplate"
)

// DefaultTemplate prints status and path separated by a tab.
const DefaultTemplate = "{status}\t{path}\n"

// TemplateFormatter renders every entry through a fasttemplate with
// {status}, {path}, {recorded}, {actual}, {size}, {size_human} and
// {error} tags. Escapes \n and \t in the template are expanded.
type TemplateFormatter struct {
	templateStr string
	template    *fasttemplate.Template
	mu          sync.Mutex
}

// NewTemplateFormatter creates a formatter for templateStr.
func NewTemplateFormatter(templateStr string) *TemplateFormatter {
	return &TemplateFormatter{templateStr: templateStr}
}

// SetTemplate replaces the template.
func (f *TemplateFormatter) SetTemplate(templateStr string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.templateStr = templateStr
	f.template = nil
}

// Format writes the formatted output to the buffer.
func (f *TemplateFormatter) Format(w *bytes.Buffer, r *Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.template == nil {
		tmpl, err := fasttemplate.NewTemplate(unescape(f.templateStr), "{", "}")
		if err != nil {
			return fmt.Errorf("parsing template: %w", err)
		}
		f.template = tmpl
	}

	for _, e := range r.Entries {
		_, err := f.template.ExecuteFunc(w, func(tw io.Writer, tag string) (int, error) {
			value, ok := entryTag(e, tag)
			if !ok {
				return 0, fmt.Errorf("unknown template tag {%s}", tag)
			}
			return io.WriteString(tw, value)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func entryTag(e Entry, tag string) (string, bool) {
	switch tag {
	case "status":
		return e.Status, true
	case "path":
		return e.Path, true
	case "recorded":
		return e.Recorded, true
	case "actual":
		return e.Actual, true
	case "size":
		return strconv.FormatInt(e.Size, 10), true
	case "size_human":
		return e.SizeHuman, true
	case "error":
		return e.Error, true
	}
	return "", false
}

// unescape expands the \n, \t and \\ sequences a shell passes through
// literally.
func unescape(s string) string {
	var b bytes.Buffer
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		switch s[i+1] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte(s[i])
			continue
		}
		i++
	}
	return b.String()
}

func init() {
	Register("template", func() Formatter {
		return NewTemplateFormatter(DefaultTemplate)
	})
}

var _ Formatter = (*TemplateFormatter)(nil)
