// Package printer renders venuectl output, colored text for humans or JSON for scripts.
package printer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

var ErrUnknownFormat = errors.New("output format must be text or json")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Printer writes results to out and problems to errOut.
type Printer struct {
	out    io.Writer
	errOut io.Writer
	format string
	green  *color.Color
	yellow *color.Color
	red    *color.Color
	cyan   *color.Color
}

// New creates a Printer. Colors are off when NO_COLOR is set or the format is JSON.
func New(out io.Writer, errOut io.Writer, format string) (*Printer, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatText
	}

	if format != FormatText && format != FormatJSON {
		return nil, errors.Join(ErrUnknownFormat, fmt.Errorf("got %q", format))
	}

	p := &Printer{
		out:    out,
		errOut: errOut,
		format: format,
		green:  color.New(color.FgGreen),
		yellow: color.New(color.FgYellow),
		red:    color.New(color.FgRed, color.Bold),
		cyan:   color.New(color.FgCyan),
	}

	if os.Getenv("NO_COLOR") != "" || format == FormatJSON {
		p.DisableColor()
	}

	return p, nil
}

// DisableColor turns colored output off.
func (p *Printer) DisableColor() {
	for _, c := range []*color.Color{p.green, p.yellow, p.red, p.cyan} {
		c.DisableColor()
	}
}

// JSONMode reports whether results are printed as JSON.
func (p *Printer) JSONMode() bool {
	return p.format == FormatJSON
}

// Result prints v as JSON in JSON mode and calls text otherwise.
func (p *Printer) Result(v any, text func()) error {
	if p.JSONMode() {
		return p.JSON(v)
	}

	text()

	return nil
}

// JSON prints v as indented JSON.
func (p *Printer) JSON(v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(p.out, string(encoded))

	return err
}

// Success prints a green message with a check mark.
func (p *Printer) Success(format string, a ...any) {
	_, _ = p.green.Fprintf(p.out, "✓ "+format+"\n", a...)
}

// Info prints a plain message.
func (p *Printer) Info(format string, a ...any) {
	_, _ = fmt.Fprintf(p.out, format+"\n", a...)
}

// Heading prints a cyan line.
func (p *Printer) Heading(format string, a ...any) {
	_, _ = p.cyan.Fprintf(p.out, format+"\n", a...)
}

// Warning prints a yellow message to the error output.
func (p *Printer) Warning(format string, a ...any) {
	_, _ = p.yellow.Fprintf(p.errOut, "⚠️  "+format+"\n", a...)
}

// Error prints a red title, an explanation, and suggestions to the error output,
// and returns an error carrying only the title.
func (p *Printer) Error(title string, explanation string, suggestions ...string) error {
	_, _ = p.red.Fprintf(p.errOut, "%s\n", title)

	if explanation != "" {
		_, _ = fmt.Fprintf(p.errOut, "\n%s\n", explanation)
	}

	switch len(suggestions) {
	case 0:
	case 1:
		_, _ = fmt.Fprintf(p.errOut, "\n%s\n", suggestions[0])
	default:
		_, _ = fmt.Fprintf(p.errOut, "\nEither:\n")
		for i, suggestion := range suggestions {
			_, _ = fmt.Fprintf(p.errOut, "  %d. %s\n", i+1, suggestion)
		}
	}

	return errors.New(title)
}

// Table prints rows aligned under a cyan header.
func (p *Printer) Table(header []string, rows [][]string) {
	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, p.cyan.Sprint(strings.Join(header, "\t")))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}

	_ = w.Flush()
}
