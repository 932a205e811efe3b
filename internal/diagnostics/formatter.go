package diagnostics

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"
)

// Formatter renders diagnostics to a writer, with ANSI color when the
// writer is a terminal.
type Formatter struct {
	out   io.Writer
	color bool
}

// NewFormatter builds a formatter for out, enabling color when out is a tty.
func NewFormatter(out io.Writer) *Formatter {
	color := false
	if f, ok := out.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Formatter{out: out, color: color}
}

// Format writes one diagnostic, with its breadcrumb indented beneath it.
func (f *Formatter) Format(d *Diagnostic) {
	sev := string(d.Severity)
	if sev == "" {
		sev = string(SeverityError)
	}
	head := fmt.Sprintf("%s[%s]", sev, d.Code)
	if f.color {
		c := colorRed
		if !d.IsError() {
			c = colorYellow
		}
		head = c + colorBold + head + colorReset
	}
	if d.Token.IsValid() {
		fmt.Fprintf(f.out, "%s %s: %s\n", head, d.Token.Pos(), d.Message)
	} else {
		fmt.Fprintf(f.out, "%s: %s\n", head, d.Message)
	}
	for i, step := range d.Context {
		fmt.Fprintf(f.out, "%s%s\n", strings.Repeat("  ", i+1), step)
	}
}

// FormatAll writes every diagnostic as a numbered list plus a one-line
// digest.
func (f *Formatter) FormatAll(errs, warns []*Diagnostic) {
	n := 0
	for _, d := range errs {
		n++
		fmt.Fprintf(f.out, "%d. ", n)
		f.Format(d)
	}
	for _, d := range warns {
		n++
		fmt.Fprintf(f.out, "%d. ", n)
		f.Format(d)
	}
	if len(errs) > 0 {
		fmt.Fprintf(f.out, "%d error(s), %d warning(s)\n", len(errs), len(warns))
	}
}
