package diagfmt

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"kiln/internal/diag"
	"kiln/internal/source"
)

type palette struct {
	err, warn, info, note, caret, path *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:   color.New(color.FgRed, color.Bold),
		warn:  color.New(color.FgYellow, color.Bold),
		info:  color.New(color.FgCyan, color.Bold),
		note:  color.New(color.FgBlue),
		caret: color.New(color.FgGreen, color.Bold),
		path:  color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.caret, p.path} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty renders diagnostics for humans, one block per diagnostic:
//
//	<path>:<line>:<col>: <SEV> <CODE>: <Message>
//	   <source line>
//	   ^~~~
//
// followed by notes in the same shape. Expects bag.Sort() beforehand.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		start, _ := fs.Resolve(d.Primary)
		fmt.Fprintf(w, "%s: %s %s: %s\n",
			p.path.Sprintf("%s:%d:%d", displayPath(fs.Get(d.Primary.File), opts.PathMode), start.Line, start.Col),
			p.severity(d.Severity).Sprint(d.Severity.String()),
			d.Code.ID(),
			d.Message,
		)
		writeSnippet(w, fs, d.Primary, p)
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			ns, _ := fs.Resolve(n.Span)
			fmt.Fprintf(w, "  %s %s:%d:%d: %s\n",
				p.note.Sprint("note:"),
				displayPath(fs.Get(n.Span.File), opts.PathMode), ns.Line, ns.Col,
				n.Msg,
			)
		}
	}
	if dropped := bag.Dropped(); dropped > 0 {
		fmt.Fprintf(w, "... %d more diagnostics not shown\n", dropped)
	}
}

// writeSnippet prints the primary line and an underline sized in display cells.
func writeSnippet(w io.Writer, fs *source.FileSet, sp source.Span, p palette) {
	start, end := fs.Resolve(sp)
	f := fs.Get(sp.File)
	line := f.GetLine(start.Line)
	if line == "" {
		return
	}
	prefix := clampPrefix(line, int(start.Col-1))
	underlineEnd := len(line)
	if end.Line == start.Line {
		underlineEnd = clampPrefixLen(line, int(end.Col-1))
	}
	marked := ""
	if underlineEnd > len(prefix) {
		marked = line[len(prefix):underlineEnd]
	}
	pad := strings.Repeat(" ", runewidth.StringWidth(expandTabs(prefix)))
	width := max(runewidth.StringWidth(expandTabs(marked)), 1)
	fmt.Fprintf(w, "   %s\n", expandTabs(line))
	fmt.Fprintf(w, "   %s%s\n", pad, p.caret.Sprint("^"+strings.Repeat("~", width-1)))
}

func clampPrefix(line string, n int) string {
	return line[:clampPrefixLen(line, n)]
}

func clampPrefixLen(line string, n int) int {
	if n < 0 {
		return 0
	}
	if n > len(line) {
		return len(line)
	}
	return n
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}

func displayPath(f *source.File, mode PathMode) string {
	if mode == PathModeBasename {
		return filepath.Base(f.Path)
	}
	return f.Path
}
