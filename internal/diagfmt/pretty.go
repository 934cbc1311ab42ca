package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"r42/internal/diag"
	"r42/internal/source"
)

const tabWidth = 4

type palette struct {
	err, warn, info, note, fix, gutter, caret, bold *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		note:   color.New(color.FgBlue, color.Bold),
		fix:    color.New(color.FgGreen),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgRed, color.Bold),
		bold:   color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.fix, p.gutter, p.caret, p.bold} {
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

// Pretty renders diagnostics for humans, in bag order (call bag.Sort()
// first). Each diagnostic prints as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <Message>
//
// followed by the source line with a ^~~~ underline, then notes and fixes
// when enabled. Detached diagnostics print only the header.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	pal := newPalette(opts.Color)
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		prettyOne(w, d, fs, opts, pal)
	}
}

func prettyOne(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, pal palette) {
	sev := pal.severity(d.Severity).Sprintf("%s %s", d.Severity, d.Code.ID())
	if d.Detached() || fs == nil {
		fmt.Fprintf(w, "%s: %s: %s\n", pal.bold.Sprint(formatPath(d.Path, fs, opts.PathMode)), sev, d.Message)
		if opts.ShowNotes {
			for _, n := range d.Notes {
				fmt.Fprintf(w, "  %s %s\n", pal.note.Sprint("note:"), n.Msg)
			}
		}
		return
	}

	file := fs.Get(d.Primary.File)
	start, end := fs.Resolve(d.Primary)
	fmt.Fprintf(w, "%s: %s: %s\n",
		pal.bold.Sprintf("%s:%d:%d", formatPath(file.Path, fs, opts.PathMode), start.Line, start.Col),
		sev, d.Message)

	printSnippet(w, file, start, end, opts, pal)

	if opts.ShowNotes {
		for _, n := range d.Notes {
			nf := fs.Get(n.Span.File)
			pos, _ := fs.Resolve(n.Span)
			fmt.Fprintf(w, "  %s %s:%d:%d: %s\n", pal.note.Sprint("note:"),
				formatPath(nf.Path, fs, opts.PathMode), pos.Line, pos.Col, n.Msg)
		}
	}
	if opts.ShowFixes {
		for i, f := range d.Fixes {
			fmt.Fprintf(w, "  %s %s\n", pal.fix.Sprintf("fix #%d:", i+1), f.Title)
			for _, e := range f.Edits {
				pos, _ := fs.Resolve(e.Span)
				fmt.Fprintf(w, "    at %d:%d apply=%s\n", pos.Line, pos.Col, strconv.Quote(e.NewText))
				if opts.ShowPreview {
					printPreview(w, fs, e, pal)
				}
			}
		}
	}
}

func printSnippet(w io.Writer, file *source.File, start, end source.LineCol, opts PrettyOpts, pal palette) {
	ctx := uint32(max(opts.Context, 0))
	first := uint32(1)
	if start.Line > ctx {
		first = start.Line - ctx
	}
	last := start.Line + ctx
	if n := uint32(len(file.LineIdx)) + 1; last > n {
		last = n
	}
	gutterWidth := len(strconv.FormatUint(uint64(last), 10))
	blank := strings.Repeat(" ", gutterWidth)

	for ln := first; ln <= last; ln++ {
		text := file.GetLine(ln)
		fmt.Fprintf(w, " %s %s %s\n",
			pal.gutter.Sprintf("%*d", gutterWidth, ln), pal.gutter.Sprint("|"), clip(expandTabs(text), opts.Width))
		if ln != start.Line {
			continue
		}
		prefix := prefixBytes(text, start.Col)
		marked := text[len(prefix):]
		if end.Line == start.Line {
			marked = prefixBytes(marked, end.Col-start.Col+1)
		}
		width := max(displayWidth(marked), 1)
		underline := "^" + strings.Repeat("~", width-1)
		fmt.Fprintf(w, " %s %s %s%s\n", blank, pal.gutter.Sprint("|"),
			strings.Repeat(" ", displayWidth(prefix)), pal.caret.Sprint(underline))
	}
}

func printPreview(w io.Writer, fs *source.FileSet, e diag.FixEdit, pal palette) {
	preview, err := previewEdit(fs, e)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "    preview:\n")
	for _, l := range preview.before {
		fmt.Fprintf(w, "      %s\n", pal.err.Sprint("- "+l))
	}
	for _, l := range preview.after {
		fmt.Fprintf(w, "      %s\n", pal.fix.Sprint("+ "+l))
	}
}

// prefixBytes returns the part of line before 1-based byte column col.
func prefixBytes(line string, col uint32) string {
	n := int(col) - 1
	if n <= 0 {
		return ""
	}
	if n > len(line) {
		return line
	}
	return line[:n]
}

func displayWidth(s string) int {
	w := 0
	for _, r := range s {
		if r == '\t' {
			w += tabWidth
			continue
		}
		w += runewidth.RuneWidth(r)
	}
	return w
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

func clip(s string, width uint8) string {
	if width == 0 || runewidth.StringWidth(s) <= int(width) {
		return s
	}
	return runewidth.Truncate(s, int(width), "...")
}
