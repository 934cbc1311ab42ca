package diagfmt

import (
	"errors"
	"fmt"
	"strings"

	"r42/internal/diag"
	"r42/internal/source"
)

// fixPreview is the text of the lines an edit touches, before and after.
type fixPreview struct {
	before []string
	after  []string
}

func previewEdit(fs *source.FileSet, edit diag.FixEdit) (fixPreview, error) {
	if fs == nil {
		return fixPreview{}, errors.New("no file set")
	}
	if int(edit.Span.File) >= fs.Len() {
		return fixPreview{}, fmt.Errorf("unknown file %d", edit.Span.File)
	}
	f := fs.Get(edit.Span.File)
	from, to := fs.Resolve(edit.Span)
	lo, hi := f.LineRange(from.Line, max(from.Line, to.Line))
	if edit.Span.Start < lo || edit.Span.End < edit.Span.Start || edit.Span.End > hi {
		return fixPreview{}, fmt.Errorf("edit %s lies outside lines %d-%d", edit.Span, from.Line, to.Line)
	}

	block := string(f.Content[lo:hi])
	cut, rest := edit.Span.Start-lo, edit.Span.End-lo
	return fixPreview{
		before: previewLines(block),
		after:  previewLines(block[:cut] + edit.NewText + block[rest:]),
	}, nil
}

// previewLines splits text into display lines. One trailing newline does
// not produce an extra empty line.
func previewLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}
	return lines
}
