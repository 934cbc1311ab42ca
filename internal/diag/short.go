package diag

import (
	"cmp"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"r42/internal/source"
)

type shortLine struct {
	path      string
	line, col uint32
	sev       Severity
	code      string
	msg       string
}

func (l shortLine) String() string {
	return fmt.Sprintf("%s %s %s:%d:%d %s", l.sev.Label(), l.code, l.path, l.line, l.col, l.msg)
}

// FormatShort renders one diagnostic per line as
// "<severity> <code> <path>:<line>:<col> <message>", ordered by position.
// Detached diagnostics use line and column 0.
func FormatShort(diags []Diagnostic, fs *source.FileSet) string {
	lines := make([]shortLine, 0, len(diags))
	for _, d := range diags {
		l := shortLine{sev: d.Severity, code: d.Code.ID(), msg: oneLine(d.Message), path: d.Path}
		if !d.Detached() && fs != nil {
			start, _ := fs.Resolve(d.Primary)
			l.path = fs.Get(d.Primary.File).FormatPath("relative", fs.BaseDir())
			l.line, l.col = start.Line, start.Col
		}
		l.path = filepath.ToSlash(l.path)
		for strings.HasPrefix(l.path, "./") {
			l.path = l.path[2:]
		}
		lines = append(lines, l)
	}

	slices.SortStableFunc(lines, func(a, b shortLine) int {
		return cmp.Or(
			cmp.Compare(a.path, b.path),
			cmp.Compare(a.line, b.line),
			cmp.Compare(a.col, b.col),
			cmp.Compare(b.sev, a.sev),
			cmp.Compare(a.code, b.code),
		)
	})

	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.String()
	}
	return strings.Join(out, "\n")
}

// oneLine folds line breaks so each diagnostic stays on one output line.
func oneLine(msg string) string {
	return strings.TrimSpace(strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(msg))
}
