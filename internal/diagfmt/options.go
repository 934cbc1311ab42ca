package diagfmt

import (
	"fmt"
	"slices"
	"strings"

	"r42/internal/source"
)

// PathMode selects how file paths are printed.
type PathMode uint8

const (
	PathModeAuto PathMode = iota // keep short paths, shorten long absolute ones
	PathModeAbsolute
	PathModeRelative // relative to the FileSet base directory
	PathModeBasename
)

var pathModeNames = [...]string{"auto", "absolute", "relative", "basename"}

func (m PathMode) String() string {
	if int(m) < len(pathModeNames) {
		return pathModeNames[m]
	}
	return pathModeNames[PathModeAuto]
}

// ParsePathMode accepts the names printed by String.
func ParsePathMode(s string) (PathMode, error) {
	i := slices.Index(pathModeNames[:], strings.ToLower(strings.TrimSpace(s)))
	if i < 0 {
		return PathModeAuto, fmt.Errorf("unknown path mode %q (expected %s)", s, strings.Join(pathModeNames[:], "|"))
	}
	return PathMode(i), nil
}

// PrettyOpts controls Pretty.
type PrettyOpts struct {
	Color bool
	// Context is the number of source lines shown around the primary span.
	Context     int8
	PathMode    PathMode
	Width       uint8 // clip source lines to this many columns; 0 disables
	ShowNotes   bool
	ShowFixes   bool
	ShowPreview bool
}

// JSONOpts controls JSON and BuildDiagnosticsOutput.
type JSONOpts struct {
	IncludePositions bool
	PathMode         PathMode
	Max              int // 0 emits every diagnostic in the bag
	IncludeNotes     bool
	IncludeFixes     bool
	IncludePreviews  bool
}

func formatPath(path string, fs *source.FileSet, mode PathMode) string {
	base := ""
	if fs != nil && mode == PathModeRelative {
		base = fs.BaseDir()
	}
	return (&source.File{Path: path}).FormatPath(mode.String(), base)
}
