package source

import (
	"bytes"
	"path/filepath"
	"slices"
)

// FileID indexes a File inside its FileSet.
type FileID uint32

// FileFlags records how a file's content was obtained.
type FileFlags uint8

const (
	FileVirtual       FileFlags = 1 << iota // not backed by a path on disk
	FileHadBOM                              // a UTF-8 BOM was stripped on load
	FileNormalizedNFC                       // content differs from the bytes on disk
)

// Has reports whether every bit of mask is set.
func (f FileFlags) Has(mask FileFlags) bool { return f&mask == mask }

// File is one loaded template.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	// LineIdx holds the offset of every '\n' in Content.
	LineIdx []uint32
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol is a 1-based position; Col counts bytes.
type LineCol struct {
	Line uint32
	Col  uint32
}

func (f *File) Text() string { return string(f.Content) }

func indexLines(content []byte) []uint32 {
	var idx []uint32
	for off := 0; ; {
		i := bytes.IndexByte(content[off:], '\n')
		if i < 0 {
			return idx
		}
		off += i
		idx = append(idx, uint32(off))
		off++
	}
}

// position maps a byte offset to its line and column.
func (f *File) position(off uint32) LineCol {
	// count of newlines strictly before off
	line, _ := slices.BinarySearch(f.LineIdx, off)
	start := uint32(0)
	if line > 0 {
		start = f.LineIdx[line-1] + 1
	}
	return LineCol{Line: uint32(line) + 1, Col: off - start + 1}
}

// LineStart is the offset of the first byte of line n (1-based). Lines
// past the end start at len(Content).
func (f *File) LineStart(n uint32) uint32 {
	switch {
	case n <= 1:
		return 0
	case int(n-2) < len(f.LineIdx):
		return f.LineIdx[n-2] + 1
	default:
		return uint32(len(f.Content))
	}
}

// LineRange covers lines first through last, including the final "\n".
func (f *File) LineRange(first, last uint32) (start, end uint32) {
	start = f.LineStart(first)
	end = max(f.LineStart(last+1), start)
	return start, end
}

// GetLine returns line n (1-based) without its "\n" or "\r\n" terminator.
// Lines past the end are empty.
func (f *File) GetLine(n uint32) string {
	if n == 0 || int(n) > len(f.LineIdx)+1 {
		return ""
	}
	start, end := f.LineRange(n, n)
	line := bytes.TrimSuffix(f.Content[start:end], []byte{'\n'})
	return string(bytes.TrimSuffix(line, []byte{'\r'}))
}

// FormatPath renders the path for display. mode is one of "absolute",
// "relative", "basename" or "auto"; anything else keeps the stored path.
func (f *File) FormatPath(mode, baseDir string) string {
	switch mode {
	case "absolute":
		if abs, err := filepath.Abs(f.Path); err == nil {
			return abs
		}
	case "relative":
		if rel, ok := relativeTo(f.Path, baseDir); ok {
			return rel
		}
	case "basename":
		return filepath.Base(f.Path)
	case "auto":
		if filepath.IsAbs(f.Path) && len(f.Path) >= 40 {
			return filepath.Base(f.Path)
		}
	}
	return f.Path
}
