package source

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func stripBOM(content []byte) ([]byte, bool) {
	if rest, ok := bytes.CutPrefix(content, utf8BOM); ok {
		return rest, true
	}
	return content, false
}

func cleanPath(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}

// relativeTo expresses path relative to baseDir (the working directory when
// empty). Paths outside baseDir come back absolute.
func relativeTo(path, baseDir string) (string, bool) {
	if baseDir == "" {
		baseDir = workingDir()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	base, err := filepath.Abs(baseDir)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(base, abs)
	if err != nil {
		return abs, true
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return abs, true
	}
	return rel, true
}

func workingDir() string {
	wd, _ := os.Getwd()
	return wd
}
