package project

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
)

// ManifestName is the project manifest file name.
const ManifestName = "r42.toml"

// FindManifest returns the r42.toml closest to startDir, searching
// startDir and then each parent. ok is false when none exists.
func FindManifest(startDir string) (path string, ok bool, err error) {
	abs, err := filepath.Abs(orDot(startDir))
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for dir := range ancestors(abs) {
		path = filepath.Join(dir, ManifestName)
		info, statErr := os.Stat(path)
		switch {
		case statErr == nil && !info.IsDir():
			return path, true, nil
		case statErr != nil && !errors.Is(statErr, fs.ErrNotExist):
			return "", false, fmt.Errorf("failed to stat %q: %w", path, statErr)
		}
	}
	return "", false, nil
}

func orDot(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}

// ancestors yields dir and every parent up to the filesystem root.
func ancestors(dir string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			if !yield(dir) {
				return
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				return
			}
			dir = parent
		}
	}
}
