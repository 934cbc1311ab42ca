package source

import (
	"crypto/sha256"
	"fmt"
	"os"

	"fortio.org/safecast"
	"golang.org/x/text/unicode/norm"
)

// FileSet owns every template loaded during one run. Loading is
// single-threaded; once loading is done, Get and Resolve may be called
// from any goroutine.
type FileSet struct {
	files   []File
	byPath  map[string]FileID
	baseDir string
}

func NewFileSet() *FileSet {
	return NewFileSetWithBase("")
}

// NewFileSetWithBase makes relative display paths resolve against baseDir.
func NewFileSetWithBase(baseDir string) *FileSet {
	return &FileSet{byPath: map[string]FileID{}, baseDir: baseDir}
}

func (fs *FileSet) SetBaseDir(dir string) { fs.baseDir = dir }

// BaseDir is the directory display paths are relative to. It defaults to
// the working directory.
func (fs *FileSet) BaseDir() string {
	if fs.baseDir != "" {
		return fs.baseDir
	}
	return workingDir()
}

func (fs *FileSet) Len() int { return len(fs.files) }

// Add stores content as-is under path. Adding a path twice yields a new
// FileID that shadows the older one in GetByPath.
func (fs *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	path = cleanPath(path)
	next, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("too many files: %w", err))
	}
	if _, err := safecast.Conv[uint32](len(content)); err != nil {
		panic(fmt.Errorf("%s is too large: %w", path, err))
	}
	id := FileID(next)
	fs.files = append(fs.files, File{
		ID:      id,
		Path:    path,
		Content: content,
		LineIdx: indexLines(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags,
	})
	fs.byPath[path] = id
	return id
}

// AddContent drops a leading UTF-8 BOM and stores the rest.
func (fs *FileSet) AddContent(path string, content []byte, flags FileFlags) FileID {
	if rest, ok := stripBOM(content); ok {
		content, flags = rest, flags|FileHadBOM
	}
	return fs.Add(path, content, flags)
}

// AddVirtual stores stdin or in-memory input.
func (fs *FileSet) AddVirtual(name string, content []byte) FileID {
	return fs.AddContent(name, content, FileVirtual)
}

// Load reads path from disk. Line endings are left untouched since
// carriage returns are template text.
func (fs *FileSet) Load(path string) (FileID, error) {
	return fs.load(path, false)
}

// LoadNFC is Load plus Unicode NFC normalization. Content that is already
// NFC is stored without the FileNormalizedNFC flag.
func (fs *FileSet) LoadNFC(path string) (FileID, error) {
	return fs.load(path, true)
}

func (fs *FileSet) load(path string, nfc bool) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var flags FileFlags
	if nfc && !norm.NFC.IsNormal(content) {
		content = norm.NFC.Bytes(content)
		flags |= FileNormalizedNFC
	}
	return fs.AddContent(path, content, flags), nil
}

func (fs *FileSet) Get(id FileID) *File { return &fs.files[id] }

// GetByPath returns the newest file stored under path.
func (fs *FileSet) GetByPath(path string) (*File, bool) {
	id, ok := fs.byPath[cleanPath(path)]
	if !ok {
		return nil, false
	}
	return &fs.files[id], true
}

// Resolve maps both ends of span to line and column.
func (fs *FileSet) Resolve(span Span) (start, end LineCol) {
	f := &fs.files[span.File]
	return f.position(span.Start), f.position(span.End)
}
