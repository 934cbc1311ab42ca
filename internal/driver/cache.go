package driver

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/natefinch/atomic"
	"github.com/vmihailenco/msgpack/v5"

	"r42/internal/project"
)

// CacheDirEnv overrides the cache location.
const CacheDirEnv = "R42_CACHE_DIR"

// Current schema version - increment when CacheRecord format changes
const cacheSchemaVersion uint16 = 1

// Cache remembers, per template, what was last written to its output so
// unchanged outputs are not rewritten. Thread-safe for concurrent access.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// CacheRecord describes the last output written for one template.
type CacheRecord struct {
	Schema uint16

	Template string
	Output   string
	Language string

	InputHash  project.Digest // template content after BOM strip and NFC
	OutputHash project.Digest // generated source

	// Output file stat at write time; a mismatch means someone touched it.
	OutputSize    int64
	OutputModTime int64 // unix nanoseconds
}

// CacheDir resolves the cache directory: $R42_CACHE_DIR, else
// $XDG_CACHE_HOME/<app>.
func CacheDir(app string) string {
	if dir := os.Getenv(CacheDirEnv); dir != "" {
		return dir
	}
	return filepath.Join(xdg.CacheHome, app)
}

// OpenCache initializes and returns a cache at the standard location.
func OpenCache(app string) (*Cache, error) {
	return NewCache(CacheDir(app))
}

// NewCache returns a cache rooted at dir, creating it if needed.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *Cache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

// CacheKey derives the record key for a template path.
func CacheKey(templatePath string) project.Digest {
	if abs, err := filepath.Abs(templatePath); err == nil {
		templatePath = abs
	}
	return project.HashString(filepath.ToSlash(templatePath))
}

func (c *Cache) pathFor(key project.Digest) string {
	return filepath.Join(c.dir, "outputs", key.String()+".mp")
}

// Put serializes and writes a record.
func (c *Cache) Put(key project.Digest, rec *CacheRecord) error {
	if c == nil {
		return nil
	}
	rec.Schema = cacheSchemaVersion
	data, err := msgpack.Marshal(rec)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return atomic.WriteFile(p, bytes.NewReader(data))
}

// Get reads a record. Records from another schema version count as misses.
func (c *Cache) Get(key project.Digest, out *CacheRecord) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if err := msgpack.Unmarshal(data, out); err != nil {
		return false, err
	}
	return out.Schema == cacheSchemaVersion, nil
}

// DropAll removes every record.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	dir := filepath.Join(c.dir, "outputs")
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	// rename first so a concurrent run never sees a half-deleted tree
	old := dir + ".old-" + time.Now().Format("20060102150405.000000000")
	if err := os.Rename(dir, old); err != nil {
		return err
	}
	return os.RemoveAll(old)
}

// Fresh reports whether rec still describes the file at rec.Output and
// matches a transform that produced outputHash from inputHash.
func (rec *CacheRecord) Fresh(inputHash, outputHash project.Digest, language string) bool {
	if rec.InputHash != inputHash || rec.OutputHash != outputHash || rec.Language != language {
		return false
	}
	fi, err := os.Stat(rec.Output)
	if err != nil || !fi.Mode().IsRegular() {
		return false
	}
	return fi.Size() == rec.OutputSize && fi.ModTime().UnixNano() == rec.OutputModTime
}

// newCacheRecord stats the freshly written output.
func newCacheRecord(template, output, language string, inputHash, outputHash project.Digest) (*CacheRecord, error) {
	fi, err := os.Stat(output)
	if err != nil {
		return nil, err
	}
	return &CacheRecord{
		Template:      template,
		Output:        output,
		Language:      language,
		InputHash:     inputHash,
		OutputHash:    outputHash,
		OutputSize:    fi.Size(),
		OutputModTime: fi.ModTime().UnixNano(),
	}, nil
}
