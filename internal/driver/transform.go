package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/natefinch/atomic"
	"github.com/rs/zerolog"

	"r42/internal/diag"
	"r42/internal/lang"
	"r42/internal/logging"
	"r42/internal/project"
	"r42/internal/scan"
	"r42/internal/source"
)

// Options configures file transforms.
type Options struct {
	// MaxDiagnostics caps each file's bag; 0 means unlimited.
	MaxDiagnostics int
	// Suffix is the template extension; empty means project.DefaultSuffix.
	Suffix string
	// Jobs caps parallel workers in TransformBatch; 0 means GOMAXPROCS.
	Jobs int
	// DryRun generates outputs without writing them.
	DryRun bool
	// Normalize applies Unicode NFC to templates on load.
	Normalize bool
	// Cache skips rewriting up-to-date outputs; nil disables it.
	Cache *Cache
	// Progress receives per-file events; may be nil.
	Progress ProgressSink
	// Logger defaults to the "driver" component logger.
	Logger *zerolog.Logger
}

func (o Options) suffix() string {
	if s := strings.TrimPrefix(o.Suffix, "."); s != "" {
		return s
	}
	return project.DefaultSuffix
}

func (o Options) logger() zerolog.Logger {
	if o.Logger != nil {
		return *o.Logger
	}
	return logging.Get("driver")
}

// FileResult is the outcome for one template.
type FileResult struct {
	Path     string        // template path as given
	OutPath  string        // empty when the language could not be resolved
	FileID   source.FileID // valid only when Loaded
	Loaded   bool
	Language string
	Output   string
	Status   Status
	Bag      *diag.Bag
	Err      error // wraps one of the Err* sentinels when Status is StatusFailed
	Elapsed  time.Duration
}

// Failed reports whether the file could not be transformed or written.
func (r *FileResult) Failed() bool {
	return r.Status == StatusFailed
}

// SourceResult is the outcome of an in-memory transform.
type SourceResult struct {
	FileSet *source.FileSet
	File    *source.File
	Output  string
	Bag     *diag.Bag
}

// TransformSource transforms src, registered under name as a virtual file.
func TransformSource(name string, src []byte, l lang.Language, opts Options) *SourceResult {
	fs := source.NewFileSet()
	if opts.Normalize {
		src = normalizeNFC(src)
	}
	file := fs.Get(fs.AddVirtual(name, src))
	res := &SourceResult{
		FileSet: fs,
		File:    file,
		Bag:     diag.NewBag(opts.MaxDiagnostics),
	}
	if d, bad := checkUTF8(file); bad {
		res.Bag.Add(d)
		return res
	}
	res.Output = transformFile(file, l, res.Bag)
	return res
}

// checkUTF8 reports the first byte of f that does not start a valid UTF-8
// sequence.
func checkUTF8(f *source.File) (diag.Diagnostic, bool) {
	if utf8.Valid(f.Content) {
		return diag.Diagnostic{}, false
	}
	off := 0
	for off < len(f.Content) {
		r, size := utf8.DecodeRune(f.Content[off:])
		if r == utf8.RuneError && size <= 1 {
			break
		}
		off += size
	}
	sp := source.Span{File: f.ID, Start: uint32(off), End: uint32(off + 1)}
	msg := fmt.Sprintf("invalid UTF-8 byte 0x%02x", f.Content[off])
	return diag.NewError(diag.IOInvalidUTF8, sp, msg), true
}

// TransformFile loads, transforms and (unless DryRun) writes one template.
// The returned error is FileResult.Err.
func TransformFile(path string, reg *lang.Registry, opts Options) (*FileResult, *source.FileSet, error) {
	fs := source.NewFileSet()
	loadErr := loadTemplate(fs, path, opts.Normalize)
	res := process(fs, path, loadErr, reg, opts)
	return res, fs, res.Err
}

func loadTemplate(fs *source.FileSet, path string, normalize bool) error {
	var err error
	if normalize {
		_, err = fs.LoadNFC(path)
	} else {
		_, err = fs.Load(path)
	}
	return err
}

func transformFile(f *source.File, l lang.Language, bag *diag.Bag) string {
	return scan.NewFile(f, scan.Options{Reporter: diag.BagReporter{Bag: bag}}).Run(l.Emitter)
}

// process runs the full per-file pipeline. fs must already hold path
// unless loadErr is set; process only reads from fs.
func process(fs *source.FileSet, path string, loadErr error, reg *lang.Registry, opts Options) *FileResult {
	start := time.Now()
	log := opts.logger()
	res := &FileResult{
		Path: path,
		Bag:  diag.NewBag(opts.MaxDiagnostics),
	}
	finish := func(status Status, err error) *FileResult {
		res.Status = status
		res.Err = err
		res.Elapsed = time.Since(start)
		return res
	}

	out, l, d, err := resolveLanguage(path, opts.suffix(), reg)
	if err != nil {
		res.Bag.Add(*d)
		if errors.Is(err, ErrNotTemplate) {
			log.Debug().Str("file", path).Msg("skipping non-template")
			return finish(StatusSkipped, nil)
		}
		log.Debug().Err(err).Str("file", path).Msg("cannot resolve language")
		return finish(StatusFailed, err)
	}
	res.OutPath = out
	res.Language = l.Name

	if loadErr != nil {
		res.Bag.Add(diag.NewPathError(diag.IOLoadFileError, path, "failed to load file: "+loadErr.Error()))
		return finish(StatusFailed, fmt.Errorf("%s: %w: %w", path, ErrFileNotReadable, loadErr))
	}
	file, ok := fs.GetByPath(path)
	if !ok {
		res.Bag.Add(diag.NewPathError(diag.IOLoadFileError, path, "file was not loaded"))
		return finish(StatusFailed, fmt.Errorf("%s: %w", path, ErrFileNotReadable))
	}
	res.FileID = file.ID
	res.Loaded = true
	if d, bad := checkUTF8(file); bad {
		res.Bag.Add(d)
		log.Debug().Str("file", path).Msg("template is not valid UTF-8")
		return finish(StatusFailed, fmt.Errorf("%s: %w: %s", path, ErrFileNotReadable, d.Message))
	}
	res.Output = transformFile(file, l, res.Bag)

	if opts.DryRun {
		log.Debug().Str("file", path).Str("language", l.Name).Msg("dry run")
		return finish(StatusDryRun, nil)
	}

	outAbs := out
	if abs, err := filepath.Abs(out); err == nil {
		outAbs = abs
	}
	key := CacheKey(path)
	outHash := project.HashString(res.Output)
	if opts.Cache != nil {
		var rec CacheRecord
		hit, err := opts.Cache.Get(key, &rec)
		if err != nil {
			res.Bag.Add(cacheWarning(diag.IOCacheReadError, path, err))
		}
		if hit && rec.Output == outAbs && rec.Fresh(file.Hash, outHash, l.Name) {
			log.Debug().Str("file", path).Str("output", out).Bool("cache_hit", true).Msg("output up to date")
			return finish(StatusUnchanged, nil)
		}
	}

	if err := writeOutput(out, res.Output); err != nil {
		res.Bag.Add(diag.NewPathError(diag.IOWriteFileError, out, "failed to write output: "+err.Error()))
		return finish(StatusFailed, fmt.Errorf("%s: %w: %w", out, ErrFileWriteFailure, err))
	}
	log.Debug().Str("file", path).Str("language", l.Name).Str("output", out).Bool("cache_hit", false).Msg("output written")

	if opts.Cache != nil {
		rec, err := newCacheRecord(path, outAbs, l.Name, file.Hash, outHash)
		if err == nil {
			err = opts.Cache.Put(key, rec)
		}
		if err != nil {
			res.Bag.Add(cacheWarning(diag.IOCacheWriteError, path, err))
		}
	}
	return finish(StatusWritten, nil)
}

// writeOutput replaces path atomically. New files get 0644; existing
// files keep their mode.
func writeOutput(path, content string) error {
	_, statErr := os.Stat(path)
	if err := atomic.WriteFile(path, strings.NewReader(content)); err != nil {
		return err
	}
	if errors.Is(statErr, os.ErrNotExist) {
		return os.Chmod(path, 0o644)
	}
	return nil
}

func cacheWarning(code diag.Code, path string, err error) diag.Diagnostic {
	d := diag.NewPathError(code, path, err.Error())
	d.Severity = diag.SevWarning
	return d
}
