package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"r42/internal/lang"
	"r42/internal/source"
)

// Expand resolves glob patterns (with ** support) to a sorted,
// de-duplicated list of template files ending in .suffix. A pattern
// naming a directory matches every template below it.
func Expand(patterns []string, suffix string) ([]string, error) {
	suffix = "." + strings.TrimPrefix(suffix, ".")
	seen := make(map[string]struct{})
	var files []string
	for _, pattern := range patterns {
		if !hasMeta(pattern) {
			if fi, err := os.Stat(pattern); err == nil && fi.IsDir() {
				pattern = filepath.Join(pattern, "**", "*"+suffix)
			}
		}
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !strings.HasSuffix(m, suffix) {
				continue
			}
			m = filepath.Clean(m)
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	// Сортируем для детерминированного порядка
	slices.Sort(files)
	return files, nil
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// BatchSummary counts results by status.
type BatchSummary map[Status]int

// Summarize counts results by status.
func Summarize(results []FileResult) BatchSummary {
	sum := make(BatchSummary)
	for i := range results {
		sum[results[i].Status]++
	}
	return sum
}

// TransformBatch transforms files in parallel. Per-file failures are
// recorded in the results and never stop the batch; the returned error is
// non-nil only when ctx is cancelled.
func TransformBatch(ctx context.Context, files []string, reg *lang.Registry, opts Options) (*source.FileSet, []FileResult, error) {
	fileSet := source.NewFileSet()
	if len(files) == 0 {
		return fileSet, nil, nil
	}
	log := opts.logger()
	start := time.Now()

	// FileSet is not safe for concurrent mutation: load everything up front.
	loadErrors := make(map[string]error, len(files))
	for _, path := range files {
		if err := loadTemplate(fileSet, path, opts.Normalize); err != nil {
			loadErrors[path] = err
		}
		emit(opts.Progress, Event{File: path, Status: StatusQueued})
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// indices are unique per goroutine, no mutex needed
	results := make([]FileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			emit(opts.Progress, Event{File: path, Status: StatusWorking})
			res := process(fileSet, path, loadErrors[path], reg, opts)
			results[i] = *res
			emit(opts.Progress, Event{File: path, Status: res.Status, Err: res.Err, Elapsed: res.Elapsed})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fileSet, results, err
	}

	sum := Summarize(results)
	log.Info().
		Int("files", len(files)).
		Int("written", sum[StatusWritten]).
		Int("unchanged", sum[StatusUnchanged]).
		Int("failed", sum[StatusFailed]).
		Dur("elapsed", time.Since(start)).
		Msg("batch finished")
	return fileSet, results, nil
}

func normalizeNFC(b []byte) []byte {
	if norm.NFC.IsNormal(b) {
		return b
	}
	return norm.NFC.Bytes(b)
}
