// Package fix applies the edits attached to diagnostics back to template
// files.
package fix

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/natefinch/atomic"

	"r42/internal/diag"
	"r42/internal/source"
)

// ErrNoFixes means nothing was applied; the result still lists skips.
var ErrNoFixes = errors.New("no applicable fixes found")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ApplyMode picks which fixes Apply considers.
type ApplyMode uint8

const (
	// ApplyModeAll applies every fix that does not conflict with an earlier one.
	ApplyModeAll ApplyMode = iota
	// ApplyModeCode applies only fixes of diagnostics whose code ID matches.
	ApplyModeCode
)

// ApplyOptions controls Apply.
type ApplyOptions struct {
	Mode       ApplyMode
	TargetCode string // diag.Code ID such as TPL1001
	// DryRun computes file changes without writing them.
	DryRun bool
}

// AppliedFix is a fix whose edits made it into the output.
type AppliedFix struct {
	ID        string
	Title     string
	Code      diag.Code
	Message   string
	Path      string
	EditCount int
}

// SkippedFix is a fix left out, with the reason why.
type SkippedFix struct {
	ID     string
	Title  string
	Reason string
}

// FileChange is the new content of one template.
type FileChange struct {
	Path      string
	EditCount int
	Content   []byte // new file content, BOM restored
}

// ApplyResult is everything Apply did or declined to do.
type ApplyResult struct {
	Applied     []AppliedFix
	Skipped     []SkippedFix
	FileChanges []FileChange
}

type candidate struct {
	diag  diag.Diagnostic
	fix   diag.Fix
	id    string
	order int
}

// plan holds the accepted edits of one file in original offsets. Accepted
// edits never overlap, so the output is assembled in one forward pass.
type plan struct {
	file  *source.File
	edits []plannedEdit
}

type plannedEdit struct {
	diag.FixEdit
	seq int
}

// Apply gathers the fixes attached to diagnostics, keeps those selected by
// opts that do not overlap an earlier one, and writes the result unless
// opts.DryRun is set. Fixes are atomic: either all their edits apply or none.
func Apply(fs *source.FileSet, diagnostics []diag.Diagnostic, opts ApplyOptions) (*ApplyResult, error) {
	result := &ApplyResult{}
	if fs == nil {
		return result, errors.New("fix: no file set")
	}

	candidates, skips := gather(diagnostics)
	result.Skipped = append(result.Skipped, skips...)
	candidates, skips = selectFor(candidates, opts)
	result.Skipped = append(result.Skipped, skips...)
	if len(candidates) == 0 {
		return result, ErrNoFixes
	}

	plans := map[source.FileID]*plan{}
	seq := 0
	for _, c := range candidates {
		if reason := accept(fs, plans, c, &seq); reason != "" {
			result.Skipped = append(result.Skipped, SkippedFix{ID: c.id, Title: c.fix.Title, Reason: reason})
			continue
		}
		result.Applied = append(result.Applied, AppliedFix{
			ID:        c.id,
			Title:     c.fix.Title,
			Code:      c.diag.Code,
			Message:   c.diag.Message,
			Path:      fs.Get(c.diag.Primary.File).FormatPath("relative", fs.BaseDir()),
			EditCount: len(c.fix.Edits),
		})
	}
	if len(result.Applied) == 0 {
		return result, ErrNoFixes
	}

	for _, id := range slices.Sorted(maps.Keys(plans)) {
		result.FileChanges = append(result.FileChanges, plans[id].render())
	}
	slices.SortStableFunc(result.FileChanges, func(a, b FileChange) int { return strings.Compare(a.Path, b.Path) })
	if opts.DryRun {
		return result, nil
	}
	return result, writeChanges(result.FileChanges)
}

// gather makes one candidate per fix. IDs combine the diagnostic code,
// file, start offset and fix index. Candidates are ordered by position,
// ties keeping diagnostic order.
func gather(diagnostics []diag.Diagnostic) ([]candidate, []SkippedFix) {
	var (
		out   []candidate
		skips []SkippedFix
	)
	for _, d := range diagnostics {
		if d.Detached() {
			continue
		}
		for i, f := range d.Fixes {
			id := fmt.Sprintf("%s-%d-%d-%d", d.Code.ID(), d.Primary.File, d.Primary.Start, i)
			if len(f.Edits) == 0 {
				skips = append(skips, SkippedFix{ID: id, Title: f.Title, Reason: "fix has no edits"})
				continue
			}
			out = append(out, candidate{diag: d, fix: f, id: id, order: len(out)})
		}
	}
	slices.SortStableFunc(out, func(a, b candidate) int {
		return cmp.Or(
			cmp.Compare(a.diag.Primary.File, b.diag.Primary.File),
			cmp.Compare(a.diag.Primary.Start, b.diag.Primary.Start),
			cmp.Compare(a.diag.Primary.End, b.diag.Primary.End),
			cmp.Compare(a.order, b.order),
		)
	})
	return out, skips
}

func selectFor(candidates []candidate, opts ApplyOptions) ([]candidate, []SkippedFix) {
	if opts.Mode != ApplyModeCode {
		return candidates, nil
	}
	picked := slices.DeleteFunc(candidates, func(c candidate) bool { return c.diag.Code.ID() != opts.TargetCode })
	if len(picked) == 0 {
		return nil, []SkippedFix{{ID: opts.TargetCode, Reason: "no fixes for code"}}
	}
	return picked, nil
}

// accept validates every edit of c and, when all pass, adds them to plans.
// It returns the reason for rejecting the fix.
func accept(fs *source.FileSet, plans map[source.FileID]*plan, c candidate, seq *int) string {
	for i, e := range c.fix.Edits {
		if int(e.Span.File) >= fs.Len() {
			return "edit points to an unknown file"
		}
		f := fs.Get(e.Span.File)
		switch {
		case f.Flags.Has(source.FileVirtual):
			return "target file is virtual"
		case f.Flags.Has(source.FileNormalizedNFC):
			return "template was normalized on load"
		case e.Span.End < e.Span.Start || int(e.Span.End) > len(f.Content):
			return "edit span out of range"
		}
		for _, other := range c.fix.Edits[:i] {
			if other.Span.File == e.Span.File && spansConflict(other, e) {
				return "fix edits overlap each other"
			}
		}
		if p := plans[e.Span.File]; p != nil && p.conflicts(e) {
			return "conflicts with previously applied edits in " + f.FormatPath("relative", fs.BaseDir())
		}
	}
	for _, e := range c.fix.Edits {
		p := plans[e.Span.File]
		if p == nil {
			p = &plan{file: fs.Get(e.Span.File)}
			plans[e.Span.File] = p
		}
		p.edits = append(p.edits, plannedEdit{FixEdit: e, seq: *seq})
		*seq++
	}
	return ""
}

func (p *plan) conflicts(e diag.FixEdit) bool {
	return slices.ContainsFunc(p.edits, func(prev plannedEdit) bool { return spansConflict(prev.FixEdit, e) })
}

// render splices the edits into the original content. Edits sharing a
// start offset apply insertions first, then in acceptance order.
func (p *plan) render() FileChange {
	edits := slices.Clone(p.edits)
	slices.SortFunc(edits, func(a, b plannedEdit) int {
		return cmp.Or(
			cmp.Compare(a.Span.Start, b.Span.Start),
			cmp.Compare(a.Span.End, b.Span.End),
			cmp.Compare(a.seq, b.seq),
		)
	})

	var out bytes.Buffer
	if p.file.Flags.Has(source.FileHadBOM) {
		out.Write(utf8BOM)
	}
	prev := uint32(0)
	for _, e := range edits {
		out.Write(p.file.Content[prev:e.Span.Start])
		out.WriteString(e.NewText)
		prev = e.Span.End
	}
	out.Write(p.file.Content[prev:])
	return FileChange{Path: p.file.Path, EditCount: len(edits), Content: out.Bytes()}
}

// writeChanges replaces each file atomically and keeps its permissions.
func writeChanges(changes []FileChange) error {
	for _, ch := range changes {
		mode := os.FileMode(0o644)
		if info, err := os.Stat(ch.Path); err == nil {
			mode = info.Mode().Perm()
		}
		if err := atomic.WriteFile(ch.Path, bytes.NewReader(ch.Content)); err != nil {
			return fmt.Errorf("write %s: %w", ch.Path, err)
		}
		if err := os.Chmod(ch.Path, mode); err != nil {
			return fmt.Errorf("chmod %s: %w", ch.Path, err)
		}
	}
	return nil
}

// spansConflict reports whether two edits overlap. Two insertions never
// conflict; an insertion conflicts only with a span strictly around it.
func spansConflict(a, b diag.FixEdit) bool {
	as, ae, bs, be := a.Span.Start, a.Span.End, b.Span.Start, b.Span.End
	switch {
	case as == ae && bs == be:
		return false
	case as == ae:
		return bs < as && as < be
	case bs == be:
		return as < bs && bs < ae
	default:
		return as < be && bs < ae
	}
}
