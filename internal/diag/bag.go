package diag

import (
	"cmp"
	"slices"

	"r42/internal/source"
)

// Bag collects diagnostics for one run. A positive limit caps how many are kept.
type Bag struct {
	items []Diagnostic
	limit int
}

// NewBag returns a bag keeping at most limit diagnostics; limit <= 0 keeps all.
func NewBag(limit int) *Bag {
	return &Bag{limit: limit}
}

func (b *Bag) full() bool {
	return b.limit > 0 && len(b.items) >= b.limit
}

// Add stores d and reports whether it was kept.
func (b *Bag) Add(d Diagnostic) bool {
	if b.full() {
		return false
	}
	b.items = append(b.items, d)
	return true
}

func (b *Bag) atLeast(sev Severity) bool {
	return slices.ContainsFunc(b.items, func(d Diagnostic) bool { return d.Severity >= sev })
}

// HasErrors reports whether any stored diagnostic is an error.
func (b *Bag) HasErrors() bool { return b.atLeast(SevError) }

// HasWarnings reports whether any stored diagnostic is a warning or worse.
func (b *Bag) HasWarnings() bool { return b.atLeast(SevWarning) }

func (b *Bag) Len() int { return len(b.items) }

// Items aliases the bag's storage.
func (b *Bag) Items() []Diagnostic { return b.items }

// Merge appends all of other. The limit grows so nothing from other is lost.
func (b *Bag) Merge(other *Bag) {
	if other == nil || len(other.items) == 0 {
		return
	}
	b.items = append(b.items, other.items...)
	if b.limit > 0 {
		b.limit = max(b.limit, len(b.items))
	}
}

// Filter drops every diagnostic keep rejects.
func (b *Bag) Filter(keep func(Diagnostic) bool) {
	b.items = slices.DeleteFunc(b.items, func(d Diagnostic) bool { return !keep(d) })
}

// AtLeast drops diagnostics below sev.
func (b *Bag) AtLeast(sev Severity) {
	b.Filter(func(d Diagnostic) bool { return d.Severity >= sev })
}

// Sort gives a stable output order: path, file, position, then the most
// severe first.
func (b *Bag) Sort() {
	slices.SortStableFunc(b.items, func(x, y Diagnostic) int {
		return cmp.Or(
			cmp.Compare(x.Path, y.Path),
			cmp.Compare(x.Primary.File, y.Primary.File),
			cmp.Compare(x.Primary.Start, y.Primary.Start),
			cmp.Compare(x.Primary.End, y.Primary.End),
			cmp.Compare(y.Severity, x.Severity),
			cmp.Compare(x.Code, y.Code),
		)
	})
}

type dedupKey struct {
	code Code
	path string
	span source.Span
}

// Dedup keeps the first diagnostic of each (code, path, span) triple.
func (b *Bag) Dedup() {
	seen := make(map[dedupKey]struct{}, len(b.items))
	b.items = slices.DeleteFunc(b.items, func(d Diagnostic) bool {
		k := dedupKey{d.Code, d.Path, d.Primary}
		if _, dup := seen[k]; dup {
			return true
		}
		seen[k] = struct{}{}
		return false
	})
}
