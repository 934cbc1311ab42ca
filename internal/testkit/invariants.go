// Package testkit holds checks shared by tests and fuzz harnesses.
package testkit

import (
	"fmt"
	"unicode/utf8"

	"fortio.org/safecast"

	"r42/internal/scan"
	"r42/internal/source"
)

// CheckSegmentInvariants verifies the regions a scanner reported for sf:
// 1) every span points into sf, lies within its content and is ordered
// 2) the gaps between regions are exactly tag markers
// 3) template regions are non-empty and closed; only the last region may be open
// 4) for valid UTF-8 input, Text equals the bytes under Span
func CheckSegmentInvariants(sf *source.File, segs []scan.Segment) error {
	if sf == nil {
		return fmt.Errorf("nil file")
	}
	size, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	valid := utf8.Valid(sf.Content)

	var prevEnd uint32
	prevState := scan.Template
	for i, seg := range segs {
		sp := seg.Span
		if sp.File != sf.ID {
			return fmt.Errorf("segment %d: span file mismatch: got=%d want=%d", i, sp.File, sf.ID)
		}
		if sp.Start > sp.End || sp.End > size {
			return fmt.Errorf("segment %d: span %v out of bounds (size %d)", i, sp, size)
		}
		if sp.Start < prevEnd {
			return fmt.Errorf("segment %d: span %v overlaps previous end %d", i, sp, prevEnd)
		}

		gap := string(sf.Content[prevEnd:sp.Start])
		if err := checkGap(gap, i == 0, prevState, seg.State); err != nil {
			return fmt.Errorf("segment %d: %w", i, err)
		}

		if seg.State == scan.Template {
			if sp.Empty() {
				return fmt.Errorf("segment %d: empty template region", i)
			}
			if !seg.Closed {
				return fmt.Errorf("segment %d: template region marked unterminated", i)
			}
		}
		if !seg.Closed && i != len(segs)-1 {
			return fmt.Errorf("segment %d: unterminated region is not last", i)
		}
		if valid && seg.Text != string(sf.Content[sp.Start:sp.End]) {
			return fmt.Errorf("segment %d: text %q does not match content %q", i, seg.Text, sf.Content[sp.Start:sp.End])
		}

		prevEnd = sp.End
		prevState = seg.State
	}

	tail := string(sf.Content[prevEnd:])
	if len(segs) > 0 && !segs[len(segs)-1].Closed {
		if tail != "" {
			return fmt.Errorf("content after unterminated region: %q", tail)
		}
		return nil
	}
	if tail == "" || (prevState != scan.Template && tail == scan.Close) {
		return nil
	}
	return fmt.Errorf("unexpected trailing content %q", tail)
}

// checkGap validates the markers between two regions. A gap may close the
// previous block, open the next one, or both, with empty blocks in between.
func checkGap(gap string, first bool, prev, next scan.State) error {
	rest := gap
	if !first && prev != scan.Template {
		if len(rest) < len(scan.Close) || rest[:len(scan.Close)] != scan.Close {
			return fmt.Errorf("gap %q does not close the previous block", gap)
		}
		rest = rest[len(scan.Close):]
	}
	want := ""
	switch next {
	case scan.Code:
		want = scan.OpenCode
	case scan.Expression:
		want = scan.OpenExpression
	}
	if len(rest) < len(want) || rest[len(rest)-len(want):] != want {
		return fmt.Errorf("gap %q does not open a %s block", gap, next)
	}
	if middle := rest[:len(rest)-len(want)]; middle != "" {
		return fmt.Errorf("gap %q holds unreported text %q", gap, middle)
	}
	return nil
}
