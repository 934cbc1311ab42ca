package scan

import (
	"r42/internal/diag"
	"r42/internal/source"
)

// Segment is one completed region of a template.
// Text is the region's raw content: literal text is not escaped and tag
// markers are excluded.
type Segment struct {
	State State
	Span  source.Span
	Text  string
	// Closed is false for a code or expression block cut off by end of input.
	Closed bool
}

// Options configures a Scanner. Neither field changes the generated output.
type Options struct {
	// Reporter receives warnings about unterminated tags; may be nil.
	Reporter diag.Reporter
	// Observer receives every region in source order; may be nil.
	Observer func(Segment)
}

func (s *Scanner) observe(seg Segment) {
	if s.opts.Observer != nil {
		s.opts.Observer(seg)
	}
}
