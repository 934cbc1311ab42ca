package scan

import (
	"strings"

	"r42/internal/diag"
	"r42/internal/escape"
	"r42/internal/source"
)

// Scanner is the single-pass transform engine. It is single-use: create
// one per input with New or NewFile and call Run once.
type Scanner struct {
	file   source.FileID
	cursor Cursor
	opts   Options
	state  State

	out     strings.Builder
	literal strings.Builder // escaped, live only in Template
	expr    strings.Builder // raw, live only in Expression

	open  Mark // first code point of the tag that opened the current block
	start Mark // first code point of the current region's content
}

// New creates a scanner over text. Spans use file ID 0.
func New(text string, opts Options) *Scanner {
	s := &Scanner{
		cursor: NewCursor(text),
		opts:   opts,
		state:  Template,
	}
	s.out.Grow(len(text) + len(text)/5)
	return s
}

// NewFile creates a scanner over a loaded template file.
func NewFile(f *source.File, opts Options) *Scanner {
	s := New(string(f.Content), opts)
	s.file = f.ID
	return s
}

// Transform converts a template into target-language source using the
// given writers. It never fails: unterminated tags are flushed at end of input.
func Transform(input string, literal, expression WriterFunc) string {
	return New(input, Options{}).Run(Funcs{Literal: literal, Expression: expression})
}

// TransformWith is Transform with an Emitter.
func TransformWith(input string, e Emitter) string {
	return New(input, Options{}).Run(e)
}

// Segments splits input into its regions without generating code.
func Segments(input string) []Segment {
	var segs []Segment
	New(input, Options{Observer: func(seg Segment) {
		segs = append(segs, seg)
	}}).Run(Funcs{})
	return segs
}

// Run scans the whole input and returns the generated source.
func (s *Scanner) Run(e Emitter) string {
	for !s.cursor.EOF() {
		switch s.state {
		case Template:
			s.scanTemplate(e)
		case Code:
			s.scanCode()
		case Expression:
			s.scanExpression(e)
		}
	}
	s.finish(e)
	return s.out.String()
}

func (s *Scanner) scanTemplate(e Emitter) {
	m := s.cursor.Mark()
	// <#= must be tried before <#
	if s.cursor.try3('<', '#', '=') {
		s.flushLiteral(e, m)
		s.enter(Expression, m)
		return
	}
	if s.cursor.try2('<', '#') {
		s.flushLiteral(e, m)
		s.enter(Code, m)
		return
	}
	escape.Rune(&s.literal, s.cursor.Bump())
}

func (s *Scanner) scanCode() {
	m := s.cursor.Mark()
	if s.cursor.try2('#', '>') {
		s.observeBlock(Code, m, true)
		s.enter(Template, m)
		return
	}
	s.out.WriteRune(s.cursor.Bump())
}

func (s *Scanner) scanExpression(e Emitter) {
	m := s.cursor.Mark()
	if s.cursor.try2('#', '>') {
		s.flushExpression(e, m, true)
		s.enter(Template, m)
		return
	}
	s.expr.WriteRune(s.cursor.Bump())
}

func (s *Scanner) enter(state State, open Mark) {
	s.state = state
	s.open = open
	s.start = s.cursor.Mark()
}

// flushLiteral writes and clears the literal buffer; end is where the
// literal region stops.
func (s *Scanner) flushLiteral(e Emitter, end Mark) {
	if s.literal.Len() == 0 {
		return
	}
	e.WriteLiteral(&s.out, s.literal.String())
	s.literal.Reset()
	s.observe(Segment{
		State:  Template,
		Span:   s.cursor.SpanBetween(s.file, s.start, end),
		Text:   s.cursor.Slice(s.start, end),
		Closed: true,
	})
}

func (s *Scanner) flushExpression(e Emitter, end Mark, closed bool) {
	if s.expr.Len() > 0 {
		e.WriteExpression(&s.out, s.expr.String())
		s.expr.Reset()
	} else if closed && s.opts.Reporter != nil {
		diag.ReportInfo(s.opts.Reporter, diag.TplEmptyExpression, s.tagSpan(end),
			"expression block is empty and produces no output").Emit()
	}
	s.observeBlock(Expression, end, closed)
}

func (s *Scanner) observeBlock(state State, end Mark, closed bool) {
	s.observe(Segment{
		State:  state,
		Span:   s.cursor.SpanBetween(s.file, s.start, end),
		Text:   s.cursor.Slice(s.start, end),
		Closed: closed,
	})
}

// finish applies the end-of-input policy. Code has already been streamed,
// so an open code block needs no flush.
func (s *Scanner) finish(e Emitter) {
	end := s.cursor.Mark()
	switch s.state {
	case Template:
		s.flushLiteral(e, end)
	case Code:
		s.observeBlock(Code, end, false)
		s.reportUnterminated(diag.TplUnterminatedCode, "code block is not closed with #>")
	case Expression:
		s.flushExpression(e, end, false)
		s.reportUnterminated(diag.TplUnterminatedExpression, "expression block is not closed with #>")
	}
}

func (s *Scanner) reportUnterminated(code diag.Code, msg string) {
	if s.opts.Reporter == nil {
		return
	}
	eof := source.At(s.file, s.cursor.ByteOffset(s.cursor.Mark()))
	diag.ReportWarning(s.opts.Reporter, code, s.cursor.SpanBetween(s.file, s.open, s.start), msg).
		WithNote(eof, "input ends here").
		WithFix("close the block", diag.FixEdit{
			Span:    eof,
			NewText: Close,
		}).
		Emit()
}

// tagSpan covers the whole current tag, markers included, up to the
// closing marker that starts at end.
func (s *Scanner) tagSpan(end Mark) source.Span {
	return s.cursor.SpanBetween(s.file, s.open, end+Mark(len(Close)))
}
