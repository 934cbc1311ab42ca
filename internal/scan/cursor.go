package scan

import (
	"fmt"

	"fortio.org/safecast"

	"r42/internal/source"
)

// Cursor walks a decoded array of code points. Lookahead never splits a
// multi-byte character; byte offsets are kept alongside for spans.
type Cursor struct {
	src  []rune
	offs []uint32 // offs[i] is the byte offset of src[i]; offs[len(src)] is the text length
	Off  int
}

// NewCursor decodes text into code points. Invalid UTF-8 bytes decode to
// utf8.RuneError, one per byte.
func NewCursor(text string) Cursor {
	n, err := safecast.Conv[uint32](len(text))
	if err != nil {
		panic(fmt.Errorf("template too large: %w", err))
	}
	src := make([]rune, 0, len(text))
	offs := make([]uint32, 0, len(text)+1)
	for i, r := range text {
		src = append(src, r)
		offs = append(offs, uint32(i))
	}
	offs = append(offs, n)
	return Cursor{src: src, offs: offs}
}

// Len returns the number of code points.
func (c *Cursor) Len() int {
	return len(c.src)
}

// EOF reports whether every code point has been consumed.
func (c *Cursor) EOF() bool {
	return c.Off >= len(c.src)
}

// Peek2 returns the current and next code points, or ok=false if fewer remain.
func (c *Cursor) Peek2() (r0, r1 rune, ok bool) {
	if c.Off+1 >= len(c.src) {
		return 0, 0, false
	}
	return c.src[c.Off], c.src[c.Off+1], true
}

// Peek3 returns the next three code points, or ok=false if fewer remain.
func (c *Cursor) Peek3() (r0, r1, r2 rune, ok bool) {
	if c.Off+2 >= len(c.src) {
		return 0, 0, 0, false
	}
	return c.src[c.Off], c.src[c.Off+1], c.src[c.Off+2], true
}

// Bump consumes and returns the current code point, or 0 at EOF.
func (c *Cursor) Bump() rune {
	if c.EOF() {
		return 0
	}
	r := c.src[c.Off]
	c.Off++
	return r
}

// try3 consumes a, b, c if they are next.
func (c *Cursor) try3(a, b, d rune) bool {
	r0, r1, r2, ok := c.Peek3()
	if !ok || r0 != a || r1 != b || r2 != d {
		return false
	}
	c.Off += 3
	return true
}

// try2 consumes a, b if they are next.
func (c *Cursor) try2(a, b rune) bool {
	r0, r1, ok := c.Peek2()
	if !ok || r0 != a || r1 != b {
		return false
	}
	c.Off += 2
	return true
}

// Mark is a saved cursor position.
type Mark int

// Mark saves the current position.
func (c *Cursor) Mark() Mark {
	return Mark(c.Off)
}

// ByteOffset returns the byte offset of m in the original text.
func (c *Cursor) ByteOffset(m Mark) uint32 {
	return c.offs[m]
}

// SpanBetween returns the byte span [from, to) in file.
func (c *Cursor) SpanBetween(file source.FileID, from, to Mark) source.Span {
	return source.Span{File: file, Start: c.offs[from], End: c.offs[to]}
}

// Slice returns the code points in [from, to) as a string.
func (c *Cursor) Slice(from, to Mark) string {
	return string(c.src[from:to])
}
