// Package escape encodes literal template text for embedding inside a
// double-quoted string literal of the generated program.
//
// Only six characters are rewritten; every other code point, including
// multi-byte text, is copied unchanged. Callers must make sure the target
// language accepts the input encoding inside its string literals.
package escape

import (
	"strings"
	"unicode/utf8"
)

// Rune appends the escaped form of r to b.
func Rune(b *strings.Builder, r rune) {
	switch r {
	case '"':
		b.WriteString(`\"`)
	case '\\':
		b.WriteString(`\\`)
	case 0:
		b.WriteString(`\0`)
	case '\n':
		b.WriteString(`\n`)
	case '\r':
		b.WriteString(`\r`)
	case '\t':
		b.WriteString(`\t`)
	default:
		b.WriteRune(r)
	}
}

// NeedsEscape reports whether Rune would rewrite r.
func NeedsEscape(r rune) bool {
	switch r {
	case '"', '\\', 0, '\n', '\r', '\t':
		return true
	}
	return false
}

// String escapes every code point of s. Invalid bytes become U+FFFD.
// Valid text with nothing to escape is returned as is.
func String(s string) string {
	if utf8.ValidString(s) && !strings.ContainsFunc(s, NeedsEscape) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		Rune(&b, r)
	}
	return b.String()
}
