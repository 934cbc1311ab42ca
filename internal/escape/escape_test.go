package escape

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRune(t *testing.T) {
	tests := []struct {
		name string
		in   rune
		want string
	}{
		{"quote", '"', `\"`},
		{"backslash", '\\', `\\`},
		{"nul", 0, `\0`},
		{"line feed", '\n', `\n`},
		{"carriage return", '\r', `\r`},
		{"tab", '\t', `\t`},
		{"ascii letter", 'a', "a"},
		{"single quote", '\'', "'"},
		{"accented", 'é', "é"},
		{"cjk", '語', "語"},
		{"emoji", '🚀', "🚀"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b strings.Builder
			Rune(&b, tt.in)
			assert.Equal(t, tt.want, b.String())
			assert.Equal(t, tt.want != string(tt.in), NeedsEscape(tt.in))
		})
	}
}

func TestStringOrder(t *testing.T) {
	got := String("\"\n\r\t\\\x00")
	assert.Equal(t, `\"\n\r\t\\\0`, got)
	assert.Len(t, got, 12)
}

func TestStringLeavesOtherTextAlone(t *testing.T) {
	assert.Equal(t, "café <b>naïve</b> {x}", String("café <b>naïve</b> {x}"))
	assert.Equal(t, "", String(""))
}

func TestStringInvalidBytes(t *testing.T) {
	assert.Equal(t, `a�b\\`, String("a\xffb\\"))
	assert.Equal(t, "a\uFFFDb", String("a\xffb"))
}
