package lang

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinOrder(t *testing.T) {
	r := Builtin()
	assert.Equal(t, []string{"Rust", "C#", "Java", "JavaScript", "Python"}, r.Names())
	assert.Equal(t, "Rust", r.Default().Name)
	assert.Equal(t, 5, r.Len())
}

func TestLookup(t *testing.T) {
	r := Builtin()

	l, ok := r.ByName("C#")
	require.True(t, ok)
	assert.Equal(t, CSharp, l.ID)
	assert.Equal(t, "cs", l.Extension)

	_, ok = r.ByName("rust")
	assert.False(t, ok, "names match exactly")

	l, ok = r.ByExtension("js")
	require.True(t, ok)
	assert.Equal(t, "JavaScript", l.Name)

	l, ok = r.ByExtension(".py")
	require.True(t, ok)
	assert.Equal(t, Python, l.ID)

	_, ok = r.ByExtension("go")
	assert.False(t, ok)
}

func TestAllReturnsCopy(t *testing.T) {
	r := Builtin()
	all := r.All()
	all[0].Name = "changed"
	assert.Equal(t, "Rust", r.Default().Name)
}

func TestEmitters(t *testing.T) {
	tests := []struct {
		lang ID
		lit  string
		expr string
	}{
		{Rust, "\nbuffer.push_str(\"a\\\"b\");\n", "\nbuffer.push_str(format!(\"{:?}\", x + 1).as_str());\n"},
		{CSharp, "\nbuffer.Write(\"a\\\"b\");\n", "\nbuffer.Write((x + 1).ToString());\n"},
		{Java, "\nbuffer.write(\"a\\\"b\");\n", "\nbuffer.write((x + 1).toString());\n"},
		{JavaScript, "\nwrite(\"a\\\"b\")\n", "\nwrite(x + 1)\n"},
		{Python, "\nbuffer.write(\"a\\\"b\")\n", "\nbuffer.write(str(x + 1))\n"},
	}
	r := Builtin()
	for _, tt := range tests {
		t.Run(tt.lang.String(), func(t *testing.T) {
			l := r.All()[tt.lang]
			require.Equal(t, tt.lang, l.ID)

			var b strings.Builder
			l.Emitter.WriteLiteral(&b, `a\"b`)
			assert.Equal(t, tt.lit, b.String())

			b.Reset()
			l.Emitter.WriteExpression(&b, "x + 1")
			assert.Equal(t, tt.expr, b.String())

			b.Reset()
			l.Emitter.WriteLiteral(&b, "")
			l.Emitter.WriteExpression(&b, "")
			assert.Empty(t, b.String())
		})
	}
}

func TestLanguageTransform(t *testing.T) {
	l, ok := Builtin().ByName("Rust")
	require.True(t, ok)

	got := l.Transform("<#let x = 5;#>value:<#=x#>")
	assert.Equal(t, "let x = 5;\nbuffer.push_str(\"value:\");\n\nbuffer.push_str(format!(\"{:?}\", x).as_str());\n", got)
}

func TestPattern(t *testing.T) {
	l, err := NewPattern("PHP", ".php", `echo "{}";`, `echo {}; // {}`)
	require.NoError(t, err)
	assert.Equal(t, Custom, l.ID)
	assert.Equal(t, "php", l.Extension)

	got := l.Transform("Hi <#= $name #>\n")
	assert.Equal(t, "\necho \"Hi \";\n\necho  $name ; //  $name \n\necho \"\\n\";\n", got)

	_, err = NewPattern("Bad", "bad", "echo", "{}")
	assert.ErrorIs(t, err, ErrInvalidLanguage)
}

func TestPatternWithoutPlaceholder(t *testing.T) {
	p := Pattern{Literal: "flush();", Expression: "print({})"}
	var b strings.Builder
	p.WriteLiteral(&b, "ignored")
	p.WriteExpression(&b, "x")
	p.WriteLiteral(&b, "")
	assert.Equal(t, "\nflush();\n\nprint(x)\n", b.String())
}

func TestWith(t *testing.T) {
	php, err := NewPattern("PHP", "php", `echo "{}";`, `echo {};`)
	require.NoError(t, err)

	r, err := Builtin().With(php)
	require.NoError(t, err)
	assert.Equal(t, 6, r.Len())
	l, ok := r.ByExtension("php")
	require.True(t, ok)
	assert.Equal(t, "PHP", l.Name)
	assert.Equal(t, 5, Builtin().Len())

	dupName, _ := NewPattern("Rust", "rs2", "{}", "{}")
	_, err = Builtin().With(dupName)
	assert.ErrorIs(t, err, ErrDuplicateName)

	dupExt, _ := NewPattern("Rusty", "rs", "{}", "{}")
	_, err = Builtin().With(dupExt)
	assert.ErrorIs(t, err, ErrDuplicateExtension)

	_, err = Builtin().With(Language{Name: "Nil", Extension: "nil"})
	assert.ErrorIs(t, err, ErrInvalidLanguage)

	_, err = New()
	assert.ErrorIs(t, err, ErrInvalidLanguage)
}

func TestSuggest(t *testing.T) {
	r := Builtin()
	assert.Equal(t, "Rust", first(r.Suggest("rust")))
	assert.Equal(t, "JavaScript", first(r.Suggest("javscript")))
	assert.Contains(t, r.Suggest("Jav"), "Java")
	assert.Equal(t, "Python", first(r.Suggest("Pyhton")))
	assert.Empty(t, r.Suggest("zzzzzz"))
	assert.Empty(t, r.Suggest("  "))
}

func first(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

func TestIDString(t *testing.T) {
	assert.Equal(t, "csharp", CSharp.String())
	assert.Equal(t, "unknown", ID(42).String())
}
