package lang

import (
	"strings"

	"r42/internal/scan"
)

// statement appends "\n" + prefix + fragment + suffix + "\n" unless
// fragment is empty.
func statement(out *strings.Builder, prefix, fragment, suffix string) {
	if fragment == "" {
		return
	}
	out.Grow(len(prefix) + len(fragment) + len(suffix) + 2)
	out.WriteByte('\n')
	out.WriteString(prefix)
	out.WriteString(fragment)
	out.WriteString(suffix)
	out.WriteByte('\n')
}

// Rust writes into a String named buffer; expressions use Debug formatting.
type rustEmitter struct{}

func (rustEmitter) WriteLiteral(out *strings.Builder, fragment string) {
	statement(out, `buffer.push_str("`, fragment, `");`)
}

func (rustEmitter) WriteExpression(out *strings.Builder, fragment string) {
	statement(out, `buffer.push_str(format!("{:?}", `, fragment, `).as_str());`)
}

// C# writes into a TextWriter named buffer.
type csharpEmitter struct{}

func (csharpEmitter) WriteLiteral(out *strings.Builder, fragment string) {
	statement(out, `buffer.Write("`, fragment, `");`)
}

func (csharpEmitter) WriteExpression(out *strings.Builder, fragment string) {
	statement(out, `buffer.Write((`, fragment, `).ToString());`)
}

// Java writes into a Writer named buffer.
type javaEmitter struct{}

func (javaEmitter) WriteLiteral(out *strings.Builder, fragment string) {
	statement(out, `buffer.write("`, fragment, `");`)
}

func (javaEmitter) WriteExpression(out *strings.Builder, fragment string) {
	statement(out, `buffer.write((`, fragment, `).toString());`)
}

// JavaScript calls a write function in scope and relies on implicit coercion.
type javascriptEmitter struct{}

func (javascriptEmitter) WriteLiteral(out *strings.Builder, fragment string) {
	statement(out, `write("`, fragment, `")`)
}

func (javascriptEmitter) WriteExpression(out *strings.Builder, fragment string) {
	statement(out, `write(`, fragment, `)`)
}

// Python writes into a file-like object named buffer.
type pythonEmitter struct{}

func (pythonEmitter) WriteLiteral(out *strings.Builder, fragment string) {
	statement(out, `buffer.write("`, fragment, `")`)
}

func (pythonEmitter) WriteExpression(out *strings.Builder, fragment string) {
	statement(out, `buffer.write(str(`, fragment, `))`)
}

// Placeholder marks where a Pattern inserts the fragment.
const Placeholder = "{}"

// Pattern is an Emitter built from two statement templates. Every
// Placeholder in a template is replaced by the fragment. Literal fragments
// are already escaped, so a literal template normally wraps the
// placeholder in double quotes. NewPattern rejects templates without a
// placeholder; a Pattern built by hand with one emits it unchanged.
type Pattern struct {
	Literal    string
	Expression string
}

var _ scan.Emitter = Pattern{}

func (p Pattern) WriteLiteral(out *strings.Builder, fragment string) {
	p.write(out, p.Literal, fragment)
}

func (p Pattern) WriteExpression(out *strings.Builder, fragment string) {
	p.write(out, p.Expression, fragment)
}

func (Pattern) write(out *strings.Builder, tmpl, fragment string) {
	if fragment == "" {
		return
	}
	i := strings.Index(tmpl, Placeholder)
	if i < 0 {
		out.WriteByte('\n')
		out.WriteString(tmpl)
		out.WriteByte('\n')
		return
	}
	statement(out, tmpl[:i], fragment, strings.ReplaceAll(tmpl[i+len(Placeholder):], Placeholder, fragment))
}
