package scan

import "strings"

// State is the lexical region the scanner is in.
type State uint8

const (
	// Template is literal text outside any tag.
	Template State = iota
	// Code is raw target-language code inside <# ... #>.
	Code
	// Expression is a target-language expression inside <#= ... #>.
	Expression
)

func (s State) String() string {
	switch s {
	case Template:
		return "template"
	case Code:
		return "code"
	case Expression:
		return "expression"
	}
	return "unknown"
}

// Tag markers.
const (
	OpenCode       = "<#"
	OpenExpression = "<#="
	Close          = "#>"
)

// WriterFunc appends zero or more statements for fragment to out.
// Implementations must do nothing when fragment is empty.
type WriterFunc func(out *strings.Builder, fragment string)

// Emitter turns captured fragments into target-language statements.
// Literal fragments arrive already escaped; expression fragments arrive raw.
type Emitter interface {
	WriteLiteral(out *strings.Builder, fragment string)
	WriteExpression(out *strings.Builder, fragment string)
}

// Funcs adapts a pair of WriterFuncs to Emitter. Nil funcs emit nothing.
type Funcs struct {
	Literal    WriterFunc
	Expression WriterFunc
}

func (f Funcs) WriteLiteral(out *strings.Builder, fragment string) {
	if f.Literal != nil {
		f.Literal(out, fragment)
	}
}

func (f Funcs) WriteExpression(out *strings.Builder, fragment string) {
	if f.Expression != nil {
		f.Expression(out, fragment)
	}
}
