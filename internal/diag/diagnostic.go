package diag

import (
	"r42/internal/source"
)

// Note points at a secondary location; a zero Span means no location.
type Note struct {
	Span source.Span
	Msg  string
}

// FixEdit replaces the bytes under Span with NewText. An empty span inserts.
type FixEdit struct {
	Span    source.Span
	NewText string
}

// Fix is one suggested change, applied by `r42 fix`.
type Fix struct {
	Title string
	Edits []FixEdit
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	// Path names the artifact when the diagnostic is not tied to a loaded
	// file (unreadable input, failed write). Primary is meaningless then.
	Path  string
	Notes []Note
	Fixes []Fix
}

func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{Severity: sev, Code: code, Primary: primary, Message: msg}
}

func NewError(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

// NewPathError builds an error for an artifact that has no loaded source
// file, such as a template that could not be read.
func NewPathError(code Code, path, msg string) Diagnostic {
	return Diagnostic{Severity: SevError, Code: code, Path: path, Message: msg}
}

// Detached reports whether the diagnostic has no source position.
func (d Diagnostic) Detached() bool {
	return d.Path != ""
}

func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}

func (d Diagnostic) WithFix(title string, edits ...FixEdit) Diagnostic {
	d.Fixes = append(d.Fixes, Fix{Title: title, Edits: edits})
	return d
}
