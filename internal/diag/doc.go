// Package diag defines the diagnostic model shared by the template scanner
// and the driver.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – Info, Warning or Error.
//   - Code – compact numeric identifier (see codes.go) with a stable string
//     form: TPLxxxx for scanner findings, IOxxxx for file system failures,
//     DRVxxxx for driver decisions.
//   - Message – short, actionable text.
//   - Primary – the source.Span the finding points at.
//   - Path – set instead of Primary when the artifact was never loaded
//     (unreadable input, failed output write).
//   - Notes and Fixes – optional context and suggested edits.
//
// The scanner never fails; everything it notices about a template
// (unterminated tags) is a warning. Driver failures are errors attached to
// the failing artifact only, so a batch keeps going.
//
// # Emitting diagnostics
//
// Producers report through a Reporter. BagReporter aggregates into a Bag,
// which supports sorting, deduplication and filtering. Rendering lives in
// internal/diagfmt.
package diag
