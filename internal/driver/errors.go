package driver

import "errors"

// Per-file failure categories. FileResult.Err wraps one of these.
var (
	ErrFileNotReadable  = errors.New("file not readable")
	ErrUnknownLanguage  = errors.New("unknown language extension")
	ErrFileWriteFailure = errors.New("file write failure")
	ErrNotTemplate      = errors.New("not a template file")
)
