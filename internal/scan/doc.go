// Package scan implements the template transform engine.
//
// A template is literal text with two kinds of tags:
//
//	<# code #>    copied verbatim into the generated program
//	<#= expr #>   evaluated by the generated program and written out
//
// The scanner makes one pass over the decoded code points with up to three
// code points of lookahead. Literal text is escaped as it is buffered and
// handed to the literal writer when a tag opens or input ends. Code is
// streamed straight into the output. Expression text is buffered raw and
// handed to the expression writer when its tag closes or input ends.
//
// Tags do not nest. Unterminated tags are accepted: an open expression is
// still flushed, an open code block simply ends. With a Reporter set, both
// cases produce a warning; the output is the same either way.
package scan
