package types

import (
	"fmt"
	"strings"
)

// ParseError carries the shared diagnostic payload of every failure kind:
// the original input, the offset the failure occurred at, a message, and
// the diagnostic name of the element that raised it.
//
// Line, column and line text are derived from the offset on demand; they
// are never stored. Failures are created in large numbers on backtracking
// paths and most are discarded without ever being formatted.
type ParseError struct {
	Input   string
	Offset  int
	Msg     string
	Element string
}

// Line returns the 1-based line number of the failure offset.
func (e *ParseError) Line() int {
	return 1 + strings.Count(e.Input[:e.boundedOffset()], "\n")
}

// Column returns the 1-based column number of the failure offset.
func (e *ParseError) Column() int {
	off := e.boundedOffset()
	if i := strings.LastIndexByte(e.Input[:off], '\n'); i >= 0 {
		return off - i
	}
	return off + 1
}

// LineText returns the full text of the line containing the failure offset.
func (e *ParseError) LineText() string {
	off := e.boundedOffset()
	start := 0
	if i := strings.LastIndexByte(e.Input[:off], '\n'); i >= 0 {
		start = i + 1
	}
	end := len(e.Input)
	if i := strings.IndexByte(e.Input[off:], '\n'); i >= 0 {
		end = off + i
	}
	return e.Input[start:end]
}

func (e *ParseError) boundedOffset() int {
	if e.Offset < 0 {
		return 0
	}
	if e.Offset > len(e.Input) {
		return len(e.Input)
	}
	return e.Offset
}

func (e *ParseError) message() string {
	msg := e.Msg
	if msg == "" {
		if e.Element != "" {
			msg = "expected " + e.Element
		} else {
			msg = "no match"
		}
	}
	return fmt.Sprintf("%s (at char %d), (line:%d, col:%d)", msg, e.boundedOffset(), e.Line(), e.Column())
}

// MatchError is the recoverable failure kind: an element did not match at
// the attempted offset. Choice combinators catch it and try the next
// alternative; the top-level driver surfaces the furthest one as the
// parse diagnostic.
type MatchError struct {
	ParseError
}

// NewMatchError creates a recoverable match failure.
func NewMatchError(input string, offset int, msg, element string) *MatchError {
	return &MatchError{ParseError{Input: input, Offset: offset, Msg: msg, Element: element}}
}

// Error implements the error interface.
func (e *MatchError) Error() string {
	return e.message()
}

// FatalError is the non-recoverable failure kind. It propagates past every
// enclosing choice combinator and stops the whole parse attempt. Parse
// actions raise it to abort, and the max-depth guard reports through it.
type FatalError struct {
	ParseError
	Cause error
}

// NewFatalError creates a fatal failure.
func NewFatalError(input string, offset int, msg, element string) *FatalError {
	return &FatalError{ParseError: ParseError{Input: input, Offset: offset, Msg: msg, Element: element}}
}

// Error implements the error interface.
func (e *FatalError) Error() string {
	return e.message()
}

// Unwrap returns the wrapped cause, if any.
func (e *FatalError) Unwrap() error {
	return e.Cause
}

// WithCause wraps another error.
func (e *FatalError) WithCause(err error) *FatalError {
	e.Cause = err
	return e
}

// fatal marks FatalError (and, via embedding, CutError) as non-recoverable.
func (e *FatalError) fatal() {}

// CutError is the cut-converted failure kind: a recoverable failure that
// occurred after a sequence passed its cut marker. The sequence committed
// to its alternative, so backtracking stops and the failure is reported as
// the real error. CutError is fatal for propagation purposes; use
// errors.As to distinguish it when needed.
type CutError struct {
	FatalError
}

// NewCutError converts a recoverable failure into its cut-converted form.
func NewCutError(cause *MatchError) *CutError {
	e := &CutError{FatalError{ParseError: cause.ParseError}}
	e.Cause = cause
	return e
}

type fatalError interface {
	fatal()
}

// IsFatal reports whether err is a fatal (or cut-converted) parse failure
// that must propagate past choice combinators.
func IsFatal(err error) bool {
	_, ok := err.(fatalError)
	return ok
}
