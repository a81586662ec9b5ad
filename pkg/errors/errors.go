// Package errors defines the coded errors shared by the flow engine, the
// pipeline, the HTTP server and the CLI.
//
// Every failure a user can act on carries a [Code]. Codes fall into three
// groups: INVALID_* for rejected input, layout codes such as
// INFINITE_EXPANSION for fatal flow errors, and the remaining resource and
// internal codes. An error may also carry hints, short suggestions shown
// beneath the message.
//
//	err := errors.New(errors.ErrCodeInvalidPlacement, "floating placement must be auto, top, or bottom").
//		WithHint("set align to top or bottom")
//	if errors.Is(err, errors.ErrCodeInvalidPlacement) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code is a machine-readable error code.
type Code string

const (
	// Rejected input.
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"
	ErrCodeInvalidDocument  Code = "INVALID_DOCUMENT"
	ErrCodeInvalidPlacement Code = "INVALID_PLACEMENT"
	ErrCodeInvalidBreak     Code = "INVALID_BREAK"

	// Fatal flow errors.
	ErrCodeInfiniteExpansion Code = "INFINITE_EXPANSION"
	ErrCodeMaxDepth          Code = "MAX_DEPTH"
	ErrCodeLayoutImpossible  Code = "LAYOUT_IMPOSSIBLE"
	ErrCodeRelayoutLoop      Code = "RELAYOUT_LOOP"

	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"
	ErrCodeRender       Code = "RENDER_ERROR"
	ErrCodeTimeout      Code = "TIMEOUT"
	ErrCodeUnsupported  Code = "UNSUPPORTED"
	ErrCodeInternal     Code = "INTERNAL_ERROR"
)

// Error is a coded error with an optional cause and hints.
type Error struct {
	Code    Code
	Message string
	Hints   []string
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// WithHint appends a hint and returns e.
func (e *Error) WithHint(format string, args ...any) *Error {
	e.Hints = append(e.Hints, fmt.Sprintf(format, args...))
	return e
}

// New returns an error with code and a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an error with code and a formatted message around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the first *Error in err's chain has code.
func Is(err error, code Code) bool { return GetCode(err) == code && code != "" }

// As is errors.As, so callers need only this package.
func As(err error, target any) bool { return errors.As(err, target) }

// GetCode returns the code of the first *Error in err's chain, or "".
func GetCode(err error) Code {
	if e := find(err); e != nil {
		return e.Code
	}
	return ""
}

// Hints returns the hints of the first *Error in err's chain.
func Hints(err error) []string {
	if e := find(err); e != nil {
		return e.Hints
	}
	return nil
}

// UserMessage returns the message of a coded error without its code
// prefix, or err.Error() for any other error.
func UserMessage(err error) string {
	if e := find(err); e != nil {
		return e.Message
	}
	return err.Error()
}

// IsLayout reports whether c is raised while laying out a well-formed
// document.
func (c Code) IsLayout() bool {
	switch c {
	case ErrCodeInfiniteExpansion, ErrCodeMaxDepth, ErrCodeLayoutImpossible,
		ErrCodeRelayoutLoop, ErrCodeInvalidPlacement, ErrCodeInvalidBreak:
		return true
	}
	return false
}

// IsLayout reports whether err carries a layout code.
func IsLayout(err error) bool { return GetCode(err).IsLayout() }

func find(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}
