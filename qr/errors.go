package qr

import "errors"

// Code is a machine-readable error code.
type Code string

const (
	CodeEmptyText     Code = "EMPTY_TEXT"
	CodeInvalidOption Code = "INVALID_OPTION"
	CodeEncodeFailed  Code = "ENCODE_FAILED"
)

// Error is returned by Encode. Two errors are equal under errors.Is when their
// codes match.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// ErrEmptyText is returned when the text is empty or only whitespace.
var ErrEmptyText = &Error{Code: CodeEmptyText, Message: "text is empty"}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

func invalidOption(message string, cause error) *Error {
	return &Error{Code: CodeInvalidOption, Message: message, Cause: cause}
}

func encodeFailed(message string, cause error) *Error {
	return &Error{Code: CodeEncodeFailed, Message: message, Cause: cause}
}

// CodeOf returns the code carried by err, or "" when err is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
