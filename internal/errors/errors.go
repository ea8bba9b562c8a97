// Package errors provides the typed errors surfaced by the publishing
// entry points. Each error carries a category so callers can tell a
// misconfiguration from a rejected API call without parsing messages.
package errors

import (
	"fmt"
	"runtime"
	"strings"
)

// ErrorType represents the category of an error.
type ErrorType string

const (
	// TypeConfiguration is a feature used without being enabled.
	TypeConfiguration ErrorType = "configuration"
	// TypeCredential is a missing or rejected credential set.
	TypeCredential ErrorType = "credential"
	// TypeProvider is any failure reported by a remote API call.
	TypeProvider ErrorType = "provider"
	// TypeUsage is an incompatible combination of arguments.
	TypeUsage ErrorType = "usage"
)

// Sentinels for errors.Is matching. Matching compares the type only.
var (
	ErrConfiguration = &Error{Type: TypeConfiguration}
	ErrCredential    = &Error{Type: TypeCredential}
	ErrProvider      = &Error{Type: TypeProvider}
	ErrUsage         = &Error{Type: TypeUsage}
)

// Error represents a categorized error with a stack trace.
type Error struct {
	Type    ErrorType // The category of the error
	Message string    // A descriptive message about the error
	Err     error     // The underlying error, if any
	Stack   string    // The stack trace at the time of error creation
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s", e.Type, e.Message))
	if e.Err != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Err))
	}
	return sb.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same type.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// New creates a new Error with the given type, message, and optional underlying error.
// It captures the stack trace at the point of creation.
func New(errType ErrorType, message string, err error) *Error {
	stack := make([]byte, 4096)
	n := runtime.Stack(stack, false)
	return &Error{
		Type:    errType,
		Message: message,
		Err:     err,
		Stack:   string(stack[:n]),
	}
}

// Wrap wraps an existing error with additional context and type information.
// An *Error keeps its original stack.
func Wrap(err error, errType ErrorType, message string) *Error {
	if originalErr, ok := err.(*Error); ok {
		return &Error{
			Type:    errType,
			Message: message,
			Err:     originalErr,
			Stack:   originalErr.Stack,
		}
	}
	return New(errType, message, err)
}

// Configuration creates a configuration error.
func Configuration(format string, args ...any) *Error {
	return New(TypeConfiguration, fmt.Sprintf(format, args...), nil)
}

// Usage creates a usage error.
func Usage(format string, args ...any) *Error {
	return New(TypeUsage, fmt.Sprintf(format, args...), nil)
}

// TypeOf returns the category of err, or "" when err is not an *Error.
func TypeOf(err error) ErrorType {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Type
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
