// Package errz defines the two classes of errors produced while running xq
// programs.
//
// A QueryError is a user-visible failure raised by an intrinsic function,
// such as adding a number to a string. It becomes the result of the one
// solution path that produced it.
//
// A ProgramError is an internal consistency violation: the bytecode broke
// the contract between the compiler and the machine. The machine raises it
// with panic and it is never returned as a query result.
package errz

import "fmt"

// ErrorKind represents the category of a query error.
type ErrorKind int

const (
	// ErrType indicates an operation applied to values of the wrong type.
	ErrType ErrorKind = iota
	// ErrValue indicates an invalid value for an operation.
	ErrValue
	// ErrRuntime indicates a general runtime failure.
	ErrRuntime
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrType:
		return "type error"
	case ErrValue:
		return "value error"
	case ErrRuntime:
		return "runtime error"
	default:
		return "error"
	}
}

// QueryError is a failure raised by an intrinsic.
type QueryError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind.String(), e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *QueryError) Unwrap() error {
	return e.Cause
}

// WithCause wraps the error with a cause.
func (e *QueryError) WithCause(cause error) *QueryError {
	e.Cause = cause
	return e
}

// NewQueryError creates a new QueryError with a formatted message.
func NewQueryError(kind ErrorKind, format string, args ...any) *QueryError {
	return &QueryError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// TypeErrorf creates a type error.
func TypeErrorf(format string, args ...any) *QueryError {
	return NewQueryError(ErrType, format, args...)
}

// ValueErrorf creates a value error.
func ValueErrorf(format string, args ...any) *QueryError {
	return NewQueryError(ErrValue, format, args...)
}

// RuntimeErrorf creates a runtime error.
func RuntimeErrorf(format string, args ...any) *QueryError {
	return NewQueryError(ErrRuntime, format, args...)
}
