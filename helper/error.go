package helper

import (
	"errors"
	"fmt"
	"strings"
)

// Error wraps an error with the trace of steps it passed through.
type Error struct {
	Original error
	Trace    []string
}

// NewError wraps err with the given step. If err already is an *Error
// the step is appended to its trace instead of nesting a new one.
func NewError(trace string, original error) error {
	if original == nil {
		original = errors.New("unknown error")
	}

	if e, ok := original.(*Error); ok {
		return &Error{
			Original: e.Original,
			Trace:    append(append([]string{}, e.Trace...), trace),
		}
	}

	return &Error{
		Original: original,
		Trace:    []string{trace},
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("%v | Trace: %s", e.Original, strings.Join(e.Trace, ", "))
}

// Unwrap returns the original error so errors.Is and errors.As see through the trace.
func (e *Error) Unwrap() error {
	return e.Original
}
