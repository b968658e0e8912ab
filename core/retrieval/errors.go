package retrieval

import (
	"errors"
	"fmt"
)

// ErrPromptNotFound is returned when a stored prompt does not exist.
var ErrPromptNotFound = errors.New("prompt not found")

// ValidationError is a client error, it is never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// StoreError is a persistence or query failure. The request transaction is rolled back.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
