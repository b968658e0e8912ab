package pipeline

import "fmt"

// UnderstandingError is returned when the text understanding capability
// fails, e.g. on transport errors, exhausted quota or a response without text.
type UnderstandingError struct {
	Op  string
	Err error
}

func (e *UnderstandingError) Error() string {
	return fmt.Sprintf("understanding %s: %v", e.Op, e.Err)
}

func (e *UnderstandingError) Unwrap() error {
	return e.Err
}
