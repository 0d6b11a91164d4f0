// internal/domain/reminder/errors.go
package reminder

import "fmt"

// ParseError reports a due date that could not be read as a calendar date.
type ParseError struct {
	Value string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse due date %q: %v", e.Value, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ErrMissingDueDate is the cause of a ParseError raised for an empty due date.
var ErrMissingDueDate = fmt.Errorf("due date is empty")
