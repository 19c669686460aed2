package command

import (
	"fmt"
)

// ParseError is returned when a statement is malformed.
type ParseError struct {
	Message string // Description of the problem
	Text    string // Statement being parsed
	Offset  int    // Position in Text where the problem was found
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s (offset %d)", e.Message, e.Offset)
}

func parseErrorf(text string, offset int, format string, a ...interface{}) *ParseError {
	return &ParseError{
		Message: fmt.Sprintf(format, a...),
		Text:    text,
		Offset:  offset,
	}
}

// ExecutionError is returned when a well-formed command can't be applied to
// the current schema. The schema is left unchanged.
type ExecutionError struct {
	Message string
}

func (e *ExecutionError) Error() string {
	return e.Message
}

func executionErrorf(format string, a ...interface{}) *ExecutionError {
	return &ExecutionError{Message: fmt.Sprintf(format, a...)}
}
