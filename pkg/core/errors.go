package core

import "fmt"

// ParseError reports a malformed or unknown log line. It is recoverable:
// the offending line is skipped and parsing continues.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// ValidationError reports invalid operation parameters, e.g. a crop region
// outside channel bounds or a fixed range with min > max. It aborts the
// remaining steps for the one channel it occurred on.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// DuplicateNameError reports a rename collision within one file. The
// colliding rename is rejected and the batch continues.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("name already taken: %q", e.Name)
}

// IOError reports a failed container read or write. Other targets in the
// same batch still proceed.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
