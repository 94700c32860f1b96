package taskfile

import "fmt"

// FileOpenError is returned when the task file can't be found, opened or read.
type FileOpenError struct {
	Path string
	Err  error
}

var _ error = (*FileOpenError)(nil)

func (e *FileOpenError) Error() string {
	return fmt.Sprintf("failed to read task file %s: %v", e.Path, e.Err)
}

func (e *FileOpenError) Unwrap() error {
	return e.Err
}

// ParseError describes a malformed record in the task file.
type ParseError struct {
	File   string
	Line   int
	Reason string
}

var _ error = (*ParseError)(nil)

func (e *ParseError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Reason)
}
