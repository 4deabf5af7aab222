package models

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by every stage of the folding pipeline. Each kind maps
// to one process exit code of the command line driver.
var (
	ErrArguments  = errors.New("invalid arguments")
	ErrFileRead   = errors.New("file read error")
	ErrFileFormat = errors.New("file format error")
	ErrDegenerate = errors.New("degenerate mesh")
	ErrFileWrite  = errors.New("file write error")
)

// Error carries the kind of a failure together with the file it concerns.
type Error struct {
	// Kind is one of the Err* sentinels above
	Kind error

	// Path is the file involved, empty when the failure is not tied to a file
	Path string

	// Err is the underlying cause
	Err error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Path, e.Err)
}

// Unwrap lets errors.Is match both the kind and the cause.
func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// NewError builds an Error of the given kind with a formatted cause.
func NewError(kind error, path string, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Path: path, Err: fmt.Errorf(format, args...)}
}

// WrapError attaches a kind and path to an existing error.
func WrapError(kind error, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

// ExitCode maps an error to the process exit status of the CLI.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrArguments):
		return 2
	case errors.Is(err, ErrFileRead):
		return 3
	case errors.Is(err, ErrFileFormat):
		return 4
	case errors.Is(err, ErrDegenerate):
		return 5
	case errors.Is(err, ErrFileWrite):
		return 6
	default:
		return 1
	}
}
