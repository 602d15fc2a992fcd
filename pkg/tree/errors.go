package tree

import (
	"errors"
	"fmt"
)

// TreeError represents a structural error raised by namespace operations.
//
// These are domain errors (missing path component, symlink loop, name
// collision) as opposed to infrastructure errors from the backend, which are
// returned wrapped and can be inspected with errors.Is against the kv
// sentinels.
type TreeError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Path is the namespace path related to the error (if applicable)
	Path string
}

// Error implements the error interface.
func (e *TreeError) Error() string {
	if e.Path != "" {
		return e.Message + ": " + e.Path
	}
	return e.Message
}

// Is matches another *TreeError with the same code, so callers can write
// errors.Is(err, &tree.TreeError{Code: tree.ErrBrokenPath}).
func (e *TreeError) Is(target error) bool {
	var other *TreeError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// ErrorCode represents the category of a tree error.
type ErrorCode int

const (
	// ErrBrokenPath indicates a named path component, or the node a path
	// resolves to, does not exist. Stale symlinks report this code too.
	ErrBrokenPath ErrorCode = iota

	// ErrCyclicSymlink indicates resolution exceeded the symlink hop budget
	ErrCyclicSymlink

	// ErrAlreadyExists indicates the destination name is taken
	ErrAlreadyExists

	// ErrInvalidPath indicates a malformed path or a structurally impossible
	// request (moving a node below itself, deleting the root)
	ErrInvalidPath
)

func (c ErrorCode) String() string {
	switch c {
	case ErrBrokenPath:
		return "broken path"
	case ErrCyclicSymlink:
		return "cyclic symlink"
	case ErrAlreadyExists:
		return "already exists"
	case ErrInvalidPath:
		return "invalid path"
	}
	return fmt.Sprintf("ErrorCode(%d)", int(c))
}

func newError(code ErrorCode, path string, format string, args ...any) *TreeError {
	return &TreeError{Code: code, Message: fmt.Sprintf(format, args...), Path: path}
}

// IsCode reports whether err is (or wraps) a *TreeError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var te *TreeError
	if !errors.As(err, &te) {
		return false
	}
	return te.Code == code
}
