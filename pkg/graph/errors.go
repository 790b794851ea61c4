package graph

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrIndexOutOfRange    = errors.New("node index out of range")
	ErrInvalidTransition  = errors.New("invalid visit state transition")
	ErrMalformedInput     = errors.New("malformed graph input")
	ErrUnsupportedFormat  = errors.New("unsupported graph format")
	ErrInconsistentLength = errors.New("values and adjacency lengths differ")
)

// GraphError provides structured error information for graph operations.
type GraphError struct {
	Op    string // Operation that failed (e.g., "Neighbors", "Claim")
	Index int    // Node index involved
	Cause error  // Underlying error
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	return fmt.Sprintf("%s node %d: %v", e.Op, e.Index, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *GraphError) Unwrap() error {
	return e.Cause
}

func outOfRange(op string, index, count int) error {
	return &GraphError{
		Op:    op,
		Index: index,
		Cause: fmt.Errorf("%w: valid range is [0, %d)", ErrIndexOutOfRange, count),
	}
}

// InputError describes a failure to load a graph from an external source.
type InputError struct {
	Path string // Source file, empty when reading from a stream
	Line int    // 1-based line number, 0 when unknown
	Err  error
}

// Error implements the error interface.
func (e *InputError) Error() string {
	src := e.Path
	if src == "" {
		src = "<input>"
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", src, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", src, e.Err)
}

// Unwrap returns the underlying cause for error chain support.
func (e *InputError) Unwrap() error {
	return e.Err
}

// IsOutOfRange reports whether err was caused by a bad node index.
func IsOutOfRange(err error) bool {
	return errors.Is(err, ErrIndexOutOfRange)
}
