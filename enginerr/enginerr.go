// Package enginerr declares the sentinel errors every engine component
// classifies its failures into, per the error taxonomy in the design: each
// component wraps lower-level errors with fmt.Errorf("...: %w", err) and
// callers use errors.Is/errors.As instead of switching on an exception type.
package enginerr

import "errors"

var (
	// ErrNotFound means a named knowledgebase (or other lookup key) does
	// not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists means a create-only operation targeted a name that
	// is already in use (e.g. rename to an existing KB, create_with_rows
	// on an existing table).
	ErrAlreadyExists = errors.New("already exists")

	// ErrConflict means a request could not proceed because of concurrent
	// state, e.g. two ingestions racing the same knowledgebase name.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput means the caller supplied a malformed or
	// out-of-bounds argument; this is a caller mistake, never logged at
	// error severity.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCancelled means an operation observed context cancellation at a
	// batch boundary and stopped cleanly. Never treated as a failure.
	ErrCancelled = errors.New("cancelled")

	// ErrUnsupported means an operation was asked to handle something it
	// deliberately does not support (e.g. an unrecognized file extension).
	ErrUnsupported = errors.New("unsupported")
)
