// Package apperr defines the error classes the handlers translate to
// HTTP statuses: validation, conflict, not-found, media IO and parse
// failures. Everything else is treated as an internal error.
package apperr

import (
	"errors"
	"fmt"
)

var ErrUserNotFound = errors.New("user not found")

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

// ConflictError reports a unique-constraint violation, naming the field.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return e.Field + " already exists"
}

// MediaError wraps a filesystem failure on an avatar file or folder.
type MediaError struct {
	Op   string
	Path string
	Err  error
}

func (e *MediaError) Error() string {
	return fmt.Sprintf("media %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *MediaError) Unwrap() error { return e.Err }

// ParseError reports an unreadable or empty spreadsheet.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "spreadsheet: " + e.Reason
}
