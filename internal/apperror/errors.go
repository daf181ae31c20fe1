// Package apperror defines the typed errors surfaced to callers. Per-item
// failures inside batch operations are never returned as errors; they are
// recorded in the operation's report instead.
package apperror

import (
	"errors"
	"fmt"
	"strings"
)

// NotFoundError reports that a required input path does not exist.
type NotFoundError struct {
	Path string
	Kind string // "file", "directory" or empty
}

func (e *NotFoundError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s not found: %s", e.Kind, e.Path)
	}
	return fmt.Sprintf("not found: %s", e.Path)
}

// StateError reports an operation invoked without the state it needs,
// for example auditing before a ledger was loaded.
type StateError struct {
	Operation string
	Reason    string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Operation, e.Reason)
}

// ColumnError reports ledger columns that are required but absent.
type ColumnError struct {
	Path    string
	Missing []string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("ledger %s is missing required columns: %s", e.Path, strings.Join(e.Missing, ", "))
}

// CollisionError reports a destination that already exists. The destination
// is never overwritten.
type CollisionError struct {
	Path string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("destination already exists: %s", e.Path)
}

// ToolError wraps the failure of an external program run on one file.
type ToolError struct {
	Tool     string
	Path     string
	TimedOut bool
	Err      error
}

func (e *ToolError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("%s timed out on %s", e.Tool, e.Path)
	}
	return fmt.Sprintf("%s failed on %s: %v", e.Tool, e.Path, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsCollision reports whether err is, or wraps, a CollisionError.
func IsCollision(err error) bool {
	var target *CollisionError
	return errors.As(err, &target)
}

// IsTimeout reports whether err is a ToolError caused by a timeout.
func IsTimeout(err error) bool {
	var target *ToolError
	return errors.As(err, &target) && target.TimedOut
}
