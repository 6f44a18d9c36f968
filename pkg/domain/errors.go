package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMethodNotAllowed reports transport-level misuse of the sync protocol.
var ErrMethodNotAllowed = errors.New("method not allowed")

// ValidationError is returned when caller-supplied data violates a contract.
// No mutation is applied when it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports a reference to an id that is not in the list.
// Toggle and delete treat a missing id as a no-op and never surface it.
type NotFoundError struct {
	ID int64
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("item %d not found", e.ID)
}

// StorageError wraps a failure of the durable store. The operation that
// produced it was not committed.
type StorageError struct {
	Op  string
	Err error
}

func (e StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying cause.
func (e StorageError) Unwrap() error { return e.Err }

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	msgs := make([]string, 0, len(e.Result.Violations))
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock {
			msgs = append(msgs, v.Rule+": "+v.Message)
		}
	}
	if len(msgs) == 0 {
		return "transaction blocked by rules"
	}
	return "transaction blocked by rules: " + strings.Join(msgs, "; ")
}

// IsValidation reports whether err is a ValidationError or a blocking rule violation.
func IsValidation(err error) bool {
	var ve ValidationError
	if errors.As(err, &ve) {
		return true
	}
	var rv RuleViolationError
	return errors.As(err, &rv)
}

// IsStorage reports whether err originates from the durable store.
func IsStorage(err error) bool {
	var se StorageError
	return errors.As(err, &se)
}
