// Package lifecycle holds the transition rules for the two state machines in
// the system: the per-requirement status and the per-project review cycle.
// Everything here is a pure function over values the caller has already read;
// the store backends gather a consistent snapshot inside a transaction, apply
// these rules, and persist the outcome atomically.
package lifecycle

import (
	"errors"
	"fmt"
)

// Conflict codes. These are stable, machine-readable identifiers telling a
// client that the system state forbids the transition right now, as opposed
// to a validation error which means the input itself was malformed.
const (
	CodeInvalidStatus           = "invalid_status"
	CodeQuotaExceeded           = "quota_exceeded"
	CodeSoleOwner               = "sole_owner"
	CodeNoRequestedRequirements = "no_requested_requirements"
	CodeRejectedRequirements    = "rejected_requirements"
	CodeUnresolvedRequirements  = "unresolved_requirements"
	CodeNoChangesRequired       = "no_changes_required"
	CodeUnapprovedRequirements  = "unapproved_requirements"
	CodeHasRequirements         = "has_requirements"
	CodeIncompleteRequirements  = "incomplete_requirements"
	CodeStaleVersion            = "stale_version"
)

// Conflict means the requested transition is forbidden by the current state of
// the system, often because another actor moved it first. Clients should
// re-fetch and decide whether to retry.
type Conflict struct {
	Code    string
	Message string
}

func (c *Conflict) Error() string {
	return fmt.Sprintf("%s: %s", c.Code, c.Message)
}

// NewConflict builds a conflict error with the given code.
func NewConflict(code, format string, args ...any) *Conflict {
	return &Conflict{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsConflict unwraps a conflict from an error chain.
func AsConflict(err error) (*Conflict, bool) {
	var c *Conflict
	if errors.As(err, &c) {
		return c, true
	}
	return nil, false
}

// ConflictCode returns the conflict code carried by err, or "" if err is not
// a conflict.
func ConflictCode(err error) string {
	if c, ok := AsConflict(err); ok {
		return c.Code
	}
	return ""
}

// ValidationError means a field of the submitted input was malformed. It is
// always raised before any mutation, so the caller can fix the input and
// resubmit.
type ValidationError struct {
	Field   string
	Message string
}

func (v *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// NewValidationError builds a validation error for the given field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a field validation error.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
