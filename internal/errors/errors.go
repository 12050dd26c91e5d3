// Package errors provides centralized error definitions and error handling
// utilities for lockable. It defines the sentinel errors returned by the
// resource core, semantic error types carrying the offending resource, and
// classification helpers used by callers that translate errors into
// responses.
//
// # Error Taxonomy
//
//   - NotFoundError: a requested resource name does not exist in the registry.
//     A batch operation stops at the first unknown name; mutations already
//     applied to earlier names stay applied.
//   - PermissionError: a caller tried to release a reservation owned by
//     somebody else without administrator rights.
//   - ValidationError: malformed input (empty names, bad label expressions,
//     duplicate resource definitions).
//   - ClaimError: a claim could not be satisfied right now. The claimant has
//     been queued and may retry.
//
// Operations that are meaningless for the current state (unreserving a free
// resource) are not errors at all; they are reported as skipped outcomes.
//
// # Usage
//
//	err := errors.NewNotFoundError("printer-1")
//	if errors.Is(err, errors.ErrResourceNotFound) { ... }
//
//	var perm *errors.PermissionError
//	if errors.As(err, &perm) {
//	    log.Warn("denied", "owner", perm.Owner)
//	}
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

var (
	// ErrResourceNotFound indicates that a resource name is not in the registry.
	ErrResourceNotFound = New("resource not found")
	// ErrPermissionDenied indicates that the caller may not perform the operation.
	ErrPermissionDenied = New("permission denied")
	// ErrDuplicateResource indicates two definitions share the same name.
	ErrDuplicateResource = New("duplicate resource")
	// ErrInvalidRequest indicates that request input failed validation.
	ErrInvalidRequest = New("invalid request")
	// ErrQueued indicates that a claim could not be satisfied and the
	// claimant was queued instead.
	ErrQueued = New("claim queued")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// LockableError is the base interface for all lockable errors.
type LockableError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the operation may succeed when retried.
	IsRetryable() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource name that is not in the registry.
//
// Example:
//
//	err := errors.NewNotFoundError("printer-1")
//	fmt.Println(err) // "resource 'printer-1' not found"
type NotFoundError struct {
	baseError
	Resource string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resource string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			severity: SeverityWarning,
		},
		Resource: resource,
	}
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource '%s' not found", e.Resource)
}

// Is reports whether target is ErrResourceNotFound or another NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	if target == ErrResourceNotFound {
		return true
	}
	_, ok := target.(*NotFoundError)
	return ok
}

// PermissionError is returned when a non-administrator tries to release a
// reservation held by somebody else.
type PermissionError struct {
	baseError
	User     string
	Resource string
	Owner    string
}

// NewPermissionError creates a new PermissionError.
func NewPermissionError(user, resource, owner string) *PermissionError {
	return &PermissionError{
		baseError: baseError{
			severity: SeverityWarning,
		},
		User:     user,
		Resource: resource,
		Owner:    owner,
	}
}

// Error returns the formatted error message.
func (e *PermissionError) Error() string {
	user := e.User
	if user == "" {
		user = "anonymous"
	}
	if e.Owner == "" {
		return fmt.Sprintf("permission denied: %s may not release '%s'", user, e.Resource)
	}
	return fmt.Sprintf("permission denied: %s may not release '%s' reserved by %s", user, e.Resource, e.Owner)
}

// Is reports whether target is ErrPermissionDenied or another PermissionError.
func (e *PermissionError) Is(target error) bool {
	if target == ErrPermissionDenied {
		return true
	}
	_, ok := target.(*PermissionError)
	return ok
}

// ValidationError represents invalid input.
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity: SeverityWarning,
		},
	}
}

// WithField sets the field that failed validation.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue records the rejected value.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is reports whether target is ErrInvalidRequest or another ValidationError.
func (e *ValidationError) Is(target error) bool {
	if target == ErrInvalidRequest {
		return true
	}
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	return e.cause != nil && errors.Is(e.cause, target)
}

// ClaimError reports a claim that could not be satisfied immediately.
// The claimant has been queued; the error is retryable.
type ClaimError struct {
	baseError
	Claimant  string
	Requested int
	Available int
}

// NewClaimError creates a ClaimError for a claimant that wanted requested
// resources but found only available.
func NewClaimError(claimant string, requested, available int) *ClaimError {
	return &ClaimError{
		baseError: baseError{
			severity:  SeverityInfo,
			retryable: true,
		},
		Claimant:  claimant,
		Requested: requested,
		Available: available,
	}
}

// Error returns the formatted error message.
func (e *ClaimError) Error() string {
	return fmt.Sprintf("claim queued for %s: requested %d, %d available", e.Claimant, e.Requested, e.Available)
}

// Is reports whether target is ErrQueued or another ClaimError.
func (e *ClaimError) Is(target error) bool {
	if target == ErrQueued {
		return true
	}
	_, ok := target.(*ClaimError)
	return ok
}

// -----------------------------------------------------------------------------
// Classification
// -----------------------------------------------------------------------------

// IsNotFound reports whether err signals an unknown resource.
func IsNotFound(err error) bool {
	return err != nil && Is(err, ErrResourceNotFound)
}

// IsPermissionDenied reports whether err signals a refused release.
func IsPermissionDenied(err error) bool {
	return err != nil && Is(err, ErrPermissionDenied)
}

// IsRetryable returns true if the error is transient and the operation
// may succeed on retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var le LockableError
	if As(err, &le) {
		return le.IsRetryable()
	}
	return Is(err, ErrQueued)
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement LockableError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}
	var le LockableError
	if As(err, &le) {
		return le.Severity()
	}
	return SeverityError
}
