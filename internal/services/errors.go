package services

import "fmt"

// ValidationError is a precondition failure caught before any write:
// missing retrospective justification, unamendable field, short reason.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// AuthorizationError is an amendment-gate denial. Reason is the
// human-readable explanation shown to the caller.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return e.Reason
}

// PermissionCheckError means the gate could not look up the log or the
// requesting user. It is a hard stop, never treated as allow or deny.
type PermissionCheckError struct {
	Err error
}

func (e *PermissionCheckError) Error() string {
	return fmt.Sprintf("cannot verify permissions: %v", e.Err)
}

func (e *PermissionCheckError) Unwrap() error {
	return e.Err
}
