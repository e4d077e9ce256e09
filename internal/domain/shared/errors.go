package shared

import "errors"

// Error codes shared by every bounded context. The HTTP layer maps them to
// status codes, so they must stay stable.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeOverpayment  = "OVERPAYMENT"
	CodeConflict     = "CONFLICT"
	CodeInvalidState = "INVALID_STATE"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap exposes the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a DomainError with the same code, so that
// errors.Is(err, shared.ErrNotFound) matches any not-found error.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause returns a copy of the error carrying cause
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{Code: e.Code, Message: e.Message, cause: cause}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError reports malformed input rejected before any write.
func NewValidationError(message string) *DomainError {
	return NewDomainError(CodeValidation, message)
}

// NewNotFoundError reports an unknown identifier.
func NewNotFoundError(message string) *DomainError {
	return NewDomainError(CodeNotFound, message)
}

// NewOverpaymentError reports a payment that would exceed the document balance.
func NewOverpaymentError(message string) *DomainError {
	return NewDomainError(CodeOverpayment, message)
}

// NewConflictError reports a concurrent-write serialization failure.
// Callers should retry from a fresh read.
func NewConflictError(message string) *DomainError {
	return NewDomainError(CodeConflict, message)
}

// NewInvalidStateError reports an operation not allowed in the current state.
func NewInvalidStateError(message string) *DomainError {
	return NewDomainError(CodeInvalidState, message)
}

// NewForbiddenError reports an actor lacking the required role.
func NewForbiddenError(message string) *DomainError {
	return NewDomainError(CodeForbidden, message)
}

// Common domain errors
var (
	ErrNotFound            = NewNotFoundError("Resource not found")
	ErrInvalidInput        = NewValidationError("Invalid input provided")
	ErrConcurrencyConflict = NewConflictError("Resource was modified by another process")
	ErrOverpayment         = NewOverpaymentError("Payment exceeds the outstanding balance")
	ErrUnauthorized        = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrForbidden           = NewForbiddenError("Access to this resource is forbidden")
	ErrInvalidState        = NewInvalidStateError("Operation not allowed in current state")
)

// CodeOf returns the domain error code carried by err, or "" when err is not
// a DomainError.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsValidation reports whether err is a validation error
func IsValidation(err error) bool { return CodeOf(err) == CodeValidation }

// IsNotFound reports whether err is a not-found error
func IsNotFound(err error) bool { return CodeOf(err) == CodeNotFound }

// IsOverpayment reports whether err is an overpayment error
func IsOverpayment(err error) bool { return CodeOf(err) == CodeOverpayment }

// IsConflict reports whether err is a concurrency conflict
func IsConflict(err error) bool { return CodeOf(err) == CodeConflict }
