package serrors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeAccessDenied           = "ACCESS_DENIED"
	CodeInvalidTransition      = "INVALID_TRANSITION"
	CodeAuditWriteFailure      = "AUDIT_WRITE_FAILURE"
	CodeNotFound               = "NOT_FOUND"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeValidation             = "VALIDATION"
	CodeConflict               = "CONFLICT"
	CodeInternal               = "INTERNAL"
)

// ServiceError is returned by module services. Two ServiceErrors match under
// errors.Is when their codes are equal.
type ServiceError struct {
	Status  int
	Code    string
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *ServiceError) Unwrap() error { return e.Cause }

func (e *ServiceError) Is(target error) bool {
	t, ok := target.(*ServiceError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func NewServiceError(status int, code, message string, cause error) *ServiceError {
	return &ServiceError{Status: status, Code: code, Message: message, Cause: cause}
}

var (
	ErrAccessDenied           = NewServiceError(http.StatusForbidden, CodeAccessDenied, "access denied", nil)
	ErrInvalidTransition      = NewServiceError(http.StatusConflict, CodeInvalidTransition, "invalid transition", nil)
	ErrAuditWriteFailure      = NewServiceError(http.StatusInternalServerError, CodeAuditWriteFailure, "audit write failed", nil)
	ErrNotFound               = NewServiceError(http.StatusNotFound, CodeNotFound, "not found", nil)
	ErrConcurrentModification = NewServiceError(http.StatusConflict, CodeConcurrentModification, "record was modified concurrently", nil)
	ErrValidation             = NewServiceError(http.StatusBadRequest, CodeValidation, "validation failed", nil)
)

func AccessDenied(message string) *ServiceError {
	return NewServiceError(http.StatusForbidden, CodeAccessDenied, message, nil)
}

func InvalidTransition(from, to string) *ServiceError {
	return NewServiceError(http.StatusConflict, CodeInvalidTransition, fmt.Sprintf("cannot move from %s to %s", from, to), nil)
}

func AuditWriteFailure(cause error) *ServiceError {
	return NewServiceError(http.StatusInternalServerError, CodeAuditWriteFailure, "audit write failed", cause)
}

func NotFound(what string, cause error) *ServiceError {
	return NewServiceError(http.StatusNotFound, CodeNotFound, what+" not found", cause)
}

func ConcurrentModification(what string) *ServiceError {
	return NewServiceError(http.StatusConflict, CodeConcurrentModification, what+" was modified concurrently", nil)
}

func Validation(message string, cause error) *ServiceError {
	return NewServiceError(http.StatusBadRequest, CodeValidation, message, cause)
}

// HTTPStatus maps an error returned by a service to a response status.
func HTTPStatus(err error) int {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Status
	}
	var baseErr *BaseError
	if errors.As(err, &baseErr) {
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// CodeOf returns the machine readable code of err, or INTERNAL.
func CodeOf(err error) string {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Code
	}
	var baseErr *BaseError
	if errors.As(err, &baseErr) {
		return baseErr.Code
	}
	return CodeInternal
}
