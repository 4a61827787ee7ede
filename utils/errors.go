package utils

import (
	"fmt"
	"net/http"
)

// ServiceError represents a service-level error with context
type ServiceError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode,omitempty"`
	Details    string `json:"details,omitempty"`
	Cause      error  `json:"-"` // Original error, not exposed in JSON
}

func (e ServiceError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e ServiceError) Unwrap() error {
	return e.Cause
}

// NewServiceError creates a new service error
func NewServiceError(code, message string) error {
	return ServiceError{
		Code:       code,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

// NewServiceErrorWithCause creates a service error that wraps another error
func NewServiceErrorWithCause(code, message string, cause error) error {
	return ServiceError{
		Code:       code,
		Message:    message,
		Cause:      cause,
		StatusCode: http.StatusInternalServerError,
	}
}

// GetServiceError extracts a ServiceError from an error
func GetServiceError(err error) (ServiceError, bool) {
	if serviceErr, ok := err.(ServiceError); ok {
		return serviceErr, true
	}
	return ServiceError{}, false
}

// IsServiceError reports whether err is a ServiceError.
func IsServiceError(err error) bool {
	_, ok := GetServiceError(err)
	return ok
}

// IsNotFound reports whether err is a not-found ServiceError.
func IsNotFound(err error) bool {
	se, ok := GetServiceError(err)
	return ok && se.StatusCode == http.StatusNotFound
}

// Common service error constructors
func NewUnauthorizedError(message string) error {
	return ServiceError{
		Code:       "UNAUTHORIZED",
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string) error {
	return ServiceError{
		Code:       "FORBIDDEN",
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewNotFoundError(resource string) error {
	return ServiceError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

func NewBadRequestError(message string) error {
	return ServiceError{
		Code:       "BAD_REQUEST",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewFieldValidationError folds field-level validation failures into one
// request-rejecting error.
func NewFieldValidationError(errs []ValidationError) error {
	message := "Request validation failed"
	if len(errs) > 0 {
		message = errs[0].Message
	}
	return ServiceError{
		Code:       "VALIDATION_ERROR",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewConflictError(message string) error {
	return ServiceError{
		Code:       "CONFLICT",
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewDatabaseError(operation string, cause error) error {
	return ServiceError{
		Code:       "DATABASE_ERROR",
		Message:    fmt.Sprintf("Database operation failed: %s", operation),
		Cause:      cause,
		StatusCode: http.StatusInternalServerError,
	}
}

// Business logic specific errors

func NewReportNotFoundError(reportID string) error {
	return ServiceError{
		Code:       "NOT_FOUND",
		Message:    "SOS report not found",
		Details:    reportID,
		StatusCode: http.StatusNotFound,
	}
}

func NewInvalidEmergencyTypeError(value string) error {
	return ServiceError{
		Code:       "INVALID_EMERGENCY_TYPE",
		Message:    fmt.Sprintf("Unknown emergency type: %s", value),
		StatusCode: http.StatusBadRequest,
	}
}

func NewInvalidStatusError(value string) error {
	return ServiceError{
		Code:       "INVALID_STATUS",
		Message:    fmt.Sprintf("Unknown report status: %s", value),
		StatusCode: http.StatusBadRequest,
	}
}

func NewStatusRegressionError(from, to string) error {
	return ServiceError{
		Code:       "STATUS_REGRESSION",
		Message:    fmt.Sprintf("Status cannot move backwards from %s to %s", from, to),
		StatusCode: http.StatusConflict,
	}
}

// NewActiveSOSExistsError signals the one-active-report-per-user rule.
func NewActiveSOSExistsError(reportID string) error {
	return ServiceError{
		Code:       "ACTIVE_SOS_EXISTS",
		Message:    "An SOS report is already in progress",
		Details:    reportID,
		StatusCode: http.StatusConflict,
	}
}

// NewDeliveryFailedError is the single user-visible hard failure: the device
// is offline and no emergency SMS could be sent. The message must tell the
// user to dial emergency services directly.
func NewDeliveryFailedError(cause error) error {
	return ServiceError{
		Code:       "DELIVERY_FAILED",
		Message:    "Emergency could not be reported. Please dial your local emergency number immediately.",
		Cause:      cause,
		StatusCode: http.StatusServiceUnavailable,
	}
}

// Error handling helpers
func WrapError(err error, code, message string) error {
	return ServiceError{
		Code:       code,
		Message:    message,
		Cause:      err,
		StatusCode: http.StatusInternalServerError,
	}
}

func WrapDatabaseError(err error, operation string) error {
	return NewDatabaseError(operation, err)
}
