package errors

import (
	"net/http"

	"cleancity/internal/errors"
)

// Kind groups error codes into the families clients branch on.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindStore      Kind = "store"
	KindInternal   Kind = "internal"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
	Kind() Kind
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	kind      Kind
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, kind Kind, errorCode, message string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		kind:      kind,
		message:   message,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.details != "" {
		return e.message + ": " + e.details
	}

	return e.message
}

// Is matches any BaseError carrying the same error code, so copies made by
// WithDetails still satisfy errors.Is against the predefined values.
func (e *BaseError) Is(target error) bool {
	t, ok := target.(*BaseError)
	if !ok {
		return false
	}

	return t.errorCode == e.errorCode
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// Kind returns the error family
func (e *BaseError) Kind() Kind {
	return e.kind
}

// WithDetails returns a copy carrying detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	cp := *e
	cp.details = details

	return &cp
}

// Predefined error types
var (
	// Validation
	ErrValidationFailed = NewBaseError(http.StatusBadRequest, KindValidation,
		"VALIDATION_FAILED", "Input validation failed")

	ErrInvalidStatus = NewBaseError(http.StatusBadRequest, KindValidation,
		"INVALID_STATUS", "Status must be one of Yes, No, Pending, Collected, PendingAcknowledgment, Off")

	ErrInvalidCoordinates = NewBaseError(http.StatusBadRequest, KindValidation,
		"INVALID_COORDINATES", "Latitude must be within [-90,90] and longitude within [-180,180]")

	ErrEntryNotPending = NewBaseError(http.StatusBadRequest, KindValidation,
		"ENTRY_NOT_PENDING", "Resident has no pending waste to collect")

	ErrActiveAllotmentExists = NewBaseError(http.StatusBadRequest, KindConflict,
		"ACTIVE_ALLOTMENT_EXISTS", "Labour already has an active allotment for this date and time")

	// Not found
	ErrAllotmentNotFound = NewBaseError(http.StatusNotFound, KindNotFound,
		"ALLOTMENT_NOT_FOUND", "Allotment not found")

	ErrLabourNotFound = NewBaseError(http.StatusNotFound, KindNotFound,
		"LABOUR_NOT_FOUND", "Labour not found")

	ErrInchargerNotFound = NewBaseError(http.StatusNotFound, KindNotFound,
		"INCHARGER_NOT_FOUND", "Incharger not found")

	ErrResidentNotInAllotment = NewBaseError(http.StatusNotFound, KindNotFound,
		"RESIDENT_NOT_IN_ALLOTMENT", "Resident is not part of this allotment")

	// Conflict / authorization
	ErrLabourNotAssigned = NewBaseError(http.StatusForbidden, KindConflict,
		"LABOUR_NOT_ASSIGNED", "Labour is not assigned to this allotment")

	ErrAllotmentCompleted = NewBaseError(http.StatusConflict, KindConflict,
		"ALLOTMENT_COMPLETED", "Allotment is already collected")

	ErrAllotmentVersionConflict = NewBaseError(http.StatusConflict, KindConflict,
		"ALLOTMENT_VERSION_CONFLICT", "Allotment was modified concurrently, retry the request")

	ErrAllotmentBusy = NewBaseError(http.StatusConflict, KindConflict,
		"ALLOTMENT_BUSY", "Allotment is being updated, retry the request")

	// General
	ErrForbidden = NewBaseError(http.StatusForbidden, KindConflict,
		"FORBIDDEN", "Access denied")

	ErrInternalError = NewBaseError(http.StatusInternalServerError, KindInternal,
		"INTERNAL_ERROR", "Internal server error")
)

// DatabaseExecuteError represents a persistence failure, implementing the AppError interface
type DatabaseExecuteError struct {
	err     error
	details string
}

// NewDatabaseExecuteError creates a database-related error
func NewDatabaseExecuteError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed: "+e.details).Error()
}

// Unwrap exposes the driver error
func (e *DatabaseExecuteError) Unwrap() error {
	return e.err
}

// HTTPCode returns the HTTP status code
func (e *DatabaseExecuteError) HTTPCode() int {
	return http.StatusInternalServerError
}

// ErrorCode returns the business error code
func (e *DatabaseExecuteError) ErrorCode() string {
	return "DATABASE_EXECUTE_FAILED"
}

// Message returns the user-friendly error message
func (e *DatabaseExecuteError) Message() string {
	return "Database operation failed"
}

// Details returns detailed error information
func (e *DatabaseExecuteError) Details() string {
	return e.details
}

// Kind returns the error family
func (e *DatabaseExecuteError) Kind() Kind {
	return KindStore
}
