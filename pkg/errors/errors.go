package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard error types
var (
	ErrNotFound             = errors.New("resource not found")
	ErrBadRequest           = errors.New("bad request")
	ErrConflict             = errors.New("resource conflict")
	ErrInternal             = errors.New("internal server error")
	ErrValidation           = errors.New("validation error")
	ErrInsufficientQuantity = errors.New("insufficient quantity")
	ErrBatchNotActive       = errors.New("batch not active")
	ErrBatchExpired         = errors.New("batch expired")
	ErrConcurrencyConflict  = errors.New("concurrency conflict")
	ErrDuplicateBatchNumber = errors.New("duplicate batch number")
)

// AppError represents an application error with context
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	StatusCode int               `json:"status_code"`
	Details    map[string]string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code string, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, code string, message string, statusCode int) *AppError {
	return &AppError{
		Err:        err,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// Common error constructors

func NotFound(resource string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Code:       "CONFLICT",
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func Internal(message string) *AppError {
	return &AppError{
		Err:        ErrInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

func Validation(details map[string]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Code:       "VALIDATION_ERROR",
		Message:    "validation failed",
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

// Inventory error constructors

// InsufficientQuantity reports that a batch cannot cover the requested
// quantity. Available and requested are reported with machine precision so
// callers can explain the gap.
func InsufficientQuantity(batchNumber, available, requested string) *AppError {
	return &AppError{
		Err:        ErrInsufficientQuantity,
		Code:       "INSUFFICIENT_QUANTITY",
		Message:    fmt.Sprintf("insufficient quantity in batch %s: available %s, requested %s", batchNumber, available, requested),
		StatusCode: http.StatusConflict,
		Details: map[string]string{
			"batch_number": batchNumber,
			"available":    available,
			"requested":    requested,
		},
	}
}

// BatchNotActive reports a pick against a depleted or scrapped batch.
func BatchNotActive(batchNumber, status string) *AppError {
	return &AppError{
		Err:        ErrBatchNotActive,
		Code:       "BATCH_NOT_ACTIVE",
		Message:    fmt.Sprintf("batch %s is not active (status: %s)", batchNumber, status),
		StatusCode: http.StatusConflict,
		Details: map[string]string{
			"batch_number": batchNumber,
			"status":       status,
		},
	}
}

// BatchExpired reports a pick against an expired batch without an override.
func BatchExpired(batchNumber, expirationDate string) *AppError {
	return &AppError{
		Err:        ErrBatchExpired,
		Code:       "BATCH_EXPIRED",
		Message:    fmt.Sprintf("batch %s expired on %s", batchNumber, expirationDate),
		StatusCode: http.StatusConflict,
		Details: map[string]string{
			"batch_number":    batchNumber,
			"expiration_date": expirationDate,
		},
	}
}

// ConcurrencyConflict is transient; the whole operation is safe to retry.
func ConcurrencyConflict() *AppError {
	return &AppError{
		Err:        ErrConcurrencyConflict,
		Code:       "CONCURRENCY_CONFLICT",
		Message:    "concurrent modification detected, retry the operation",
		StatusCode: http.StatusConflict,
	}
}

func DuplicateBatchNumber(batchNumber string) *AppError {
	return &AppError{
		Err:        ErrDuplicateBatchNumber,
		Code:       "DUPLICATE_BATCH_NUMBER",
		Message:    fmt.Sprintf("batch number %s already exists", batchNumber),
		StatusCode: http.StatusConflict,
		Details: map[string]string{
			"batch_number": batchNumber,
		},
	}
}

// Is checks if the error matches a target error
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target any) bool {
	return errors.As(err, target)
}
