package database

import (
	"strings"

	"github.com/lib/pq"
	"github.com/linoprint/inkstock-backend/pkg/errors"
)

// Serialization failure codes that warrant a transaction retry.
const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
)

// IsRetryable reports whether err is a transient PostgreSQL error that
// a caller may safely retry in a fresh transaction.
func IsRetryable(err error) bool {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return false
	}
	return pqErr.Code == pqSerializationFailure || pqErr.Code == pqDeadlockDetected
}

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return nil
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation (23505)
	case "23505":
		return mapUniqueConstraint(pqErr)

	// Foreign key violation (23503)
	case "23503":
		return errors.BadRequest("referenced record does not exist")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	// Serialization failure / deadlock (40001, 40P01)
	case pqSerializationFailure, pqDeadlockDetected:
		return errors.ConcurrencyConflict()

	default:
		return nil
	}
}

// mapCheckConstraint maps specific CHECK constraint names to user-friendly messages.
func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "quantity_non_negative"):
		return errors.Validation(map[string]string{
			"quantity": "must not be negative",
		})

	case strings.Contains(constraint, "expiration_after_receipt"):
		return errors.Validation(map[string]string{
			"expiration_date": "must be after the receipt date",
		})

	case strings.Contains(constraint, "status_valid"):
		return errors.Validation(map[string]string{
			"status": "must be one of: active, depleted, scrapped",
		})

	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

// mapUniqueConstraint creates a domain error for unique constraint violations.
func mapUniqueConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "batch_number"):
		return errors.DuplicateBatchNumber(keyValueFromDetail(pqErr.Detail))
	case strings.Contains(constraint, "sku"):
		return errors.Conflict("an item with this SKU already exists")
	case strings.Contains(constraint, "note_number"):
		return errors.Conflict("a document with this number already exists")
	case strings.Contains(constraint, "dedup_key"):
		return errors.Conflict("an identical alert already exists")
	default:
		return errors.Conflict("a record with these values already exists")
	}
}

// keyValueFromDetail pulls the conflicting value out of a unique
// violation detail of the form `Key (column)=(value) already exists.`
func keyValueFromDetail(detail string) string {
	start := strings.Index(detail, ")=(")
	if start < 0 {
		return ""
	}
	rest := detail[start+3:]
	end := strings.LastIndex(rest, ")")
	if end < 0 {
		return ""
	}
	return rest[:end]
}
