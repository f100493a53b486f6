package database_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/linoprint/inkstock-backend/pkg/database"
	apperrors "github.com/linoprint/inkstock-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetryable(t *testing.T) {
	assert.True(t, database.IsRetryable(&pq.Error{Code: "40001"}))
	assert.True(t, database.IsRetryable(&pq.Error{Code: "40P01"}))
	assert.False(t, database.IsRetryable(&pq.Error{Code: "23505"}))
	assert.False(t, database.IsRetryable(errors.New("connection refused")))
	assert.False(t, database.IsRetryable(nil))
}

func TestMapPQError_CheckConstraints(t *testing.T) {
	tests := []struct {
		constraint string
		field      string
	}{
		{"batches_quantity_non_negative", "quantity"},
		{"batches_expiration_after_receipt", "expiration_date"},
		{"batches_status_valid", "status"},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			appErr := database.MapPQError(&pq.Error{Code: "23514", Constraint: tt.constraint})
			require.NotNil(t, appErr)
			assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
			assert.Contains(t, appErr.Details, tt.field)
		})
	}
}

func TestMapPQError_UniqueConstraints(t *testing.T) {
	tests := []struct {
		constraint string
		message    string
	}{
		{"batches_batch_number_key", "batch number"},
		{"items_sku_key", "SKU"},
		{"delivery_notes_note_number_key", "number"},
		{"alerts_dedup_key_key", "identical alert"},
		{"something_else_key", "already exists"},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			appErr := database.MapPQError(&pq.Error{Code: "23505", Constraint: tt.constraint})
			require.NotNil(t, appErr)
			assert.Equal(t, http.StatusConflict, appErr.StatusCode)
			assert.Contains(t, appErr.Message, tt.message)
		})
	}
}

func TestMapPQError_DuplicateBatchNumber(t *testing.T) {
	appErr := database.MapPQError(&pq.Error{
		Code:       "23505",
		Constraint: "batches_batch_number_key",
		Detail:     "Key (batch_number)=(GR-260830-001) already exists.",
	})
	require.NotNil(t, appErr)
	assert.True(t, apperrors.Is(appErr, apperrors.ErrDuplicateBatchNumber))
	assert.Equal(t, "DUPLICATE_BATCH_NUMBER", appErr.Code)
	assert.Equal(t, "GR-260830-001", appErr.Details["batch_number"])

	// Without the detail line the code still identifies the conflict
	appErr = database.MapPQError(&pq.Error{Code: "23505", Constraint: "batches_batch_number_key"})
	require.NotNil(t, appErr)
	assert.Equal(t, "DUPLICATE_BATCH_NUMBER", appErr.Code)
}

func TestMapPQError_ConcurrencyCodes(t *testing.T) {
	for _, code := range []string{"40001", "40P01"} {
		appErr := database.MapPQError(&pq.Error{Code: pq.ErrorCode(code)})
		require.NotNil(t, appErr)
		assert.True(t, apperrors.Is(appErr, apperrors.ErrConcurrencyConflict))
	}
}

func TestMapPQError_PassesThroughUnknown(t *testing.T) {
	assert.Nil(t, database.MapPQError(errors.New("not a pq error")))
	assert.Nil(t, database.MapPQError(&pq.Error{Code: "42P01"}))
}
