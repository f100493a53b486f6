package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/linoprint/inkstock-backend/internal/inventory/repository"
	apperrors "github.com/linoprint/inkstock-backend/pkg/errors"
	"github.com/linoprint/inkstock-backend/pkg/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchRepository_CreateAndGet(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	items := repository.NewItemRepository(suite.DB)
	batches := repository.NewBatchRepository(suite.DB)

	item := createTestItem(t, ctx, items)
	receipt := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	expiration := time.Date(2027, 8, 1, 0, 0, 0, 0, time.UTC)
	batch := createTestBatch(t, ctx, batches, item.ID, "25.5", receipt, expiration)

	require.NotEmpty(t, batch.ID)
	assert.Equal(t, 1, batch.Version)

	got, err := batches.GetByID(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, batch.BatchNumber, got.BatchNumber)
	assert.True(t, got.Quantity.Equal(decimal.RequireFromString("25.5")))
	assert.Equal(t, "2026-08-01", got.ReceiptDate.Format("2006-01-02"))
	assert.Equal(t, "2027-08-01", got.ExpirationDate.Format("2006-01-02"))
	assert.Equal(t, repository.BatchStatusActive, got.Status)

	byNumber, err := batches.GetByBatchNumber(ctx, batch.BatchNumber)
	require.NoError(t, err)
	assert.Equal(t, batch.ID, byNumber.ID)

	exists, err := batches.BatchNumberExists(ctx, batch.BatchNumber)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestBatchRepository_DuplicateBatchNumber(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	items := repository.NewItemRepository(suite.DB)
	batches := repository.NewBatchRepository(suite.DB)

	item := createTestItem(t, ctx, items)
	receipt := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	existing := createTestBatch(t, ctx, batches, item.ID, "10", receipt, receipt.AddDate(1, 0, 0))

	dup := &repository.Batch{
		ItemID:           item.ID,
		BatchNumber:      existing.BatchNumber,
		Quantity:         decimal.NewFromInt(5),
		QuantityReceived: decimal.NewFromInt(5),
		ReceiptDate:      receipt,
		ExpirationDate:   receipt.AddDate(1, 0, 0),
	}
	err := batches.Create(ctx, dup)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrDuplicateBatchNumber))

	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, "DUPLICATE_BATCH_NUMBER", appErr.Code)
	assert.Equal(t, existing.BatchNumber, appErr.Details["batch_number"])
}

func TestBatchRepository_RejectsExpirationBeforeReceipt(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	items := repository.NewItemRepository(suite.DB)
	batches := repository.NewBatchRepository(suite.DB)

	item := createTestItem(t, ctx, items)
	fx := suite.Fixtures.Batch(item.ID)
	receipt := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	batch := &repository.Batch{
		ItemID:           item.ID,
		BatchNumber:      fx.BatchNumber,
		Quantity:         decimal.NewFromInt(5),
		QuantityReceived: decimal.NewFromInt(5),
		ReceiptDate:      receipt,
		ExpirationDate:   receipt.AddDate(0, 0, -1),
	}
	err := batches.Create(ctx, batch)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	assert.Contains(t, appErr.Details, "expiration_date")
}

func TestBatchRepository_ListAvailableByItem_Ordering(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	items := repository.NewItemRepository(suite.DB)
	batches := repository.NewBatchRepository(suite.DB)

	item := createTestItem(t, ctx, items)
	receipt := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	// Inserted out of expiration order on purpose
	late := createTestBatch(t, ctx, batches, item.ID, "10", receipt, time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC))
	early := createTestBatch(t, ctx, batches, item.ID, "10", receipt, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC))
	middle := createTestBatch(t, ctx, batches, item.ID, "10", receipt, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC))

	// Depleted and scrapped batches never show up as available
	depletedFx := suite.Fixtures.Batch(item.ID)
	depleted := &repository.Batch{
		ItemID:           item.ID,
		BatchNumber:      depletedFx.BatchNumber,
		Quantity:         decimal.Zero,
		QuantityReceived: decimal.NewFromInt(10),
		ReceiptDate:      receipt,
		ExpirationDate:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		Status:           repository.BatchStatusDepleted,
	}
	require.NoError(t, batches.Create(ctx, depleted))

	available, err := batches.ListAvailableByItem(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, available, 3)
	assert.Equal(t, early.ID, available[0].ID)
	assert.Equal(t, middle.ID, available[1].ID)
	assert.Equal(t, late.ID, available[2].ID)
}

func TestBatchRepository_ListAvailableByItem_TieBreaksOnReceiptDate(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	items := repository.NewItemRepository(suite.DB)
	batches := repository.NewBatchRepository(suite.DB)

	item := createTestItem(t, ctx, items)
	expiration := time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC)

	newer := createTestBatch(t, ctx, batches, item.ID, "10", time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC), expiration)
	older := createTestBatch(t, ctx, batches, item.ID, "10", time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), expiration)

	available, err := batches.ListAvailableByItem(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, available, 2)
	assert.Equal(t, older.ID, available[0].ID)
	assert.Equal(t, newer.ID, available[1].ID)
}

func TestBatchRepository_TotalAvailable_ExcludesExpired(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	items := repository.NewItemRepository(suite.DB)
	batches := repository.NewBatchRepository(suite.DB)

	item := createTestItem(t, ctx, items)
	receipt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	asOf := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	createTestBatch(t, ctx, batches, item.ID, "12", receipt, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC))
	createTestBatch(t, ctx, batches, item.ID, "8", receipt, asOf) // expires today, still counts
	createTestBatch(t, ctx, batches, item.ID, "30", receipt, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))

	total, err := batches.TotalAvailable(ctx, item.ID, asOf)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(20)), "got %s", total)
}

func TestBatchRepository_TotalAvailable_NoBatches(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	items := repository.NewItemRepository(suite.DB)
	batches := repository.NewBatchRepository(suite.DB)

	item := createTestItem(t, ctx, items)

	total, err := batches.TotalAvailable(ctx, item.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestBatchRepository_LastBatchNumber(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	items := repository.NewItemRepository(suite.DB)
	batches := repository.NewBatchRepository(suite.DB)

	item := createTestItem(t, ctx, items)
	receipt := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	expiration := receipt.AddDate(1, 0, 0)

	for _, number := range []string{"GR-991231-001", "GR-991231-003", "GR-991231-002"} {
		batch := &repository.Batch{
			ItemID:           item.ID,
			BatchNumber:      number,
			Quantity:         decimal.NewFromInt(1),
			QuantityReceived: decimal.NewFromInt(1),
			ReceiptDate:      receipt,
			ExpirationDate:   expiration,
		}
		require.NoError(t, batches.Create(ctx, batch))
	}

	last, err := batches.LastBatchNumber(ctx, "GR-991231-")
	require.NoError(t, err)
	assert.Equal(t, "GR-991231-003", last)

	none, err := batches.LastBatchNumber(ctx, "GR-000000-")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestBatchRepository_LastBatchNumber_PastPadWidth(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	items := repository.NewItemRepository(suite.DB)
	batches := repository.NewBatchRepository(suite.DB)

	item := createTestItem(t, ctx, items)
	receipt := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	expiration := receipt.AddDate(1, 0, 0)

	// "GR-991230-1000" sorts before "GR-991230-999" as a plain string
	// but is the later number
	for _, number := range []string{"GR-991230-999", "GR-991230-1000"} {
		batch := &repository.Batch{
			ItemID:           item.ID,
			BatchNumber:      number,
			Quantity:         decimal.NewFromInt(1),
			QuantityReceived: decimal.NewFromInt(1),
			ReceiptDate:      receipt,
			ExpirationDate:   expiration,
		}
		require.NoError(t, batches.Create(ctx, batch))
	}

	last, err := batches.LastBatchNumber(ctx, "GR-991230-")
	require.NoError(t, err)
	assert.Equal(t, "GR-991230-1000", last)
}
