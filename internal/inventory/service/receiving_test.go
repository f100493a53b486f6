package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/linoprint/inkstock-backend/internal/inventory/repository"
	"github.com/linoprint/inkstock-backend/internal/inventory/service"
	"github.com/linoprint/inkstock-backend/pkg/clock"
	"github.com/linoprint/inkstock-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testItem(id, sku string) *repository.Item {
	return &repository.Item{
		ID:       id,
		SKU:      sku,
		Name:     "Process Black",
		Unit:     "kg",
		IsActive: true,
	}
}

func newReceivingService(l *fakeLedger, clk clock.Clock) *service.ReceivingService {
	return service.NewReceivingService(l, nil, clk, testNumbering(), testLogger())
}

func TestReceive_SingleLine(t *testing.T) {
	ledger := newFakeLedger()
	ledger.addItem(testItem("item-1", "INK-0001"))
	clk := clock.NewFixed(time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC))

	svc := newReceivingService(ledger, clk)

	result, err := svc.Receive(context.Background(), service.ReceiveRequest{
		Lines: []service.ReceiveLine{
			{ItemID: "item-1", Quantity: qty("25.5"), ExpirationDate: date(2027, 8, 30)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "GRN-260830-001", result.ReceiptNumber)
	require.Len(t, result.Batches, 1)

	batch := result.Batches[0]
	assert.Equal(t, "GR-260830-001", batch.BatchNumber)
	assert.True(t, batch.Quantity.Equal(qty("25.5")))
	assert.True(t, batch.QuantityReceived.Equal(qty("25.5")))
	assert.Equal(t, repository.BatchStatusActive, batch.Status)
	assert.Equal(t, date(2026, 8, 30), batch.ReceiptDate)
	assert.Equal(t, date(2027, 8, 30), batch.ExpirationDate)
	require.NotNil(t, batch.ReceiptNumber)
	assert.Equal(t, "GRN-260830-001", *batch.ReceiptNumber)

	// A receipt movement is journaled with the GRN as reference
	require.Equal(t, 1, ledger.movementCount())
	m := ledger.movements[0]
	assert.Equal(t, repository.MovementTypeReceipt, m.MovementType)
	assert.True(t, m.QuantityBefore.IsZero())
	assert.True(t, m.QuantityAfter.Equal(qty("25.5")))
	require.NotNil(t, m.Reference)
	assert.Equal(t, "GRN-260830-001", *m.Reference)
	assert.Equal(t, "system", m.PerformedBy)
}

func TestReceive_MultiLineSharesReceiptNumber(t *testing.T) {
	ledger := newFakeLedger()
	ledger.addItem(testItem("item-1", "INK-0001"))
	ledger.addItem(testItem("item-2", "INK-0002"))
	clk := clock.NewFixed(time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC))

	svc := newReceivingService(ledger, clk)

	result, err := svc.Receive(context.Background(), service.ReceiveRequest{
		Lines: []service.ReceiveLine{
			{ItemID: "item-1", Quantity: qty("10"), ExpirationDate: date(2027, 2, 1)},
			{ItemID: "item-2", Quantity: qty("5"), ExpirationDate: date(2027, 3, 1)},
			{ItemID: "item-1", Quantity: qty("8"), ExpirationDate: date(2027, 4, 1)},
		},
	})
	require.NoError(t, err)

	require.Len(t, result.Batches, 3)
	assert.Equal(t, "GR-260830-001", result.Batches[0].BatchNumber)
	assert.Equal(t, "GR-260830-002", result.Batches[1].BatchNumber)
	assert.Equal(t, "GR-260830-003", result.Batches[2].BatchNumber)

	for _, b := range result.Batches {
		require.NotNil(t, b.ReceiptNumber)
		assert.Equal(t, result.ReceiptNumber, *b.ReceiptNumber)
	}
}

func TestReceive_ContinuesDailySequence(t *testing.T) {
	ledger := newFakeLedger()
	ledger.addItem(testItem("item-1", "INK-0001"))

	grn := "GRN-260830-004"
	ledger.addBatch(&repository.Batch{
		ID:             "b-existing",
		ItemID:         "item-1",
		BatchNumber:    "GR-260830-007",
		Quantity:       qty("10"),
		ReceiptDate:    date(2026, 8, 30),
		ExpirationDate: date(2027, 1, 1),
		Status:         repository.BatchStatusActive,
		ReceiptNumber:  &grn,
	})

	clk := clock.NewFixed(time.Date(2026, 8, 30, 16, 0, 0, 0, time.UTC))
	svc := newReceivingService(ledger, clk)

	result, err := svc.Receive(context.Background(), service.ReceiveRequest{
		Lines: []service.ReceiveLine{
			{ItemID: "item-1", Quantity: qty("3"), ExpirationDate: date(2027, 6, 1)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "GRN-260830-005", result.ReceiptNumber)
	assert.Equal(t, "GR-260830-008", result.Batches[0].BatchNumber)
}

func TestReceive_SequencePastPadWidth(t *testing.T) {
	// Once a day's sequence outgrows its pad width the longer number is
	// the later one, even though it sorts lower as a plain string.
	ledger := newFakeLedger()
	ledger.addItem(testItem("item-1", "INK-0001"))

	for i, num := range []string{"GR-260830-999", "GR-260830-1000"} {
		ledger.addBatch(&repository.Batch{
			ID:             fmt.Sprintf("b-%d", i),
			ItemID:         "item-1",
			BatchNumber:    num,
			Quantity:       qty("1"),
			ReceiptDate:    date(2026, 8, 30),
			ExpirationDate: date(2027, 1, 1),
			Status:         repository.BatchStatusActive,
		})
	}

	clk := clock.NewFixed(time.Date(2026, 8, 30, 16, 0, 0, 0, time.UTC))
	svc := newReceivingService(ledger, clk)

	result, err := svc.Receive(context.Background(), service.ReceiveRequest{
		Lines: []service.ReceiveLine{
			{ItemID: "item-1", Quantity: qty("3"), ExpirationDate: date(2027, 6, 1)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "GR-260830-1001", result.Batches[0].BatchNumber)
}

func TestReceive_SupplierBatchNumber(t *testing.T) {
	ledger := newFakeLedger()
	ledger.addItem(testItem("item-1", "INK-0001"))
	clk := clock.NewFixed(time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC))

	svc := newReceivingService(ledger, clk)

	supplied := "HUB-LOT-4471"
	result, err := svc.Receive(context.Background(), service.ReceiveRequest{
		Lines: []service.ReceiveLine{
			{ItemID: "item-1", Quantity: qty("10"), ExpirationDate: date(2027, 2, 1), BatchNumber: &supplied},
			{ItemID: "item-1", Quantity: qty("5"), ExpirationDate: date(2027, 3, 1)},
		},
	})
	require.NoError(t, err)

	require.Len(t, result.Batches, 2)
	assert.Equal(t, "HUB-LOT-4471", result.Batches[0].BatchNumber)
	// Supplied numbers do not consume the generated daily sequence
	assert.Equal(t, "GR-260830-001", result.Batches[1].BatchNumber)
}

func TestReceive_DuplicateSupplierBatchNumber(t *testing.T) {
	ledger := newFakeLedger()
	ledger.addItem(testItem("item-1", "INK-0001"))
	ledger.addBatch(&repository.Batch{
		ID:             "b-existing",
		ItemID:         "item-1",
		BatchNumber:    "HUB-LOT-4471",
		Quantity:       qty("10"),
		ReceiptDate:    date(2026, 8, 1),
		ExpirationDate: date(2027, 1, 1),
		Status:         repository.BatchStatusActive,
	})

	clk := clock.NewFixed(time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC))
	svc := newReceivingService(ledger, clk)

	supplied := "HUB-LOT-4471"
	_, err := svc.Receive(context.Background(), service.ReceiveRequest{
		Lines: []service.ReceiveLine{
			{ItemID: "item-1", Quantity: qty("5"), ExpirationDate: date(2027, 2, 1), BatchNumber: &supplied},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDuplicateBatchNumber))
	assert.Contains(t, err.Error(), "HUB-LOT-4471")

	assert.Equal(t, 1, ledger.batchCount())
	assert.Equal(t, 0, ledger.movementCount())
}

func TestReceive_RejectsEmptySupplierBatchNumber(t *testing.T) {
	ledger := newFakeLedger()
	ledger.addItem(testItem("item-1", "INK-0001"))
	clk := clock.NewFixed(time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC))
	svc := newReceivingService(ledger, clk)

	empty := ""
	_, err := svc.Receive(context.Background(), service.ReceiveRequest{
		Lines: []service.ReceiveLine{
			{ItemID: "item-1", Quantity: qty("5"), ExpirationDate: date(2027, 1, 1), BatchNumber: &empty},
		},
	})
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Details, "lines[0].batch_number")
}

func TestReceive_RejectsNonPositiveQuantity(t *testing.T) {
	ledger := newFakeLedger()
	ledger.addItem(testItem("item-1", "INK-0001"))
	clk := clock.NewFixed(time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC))

	svc := newReceivingService(ledger, clk)

	_, err := svc.Receive(context.Background(), service.ReceiveRequest{
		Lines: []service.ReceiveLine{
			{ItemID: "item-1", Quantity: qty("0"), ExpirationDate: date(2027, 1, 1)},
		},
	})
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	assert.Contains(t, appErr.Details, "lines[0].quantity")
	assert.Equal(t, 0, ledger.batchCount())
}

func TestReceive_RejectsExpirationOnOrBeforeReceipt(t *testing.T) {
	ledger := newFakeLedger()
	ledger.addItem(testItem("item-1", "INK-0001"))
	clk := clock.NewFixed(time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC))

	svc := newReceivingService(ledger, clk)

	tests := []struct {
		name       string
		expiration time.Time
	}{
		{"expires before receipt", date(2026, 8, 1)},
		{"expires on receipt day", date(2026, 8, 30)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Receive(context.Background(), service.ReceiveRequest{
				Lines: []service.ReceiveLine{
					{ItemID: "item-1", Quantity: qty("5"), ExpirationDate: tt.expiration},
				},
			})
			require.Error(t, err)

			var appErr *errors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Contains(t, appErr.Details, "lines[0].expiration_date")
		})
	}

	assert.Equal(t, 0, ledger.batchCount())
}

func TestReceive_AllOrNothing(t *testing.T) {
	// One bad line rejects the whole receipt: no batch and no movement
	// from the valid lines survives.
	ledger := newFakeLedger()
	ledger.addItem(testItem("item-1", "INK-0001"))
	inactive := testItem("item-2", "INK-0002")
	inactive.IsActive = false
	ledger.addItem(inactive)

	clk := clock.NewFixed(time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC))
	svc := newReceivingService(ledger, clk)

	_, err := svc.Receive(context.Background(), service.ReceiveRequest{
		Lines: []service.ReceiveLine{
			{ItemID: "item-1", Quantity: qty("10"), ExpirationDate: date(2027, 1, 1)},
			{ItemID: "item-2", Quantity: qty("5"), ExpirationDate: date(2027, 1, 1)},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INK-0002")

	assert.Equal(t, 0, ledger.batchCount())
	assert.Equal(t, 0, ledger.movementCount())
}

func TestReceive_UnknownItem(t *testing.T) {
	ledger := newFakeLedger()
	clk := clock.NewFixed(time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC))
	svc := newReceivingService(ledger, clk)

	_, err := svc.Receive(context.Background(), service.ReceiveRequest{
		Lines: []service.ReceiveLine{
			{ItemID: "missing", Quantity: qty("5"), ExpirationDate: date(2027, 1, 1)},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestReceive_ExplicitReceiptDate(t *testing.T) {
	ledger := newFakeLedger()
	ledger.addItem(testItem("item-1", "INK-0001"))
	clk := clock.NewFixed(time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC))

	svc := newReceivingService(ledger, clk)

	backdated := date(2026, 8, 28)
	result, err := svc.Receive(context.Background(), service.ReceiveRequest{
		Lines: []service.ReceiveLine{
			{ItemID: "item-1", Quantity: qty("5"), ExpirationDate: date(2027, 1, 1)},
		},
		ReceiptDate: &backdated,
	})
	require.NoError(t, err)

	assert.Equal(t, "GRN-260828-001", result.ReceiptNumber)
	assert.Equal(t, "GR-260828-001", result.Batches[0].BatchNumber)
	assert.Equal(t, backdated, result.Batches[0].ReceiptDate)
}

func TestReceive_EmptyRequest(t *testing.T) {
	ledger := newFakeLedger()
	clk := clock.NewFixed(time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC))
	svc := newReceivingService(ledger, clk)

	_, err := svc.Receive(context.Background(), service.ReceiveRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one line")
}
