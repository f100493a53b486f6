package repository_test

import (
	"context"
	"flag"
	"log"
	"os"
	"testing"
	"time"

	"github.com/linoprint/inkstock-backend/internal/inventory/repository"
	"github.com/linoprint/inkstock-backend/pkg/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var suite *testutil.IntegrationSuite

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		// Unit tests only; integration tests skip themselves
		os.Exit(m.Run())
	}

	ctx := context.Background()

	var err error
	suite, err = testutil.NewIntegrationSuite(ctx)
	if err != nil {
		log.Fatalf("failed to create integration suite: %v", err)
	}

	code := m.Run()
	testutil.TerminateContainer(ctx)
	os.Exit(code)
}

// createTestItem creates an item with unique fixture values for tests
// that need a parent item.
func createTestItem(t *testing.T, ctx context.Context, repo *repository.ItemRepository) *repository.Item {
	t.Helper()

	fx := suite.Fixtures.Item()
	supplier := fx.Supplier
	item := &repository.Item{
		SKU:           fx.SKU,
		Name:          fx.Name,
		Supplier:      &supplier,
		Unit:          fx.Unit,
		CostPerUnit:   fx.CostPerUnit,
		ReorderPoint:  fx.ReorderPoint,
		MinStock:      fx.MinStock,
		MaxStock:      fx.MaxStock,
		ShelfLifeDays: fx.ShelfLifeDays,
		IsActive:      true,
	}
	err := repo.Create(ctx, item)
	require.NoError(t, err)
	return item
}

// createTestBatch creates an active batch for the item expiring at the
// given date.
func createTestBatch(t *testing.T, ctx context.Context, repo *repository.BatchRepository, itemID string, quantity string, receipt, expiration time.Time) *repository.Batch {
	t.Helper()

	fx := suite.Fixtures.Batch(itemID)
	batch := &repository.Batch{
		ItemID:           itemID,
		BatchNumber:      fx.BatchNumber,
		Quantity:         decimal.RequireFromString(quantity),
		QuantityReceived: decimal.RequireFromString(quantity),
		ReceiptDate:      receipt,
		ExpirationDate:   expiration,
		Status:           repository.BatchStatusActive,
	}
	err := repo.Create(ctx, batch)
	require.NoError(t, err)
	return batch
}
