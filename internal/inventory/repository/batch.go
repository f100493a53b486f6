package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/linoprint/inkstock-backend/pkg/database"
	"github.com/linoprint/inkstock-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// Batch statuses
const (
	BatchStatusActive   = "active"
	BatchStatusDepleted = "depleted"
	BatchStatusScrapped = "scrapped"
)

// Batch represents a received lot of ink with its own expiration date.
// Quantity is tracked per batch so that dispatches can drain the
// earliest-expiring stock first.
type Batch struct {
	ID               string          `db:"id" json:"id"`
	ItemID           string          `db:"item_id" json:"item_id"`
	BatchNumber      string          `db:"batch_number" json:"batch_number"`
	Quantity         decimal.Decimal `db:"quantity" json:"quantity"`
	QuantityReceived decimal.Decimal `db:"quantity_received" json:"quantity_received"`
	ReceiptDate      time.Time       `db:"receipt_date" json:"receipt_date"`
	ExpirationDate   time.Time       `db:"expiration_date" json:"expiration_date"`
	Status           string          `db:"status" json:"status"`
	ReceiptNumber    *string         `db:"receipt_number" json:"receipt_number,omitempty"`
	SupplierRef      *string         `db:"supplier_ref" json:"supplier_ref,omitempty"`
	Notes            *string         `db:"notes" json:"notes,omitempty"`
	Version          int             `db:"version" json:"version"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// BatchRepository handles batch persistence
type BatchRepository struct {
	db *database.DB
}

// NewBatchRepository creates a new batch repository
func NewBatchRepository(db *database.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// Create creates a new batch
func (r *BatchRepository) Create(ctx context.Context, batch *Batch) error {
	if batch.ID == "" {
		batch.ID = uuid.New().String()
	}
	if batch.Status == "" {
		batch.Status = BatchStatusActive
	}

	query := `
		INSERT INTO batches (
			id, item_id, batch_number, quantity, quantity_received,
			receipt_date, expiration_date, status, receipt_number, supplier_ref, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING version, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		batch.ID, batch.ItemID, batch.BatchNumber, batch.Quantity, batch.QuantityReceived,
		batch.ReceiptDate, batch.ExpirationDate, batch.Status,
		batch.ReceiptNumber, batch.SupplierRef, batch.Notes,
	).Scan(&batch.Version, &batch.CreatedAt, &batch.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetByID gets a batch by ID
func (r *BatchRepository) GetByID(ctx context.Context, id string) (*Batch, error) {
	var batch Batch
	query := `SELECT * FROM batches WHERE id = $1`
	if err := r.db.GetContext(ctx, &batch, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("batch")
		}
		return nil, err
	}
	return &batch, nil
}

// GetByBatchNumber gets a batch by its human-readable number
func (r *BatchRepository) GetByBatchNumber(ctx context.Context, batchNumber string) (*Batch, error) {
	var batch Batch
	query := `SELECT * FROM batches WHERE batch_number = $1`
	if err := r.db.GetContext(ctx, &batch, query, batchNumber); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("batch")
		}
		return nil, err
	}
	return &batch, nil
}

// ListByItem lists all batches for an item, newest receipt first
func (r *BatchRepository) ListByItem(ctx context.Context, itemID string) ([]*Batch, error) {
	var batches []*Batch
	query := `
		SELECT * FROM batches
		WHERE item_id = $1
		ORDER BY receipt_date DESC, id
	`
	if err := r.db.SelectContext(ctx, &batches, query, itemID); err != nil {
		return nil, err
	}
	return batches, nil
}

// ListAvailableByItem lists active batches with stock for an item in
// first-expired-first-out order: expiration ascending, then receipt date,
// then batch ID as the final tie-breaker.
func (r *BatchRepository) ListAvailableByItem(ctx context.Context, itemID string) ([]*Batch, error) {
	var batches []*Batch
	query := `
		SELECT * FROM batches
		WHERE item_id = $1 AND status = 'active' AND quantity > 0
		ORDER BY expiration_date, receipt_date, id
	`
	if err := r.db.SelectContext(ctx, &batches, query, itemID); err != nil {
		return nil, err
	}
	return batches, nil
}

// ListActive lists all active batches with stock across all items
func (r *BatchRepository) ListActive(ctx context.Context) ([]*Batch, error) {
	var batches []*Batch
	query := `
		SELECT * FROM batches
		WHERE status = 'active' AND quantity > 0
		ORDER BY expiration_date, receipt_date, id
	`
	if err := r.db.SelectContext(ctx, &batches, query); err != nil {
		return nil, err
	}
	return batches, nil
}

// TotalAvailable returns the summed on-hand quantity of active,
// unexpired batches for an item as of the given date.
func (r *BatchRepository) TotalAvailable(ctx context.Context, itemID string, asOf time.Time) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	query := `
		SELECT SUM(quantity) FROM batches
		WHERE item_id = $1 AND status = 'active' AND quantity > 0
		AND expiration_date >= $2
	`
	if err := r.db.GetContext(ctx, &total, query, itemID, asOf); err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// BatchNumberExists reports whether a batch number is already taken
func (r *BatchRepository) BatchNumberExists(ctx context.Context, batchNumber string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM batches WHERE batch_number = $1)`
	if err := r.db.GetContext(ctx, &exists, query, batchNumber); err != nil {
		return false, err
	}
	return exists, nil
}

// LastBatchNumber returns the highest batch number matching the given
// prefix, or empty string when none exists. Used to derive the next
// sequence for a receipt day. Numbers are zero-padded, so ordering by
// length before value keeps the comparison numeric once a sequence
// outgrows its pad width.
func (r *BatchRepository) LastBatchNumber(ctx context.Context, prefix string) (string, error) {
	var last string
	query := `
		SELECT batch_number FROM batches
		WHERE batch_number LIKE $1 || '%'
		ORDER BY LENGTH(batch_number) DESC, batch_number DESC
		LIMIT 1
	`
	if err := r.db.GetContext(ctx, &last, query, prefix); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return last, nil
}
