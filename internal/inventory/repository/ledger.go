package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/linoprint/inkstock-backend/pkg/database"
	"github.com/linoprint/inkstock-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// Ledger runs stock-changing work inside a single database transaction.
// Receiving and dispatching go through the ledger so that batch rows,
// movements and documents commit or roll back together.
type Ledger interface {
	InTx(ctx context.Context, fn func(tx LedgerTx) error) error
}

// LedgerTx is the set of operations available inside a ledger transaction
type LedgerTx interface {
	ItemByID(ctx context.Context, id string) (*Item, error)
	CustomerByID(ctx context.Context, id string) (*Customer, error)

	BatchForUpdate(ctx context.Context, id string) (*Batch, error)
	BatchesForUpdate(ctx context.Context, ids []string) ([]*Batch, error)
	AvailableBatchesForUpdate(ctx context.Context, itemID string) ([]*Batch, error)
	UpdateBatchQuantity(ctx context.Context, id string, version int, quantity decimal.Decimal, status string) error

	InsertBatch(ctx context.Context, batch *Batch) error
	InsertMovement(ctx context.Context, m *Movement) error
	InsertDeliveryNote(ctx context.Context, note *DeliveryNote) error
	InsertDeliveryNoteLine(ctx context.Context, line *DeliveryNoteLine) error

	BatchNumberExists(ctx context.Context, batchNumber string) (bool, error)
	LastBatchNumber(ctx context.Context, prefix string) (string, error)
	LastReceiptNumber(ctx context.Context, prefix string) (string, error)
	LastDeliveryNoteNumber(ctx context.Context, prefix string) (string, error)
}

// SQLLedger is the PostgreSQL-backed Ledger
type SQLLedger struct {
	db *database.DB
}

// NewLedger creates a new SQL-backed ledger
func NewLedger(db *database.DB) *SQLLedger {
	return &SQLLedger{db: db}
}

// InTx runs fn inside a transaction
func (l *SQLLedger) InTx(ctx context.Context, fn func(tx LedgerTx) error) error {
	return l.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		return fn(&sqlLedgerTx{tx: tx})
	})
}

type sqlLedgerTx struct {
	tx *sqlx.Tx
}

func (t *sqlLedgerTx) ItemByID(ctx context.Context, id string) (*Item, error) {
	var item Item
	query := `SELECT * FROM items WHERE id = $1`
	if err := t.tx.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("item")
		}
		return nil, err
	}
	return &item, nil
}

func (t *sqlLedgerTx) CustomerByID(ctx context.Context, id string) (*Customer, error) {
	var c Customer
	query := `SELECT * FROM customers WHERE id = $1`
	if err := t.tx.GetContext(ctx, &c, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("customer")
		}
		return nil, err
	}
	return &c, nil
}

// BatchForUpdate loads a batch and takes a row lock on it
func (t *sqlLedgerTx) BatchForUpdate(ctx context.Context, id string) (*Batch, error) {
	var batch Batch
	query := `SELECT * FROM batches WHERE id = $1 FOR UPDATE`
	if err := t.tx.GetContext(ctx, &batch, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("batch")
		}
		return nil, err
	}
	return &batch, nil
}

// BatchesForUpdate loads and locks the given batches in ID order.
// Every transaction locking multiple batches uses the same order, which
// keeps concurrent dispatches from deadlocking against each other.
func (t *sqlLedgerTx) BatchesForUpdate(ctx context.Context, ids []string) ([]*Batch, error) {
	var batches []*Batch
	query := `SELECT * FROM batches WHERE id = ANY($1) ORDER BY id FOR UPDATE`
	if err := t.tx.SelectContext(ctx, &batches, query, pq.Array(ids)); err != nil {
		return nil, err
	}
	return batches, nil
}

// AvailableBatchesForUpdate loads and locks active batches with stock
// for an item in first-expired-first-out order.
func (t *sqlLedgerTx) AvailableBatchesForUpdate(ctx context.Context, itemID string) ([]*Batch, error) {
	var batches []*Batch
	query := `
		SELECT * FROM batches
		WHERE item_id = $1 AND status = 'active' AND quantity > 0
		ORDER BY expiration_date, receipt_date, id
		FOR UPDATE
	`
	if err := t.tx.SelectContext(ctx, &batches, query, itemID); err != nil {
		return nil, err
	}
	return batches, nil
}

// UpdateBatchQuantity writes a new quantity and status guarded by the
// batch version. A zero row count means another transaction moved the
// batch first and the caller must retry.
func (t *sqlLedgerTx) UpdateBatchQuantity(ctx context.Context, id string, version int, quantity decimal.Decimal, status string) error {
	query := `
		UPDATE batches
		SET quantity = $3, status = $4, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
	`
	result, err := t.tx.ExecContext(ctx, query, id, version, quantity, status)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.ConcurrencyConflict()
	}

	return nil
}

func (t *sqlLedgerTx) InsertBatch(ctx context.Context, batch *Batch) error {
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

	err := t.tx.QueryRowxContext(ctx, query,
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

func (t *sqlLedgerTx) InsertMovement(ctx context.Context, m *Movement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}

	query := `
		INSERT INTO movements (
			id, item_id, batch_id, movement_type, quantity,
			quantity_before, quantity_after, reference, reason, performed_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`

	return t.tx.QueryRowxContext(ctx, query,
		m.ID, m.ItemID, m.BatchID, m.MovementType, m.Quantity,
		m.QuantityBefore, m.QuantityAfter, m.Reference, m.Reason, m.PerformedBy,
	).Scan(&m.CreatedAt)
}

func (t *sqlLedgerTx) InsertDeliveryNote(ctx context.Context, note *DeliveryNote) error {
	if note.ID == "" {
		note.ID = uuid.New().String()
	}
	if note.Status == "" {
		note.Status = DeliveryNoteStatusIssued
	}

	query := `
		INSERT INTO delivery_notes (
			id, note_number, customer_id, status, issue_date, notes, issued_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := t.tx.QueryRowxContext(ctx, query,
		note.ID, note.NoteNumber, note.CustomerID, note.Status,
		note.IssueDate, note.Notes, note.IssuedBy,
	).Scan(&note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

func (t *sqlLedgerTx) InsertDeliveryNoteLine(ctx context.Context, line *DeliveryNoteLine) error {
	if line.ID == "" {
		line.ID = uuid.New().String()
	}

	query := `
		INSERT INTO delivery_note_lines (
			id, delivery_note_id, item_id, batch_id, batch_number, quantity
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	return t.tx.QueryRowxContext(ctx, query,
		line.ID, line.DeliveryNoteID, line.ItemID, line.BatchID,
		line.BatchNumber, line.Quantity,
	).Scan(&line.CreatedAt)
}

func (t *sqlLedgerTx) BatchNumberExists(ctx context.Context, batchNumber string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM batches WHERE batch_number = $1)`
	if err := t.tx.GetContext(ctx, &exists, query, batchNumber); err != nil {
		return false, err
	}
	return exists, nil
}

// The Last*Number lookups order by length before value. Document
// numbers are zero-padded, so plain string ordering would go wrong the
// day a sequence outgrows its pad width; a longer number is always the
// later one.

func (t *sqlLedgerTx) LastBatchNumber(ctx context.Context, prefix string) (string, error) {
	query := `
		SELECT batch_number FROM batches
		WHERE batch_number LIKE $1 || '%'
		ORDER BY LENGTH(batch_number) DESC, batch_number DESC
		LIMIT 1
	`
	return t.lastNumber(ctx, query, prefix)
}

func (t *sqlLedgerTx) LastReceiptNumber(ctx context.Context, prefix string) (string, error) {
	query := `
		SELECT receipt_number FROM batches
		WHERE receipt_number LIKE $1 || '%'
		ORDER BY LENGTH(receipt_number) DESC, receipt_number DESC
		LIMIT 1
	`
	return t.lastNumber(ctx, query, prefix)
}

func (t *sqlLedgerTx) LastDeliveryNoteNumber(ctx context.Context, prefix string) (string, error) {
	query := `
		SELECT note_number FROM delivery_notes
		WHERE note_number LIKE $1 || '%'
		ORDER BY LENGTH(note_number) DESC, note_number DESC
		LIMIT 1
	`
	return t.lastNumber(ctx, query, prefix)
}

func (t *sqlLedgerTx) lastNumber(ctx context.Context, query, prefix string) (string, error) {
	var last string
	if err := t.tx.GetContext(ctx, &last, query, prefix); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return last, nil
}
