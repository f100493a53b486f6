package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/linoprint/inkstock-backend/pkg/database"
	"github.com/shopspring/decimal"
)

// Movement types
const (
	MovementTypeReceipt    = "receipt"
	MovementTypeDispatch   = "dispatch"
	MovementTypeAdjustment = "adjustment"
	MovementTypeScrap      = "scrap"
)

// Movement is an append-only record of a quantity change on a batch.
// QuantityBefore and QuantityAfter snapshot the batch quantity around
// the change so the history is auditable without replaying it.
type Movement struct {
	ID             string          `db:"id" json:"id"`
	ItemID         string          `db:"item_id" json:"item_id"`
	BatchID        string          `db:"batch_id" json:"batch_id"`
	MovementType   string          `db:"movement_type" json:"movement_type"`
	Quantity       decimal.Decimal `db:"quantity" json:"quantity"`
	QuantityBefore decimal.Decimal `db:"quantity_before" json:"quantity_before"`
	QuantityAfter  decimal.Decimal `db:"quantity_after" json:"quantity_after"`
	Reference      *string         `db:"reference" json:"reference,omitempty"`
	Reason         *string         `db:"reason" json:"reason,omitempty"`
	PerformedBy    string          `db:"performed_by" json:"performed_by"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// MovementFilter narrows movement history queries
type MovementFilter struct {
	ItemID       string
	BatchID      string
	MovementType string
	From         *time.Time
	To           *time.Time
	Limit        int
	Offset       int
}

// MovementRepository handles movement persistence
type MovementRepository struct {
	db *database.DB
}

// NewMovementRepository creates a new movement repository
func NewMovementRepository(db *database.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

// Create records a movement
func (r *MovementRepository) Create(ctx context.Context, m *Movement) error {
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

	err := r.db.QueryRowxContext(ctx, query,
		m.ID, m.ItemID, m.BatchID, m.MovementType, m.Quantity,
		m.QuantityBefore, m.QuantityAfter, m.Reference, m.Reason, m.PerformedBy,
	).Scan(&m.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// List lists movements matching the filter, newest first
func (r *MovementRepository) List(ctx context.Context, filter MovementFilter) ([]*Movement, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var movements []*Movement
	query := `
		SELECT * FROM movements
		WHERE ($1 = '' OR item_id = $1)
		AND ($2 = '' OR batch_id = $2)
		AND ($3 = '' OR movement_type = $3)
		AND ($4::timestamptz IS NULL OR created_at >= $4)
		AND ($5::timestamptz IS NULL OR created_at <= $5)
		ORDER BY created_at DESC
		LIMIT $6 OFFSET $7
	`
	err := r.db.SelectContext(ctx, &movements, query,
		filter.ItemID, filter.BatchID, filter.MovementType,
		filter.From, filter.To, limit, filter.Offset,
	)
	if err != nil {
		return nil, err
	}
	return movements, nil
}

// LastDispatchAt returns the time of the most recent dispatch movement
// for an item, or nil when the item has never been dispatched.
func (r *MovementRepository) LastDispatchAt(ctx context.Context, itemID string) (*time.Time, error) {
	var last sql.NullTime
	query := `SELECT MAX(created_at) FROM movements WHERE item_id = $1 AND movement_type = 'dispatch'`
	if err := r.db.GetContext(ctx, &last, query, itemID); err != nil {
		return nil, err
	}
	if !last.Valid {
		return nil, nil
	}
	return &last.Time, nil
}

// FirstReceiptAt returns the time of the earliest receipt movement for
// an item, or nil when the item has never been received.
func (r *MovementRepository) FirstReceiptAt(ctx context.Context, itemID string) (*time.Time, error) {
	var first sql.NullTime
	query := `SELECT MIN(created_at) FROM movements WHERE item_id = $1 AND movement_type = 'receipt'`
	if err := r.db.GetContext(ctx, &first, query, itemID); err != nil {
		return nil, err
	}
	if !first.Valid {
		return nil, nil
	}
	return &first.Time, nil
}
