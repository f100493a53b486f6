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

// Delivery note statuses
const (
	DeliveryNoteStatusDraft     = "draft"
	DeliveryNoteStatusIssued    = "issued"
	DeliveryNoteStatusDelivered = "delivered"
	DeliveryNoteStatusInvoiced  = "invoiced"
	DeliveryNoteStatusCancelled = "cancelled"
)

// DeliveryNote documents an outbound dispatch to a customer
type DeliveryNote struct {
	ID         string    `db:"id" json:"id"`
	NoteNumber string    `db:"note_number" json:"note_number"`
	CustomerID *string   `db:"customer_id" json:"customer_id,omitempty"`
	Status     string    `db:"status" json:"status"`
	IssueDate  time.Time `db:"issue_date" json:"issue_date"`
	Notes      *string   `db:"notes" json:"notes,omitempty"`
	IssuedBy   string    `db:"issued_by" json:"issued_by"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`

	Lines []*DeliveryNoteLine `db:"-" json:"lines,omitempty"`
}

// DeliveryNoteLine is one batch-level pick on a delivery note
type DeliveryNoteLine struct {
	ID             string          `db:"id" json:"id"`
	DeliveryNoteID string          `db:"delivery_note_id" json:"delivery_note_id"`
	ItemID         string          `db:"item_id" json:"item_id"`
	BatchID        string          `db:"batch_id" json:"batch_id"`
	BatchNumber    string          `db:"batch_number" json:"batch_number"`
	Quantity       decimal.Decimal `db:"quantity" json:"quantity"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// DeliveryNoteRepository handles delivery note persistence
type DeliveryNoteRepository struct {
	db *database.DB
}

// NewDeliveryNoteRepository creates a new delivery note repository
func NewDeliveryNoteRepository(db *database.DB) *DeliveryNoteRepository {
	return &DeliveryNoteRepository{db: db}
}

// GetByID gets a delivery note with its lines
func (r *DeliveryNoteRepository) GetByID(ctx context.Context, id string) (*DeliveryNote, error) {
	var note DeliveryNote
	query := `SELECT * FROM delivery_notes WHERE id = $1`
	if err := r.db.GetContext(ctx, &note, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("delivery note")
		}
		return nil, err
	}

	linesQuery := `SELECT * FROM delivery_note_lines WHERE delivery_note_id = $1 ORDER BY created_at, id`
	if err := r.db.SelectContext(ctx, &note.Lines, linesQuery, id); err != nil {
		return nil, err
	}

	return &note, nil
}

// List lists delivery notes, newest first
func (r *DeliveryNoteRepository) List(ctx context.Context, limit, offset int) ([]*DeliveryNote, error) {
	if limit <= 0 {
		limit = 50
	}

	var notes []*DeliveryNote
	query := `SELECT * FROM delivery_notes ORDER BY issue_date DESC, note_number DESC LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &notes, query, limit, offset); err != nil {
		return nil, err
	}
	return notes, nil
}

// UpdateStatus transitions a delivery note to a new status
func (r *DeliveryNoteRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE delivery_notes SET status = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("delivery note")
	}

	return nil
}

// Create creates a delivery note with its lines outside a dispatch
// transaction, for manually drafted documents.
func (r *DeliveryNoteRepository) Create(ctx context.Context, note *DeliveryNote) error {
	if note.ID == "" {
		note.ID = uuid.New().String()
	}
	if note.Status == "" {
		note.Status = DeliveryNoteStatusDraft
	}

	query := `
		INSERT INTO delivery_notes (
			id, note_number, customer_id, status, issue_date, notes, issued_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		note.ID, note.NoteNumber, note.CustomerID, note.Status,
		note.IssueDate, note.Notes, note.IssuedBy,
	).Scan(&note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	for _, line := range note.Lines {
		if line.ID == "" {
			line.ID = uuid.New().String()
		}
		line.DeliveryNoteID = note.ID

		lineQuery := `
			INSERT INTO delivery_note_lines (
				id, delivery_note_id, item_id, batch_id, batch_number, quantity
			) VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at
		`
		err := r.db.QueryRowxContext(ctx, lineQuery,
			line.ID, line.DeliveryNoteID, line.ItemID, line.BatchID,
			line.BatchNumber, line.Quantity,
		).Scan(&line.CreatedAt)
		if err != nil {
			return err
		}
	}

	return nil
}
