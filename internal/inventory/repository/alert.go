package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/linoprint/inkstock-backend/pkg/database"
	"github.com/linoprint/inkstock-backend/pkg/errors"
)

// Alert types
const (
	AlertTypeExpirationWarning = "expiration_warning"
	AlertTypeExpired           = "expired"
	AlertTypeLowStock          = "low_stock"
	AlertTypeDeadStock         = "dead_stock"
)

// Alert severities
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Alert is a persistent notification raised by the risk scanner.
// The dedup key makes repeated scans idempotent: an alert for the same
// subject and condition is only ever created once.
type Alert struct {
	ID          string    `db:"id" json:"id"`
	AlertType   string    `db:"alert_type" json:"alert_type"`
	Severity    string    `db:"severity" json:"severity"`
	Message     string    `db:"message" json:"message"`
	ItemID      *string   `db:"item_id" json:"item_id,omitempty"`
	BatchID     *string   `db:"batch_id" json:"batch_id,omitempty"`
	DedupKey    string    `db:"dedup_key" json:"-"`
	IsRead      bool      `db:"is_read" json:"is_read"`
	IsDismissed bool      `db:"is_dismissed" json:"is_dismissed"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ExpirationDedupKey builds the dedup key for a batch crossing an
// expiration threshold. Each threshold gets its own key so a batch can
// escalate through successive warning bands.
func ExpirationDedupKey(batchID string, thresholdDays int) string {
	return fmt.Sprintf("batch:%s:%s:%d", batchID, AlertTypeExpirationWarning, thresholdDays)
}

// ExpiredDedupKey builds the dedup key for an expired batch
func ExpiredDedupKey(batchID string) string {
	return fmt.Sprintf("batch:%s:%s:0", batchID, AlertTypeExpired)
}

// LowStockDedupKey builds the dedup key for an item below its reorder point
func LowStockDedupKey(itemID string) string {
	return fmt.Sprintf("item:%s:%s:0", itemID, AlertTypeLowStock)
}

// DeadStockDedupKey builds the dedup key for an item with no recent dispatches
func DeadStockDedupKey(itemID string) string {
	return fmt.Sprintf("item:%s:%s:0", itemID, AlertTypeDeadStock)
}

// AlertFilter narrows alert list queries
type AlertFilter struct {
	AlertType     string
	Severity      string
	UnreadOnly    bool
	IncludeHidden bool
	Limit         int
	Offset        int
}

// AlertRepository handles alert persistence
type AlertRepository struct {
	db *database.DB
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *database.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// CreateIfAbsent inserts the alert unless one with the same dedup key
// already exists. Returns true when a new alert was created.
func (r *AlertRepository) CreateIfAbsent(ctx context.Context, alert *Alert) (bool, error) {
	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}

	query := `
		INSERT INTO alerts (
			id, alert_type, severity, message, item_id, batch_id, dedup_key
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (dedup_key) DO NOTHING
		RETURNING created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		alert.ID, alert.AlertType, alert.Severity, alert.Message,
		alert.ItemID, alert.BatchID, alert.DedupKey,
	).Scan(&alert.CreatedAt)
	if err == sql.ErrNoRows {
		// Conflict: an alert with this dedup key already exists
		return false, nil
	}
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return false, appErr
		}
		return false, err
	}
	return true, nil
}

// GetByID gets an alert by ID
func (r *AlertRepository) GetByID(ctx context.Context, id string) (*Alert, error) {
	var alert Alert
	query := `SELECT * FROM alerts WHERE id = $1`
	if err := r.db.GetContext(ctx, &alert, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("alert")
		}
		return nil, err
	}
	return &alert, nil
}

// List lists alerts matching the filter, newest first. Dismissed alerts
// are hidden unless IncludeHidden is set.
func (r *AlertRepository) List(ctx context.Context, filter AlertFilter) ([]*Alert, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var alerts []*Alert
	query := `
		SELECT * FROM alerts
		WHERE ($1 = '' OR alert_type = $1)
		AND ($2 = '' OR severity = $2)
		AND (NOT $3 OR is_read = false)
		AND ($4 OR is_dismissed = false)
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6
	`
	err := r.db.SelectContext(ctx, &alerts, query,
		filter.AlertType, filter.Severity, filter.UnreadOnly, filter.IncludeHidden,
		limit, filter.Offset,
	)
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

// UnreadCount returns the number of unread, undismissed alerts
func (r *AlertRepository) UnreadCount(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM alerts WHERE is_read = false AND is_dismissed = false`
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, err
	}
	return count, nil
}

// MarkRead marks an alert as read
func (r *AlertRepository) MarkRead(ctx context.Context, id string) error {
	query := `UPDATE alerts SET is_read = true WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("alert")
	}

	return nil
}

// MarkAllRead marks every unread alert as read and returns the count
func (r *AlertRepository) MarkAllRead(ctx context.Context) (int64, error) {
	query := `UPDATE alerts SET is_read = true WHERE is_read = false`
	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Dismiss hides an alert from the default listing
func (r *AlertRepository) Dismiss(ctx context.Context, id string) error {
	query := `UPDATE alerts SET is_dismissed = true, is_read = true WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("alert")
	}

	return nil
}
