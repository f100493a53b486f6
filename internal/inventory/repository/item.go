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

// Item represents an ink product tracked by the inventory
type Item struct {
	ID            string          `db:"id" json:"id"`
	SKU           string          `db:"sku" json:"sku"`
	Name          string          `db:"name" json:"name"`
	Supplier      *string         `db:"supplier" json:"supplier,omitempty"`
	Unit          string          `db:"unit" json:"unit"`
	CostPerUnit   decimal.Decimal `db:"cost_per_unit" json:"cost_per_unit"`
	ReorderPoint  decimal.Decimal `db:"reorder_point" json:"reorder_point"`
	MinStock      decimal.Decimal `db:"min_stock" json:"min_stock"`
	MaxStock      decimal.Decimal `db:"max_stock" json:"max_stock"`
	ShelfLifeDays int             `db:"shelf_life_days" json:"shelf_life_days"`
	IsActive      bool            `db:"is_active" json:"is_active"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// ItemRepository handles item persistence
type ItemRepository struct {
	db *database.DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *database.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Create creates a new item
func (r *ItemRepository) Create(ctx context.Context, item *Item) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}

	query := `
		INSERT INTO items (
			id, sku, name, supplier, unit, cost_per_unit,
			reorder_point, min_stock, max_stock, shelf_life_days, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		item.ID, item.SKU, item.Name, item.Supplier, item.Unit, item.CostPerUnit,
		item.ReorderPoint, item.MinStock, item.MaxStock, item.ShelfLifeDays, item.IsActive,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetByID gets an item by ID
func (r *ItemRepository) GetByID(ctx context.Context, id string) (*Item, error) {
	var item Item
	query := `SELECT * FROM items WHERE id = $1`
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("item")
		}
		return nil, err
	}
	return &item, nil
}

// GetBySKU gets an item by SKU
func (r *ItemRepository) GetBySKU(ctx context.Context, sku string) (*Item, error) {
	var item Item
	query := `SELECT * FROM items WHERE sku = $1`
	if err := r.db.GetContext(ctx, &item, query, sku); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("item")
		}
		return nil, err
	}
	return &item, nil
}

// List lists all items, optionally including inactive ones
func (r *ItemRepository) List(ctx context.Context, includeInactive bool) ([]*Item, error) {
	var items []*Item
	query := `SELECT * FROM items WHERE is_active = true OR $1 ORDER BY name`
	if err := r.db.SelectContext(ctx, &items, query, includeInactive); err != nil {
		return nil, err
	}
	return items, nil
}

// Update updates an item. The SKU is immutable and is never written.
func (r *ItemRepository) Update(ctx context.Context, item *Item) error {
	query := `
		UPDATE items SET
			name = $2, supplier = $3, unit = $4, cost_per_unit = $5,
			reorder_point = $6, min_stock = $7, max_stock = $8,
			shelf_life_days = $9, is_active = $10, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		item.ID, item.Name, item.Supplier, item.Unit, item.CostPerUnit,
		item.ReorderPoint, item.MinStock, item.MaxStock, item.ShelfLifeDays, item.IsActive,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("item")
	}

	return nil
}

// Deactivate marks an item as inactive without deleting its history
func (r *ItemRepository) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE items SET is_active = false, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("item")
	}

	return nil
}
