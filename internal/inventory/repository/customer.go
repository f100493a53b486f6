package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/linoprint/inkstock-backend/pkg/database"
	"github.com/linoprint/inkstock-backend/pkg/errors"
)

// Customer represents a recipient of dispatched stock
type Customer struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	ContactName  *string   `db:"contact_name" json:"contact_name,omitempty"`
	ContactEmail *string   `db:"contact_email" json:"contact_email,omitempty"`
	ContactPhone *string   `db:"contact_phone" json:"contact_phone,omitempty"`
	Address      *string   `db:"address" json:"address,omitempty"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// CustomerRepository handles customer persistence
type CustomerRepository struct {
	db *database.DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *database.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// Create creates a new customer
func (r *CustomerRepository) Create(ctx context.Context, c *Customer) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}

	query := `
		INSERT INTO customers (
			id, name, contact_name, contact_email, contact_phone, address, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		c.ID, c.Name, c.ContactName, c.ContactEmail, c.ContactPhone, c.Address, c.IsActive,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetByID gets a customer by ID
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*Customer, error) {
	var c Customer
	query := `SELECT * FROM customers WHERE id = $1`
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("customer")
		}
		return nil, err
	}
	return &c, nil
}

// List lists customers, optionally including inactive ones
func (r *CustomerRepository) List(ctx context.Context, includeInactive bool) ([]*Customer, error) {
	var customers []*Customer
	query := `SELECT * FROM customers WHERE is_active = true OR $1 ORDER BY name`
	if err := r.db.SelectContext(ctx, &customers, query, includeInactive); err != nil {
		return nil, err
	}
	return customers, nil
}

// Update updates a customer
func (r *CustomerRepository) Update(ctx context.Context, c *Customer) error {
	query := `
		UPDATE customers SET
			name = $2, contact_name = $3, contact_email = $4,
			contact_phone = $5, address = $6, is_active = $7, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		c.ID, c.Name, c.ContactName, c.ContactEmail, c.ContactPhone, c.Address, c.IsActive,
	)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("customer")
	}

	return nil
}
