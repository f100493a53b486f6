package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemFixture represents test ink item data
type ItemFixture struct {
	ID            string
	SKU           string
	Name          string
	Supplier      string
	Unit          string
	CostPerUnit   decimal.Decimal
	ReorderPoint  decimal.Decimal
	MinStock      decimal.Decimal
	MaxStock      decimal.Decimal
	ShelfLifeDays int
	IsActive      bool
	CreatedAt     time.Time
}

// BatchFixture represents test ink batch data
type BatchFixture struct {
	ID               string
	ItemID           string
	BatchNumber      string
	Quantity         decimal.Decimal
	QuantityReceived decimal.Decimal
	ReceiptDate      time.Time
	ExpirationDate   time.Time
	Status           string
	Version          int
}

// CustomerFixture represents test customer data
type CustomerFixture struct {
	ID           string
	Name         string
	ContactName  string
	ContactEmail string
	IsActive     bool
}

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// Item creates an ink item fixture with defaults
func (f *FixtureFactory) Item(opts ...func(*ItemFixture)) ItemFixture {
	seq := f.nextSeq()

	item := ItemFixture{
		ID:            uuid.New().String(),
		SKU:           fmt.Sprintf("INK-%04d", seq),
		Name:          fmt.Sprintf("Process Black %d", seq),
		Supplier:      "Hubergroup",
		Unit:          "kg",
		CostPerUnit:   decimal.NewFromFloat(12.50),
		ReorderPoint:  decimal.NewFromInt(10),
		MinStock:      decimal.NewFromInt(5),
		MaxStock:      decimal.NewFromInt(200),
		ShelfLifeDays: 365,
		IsActive:      true,
		CreatedAt:     time.Now(),
	}

	for _, opt := range opts {
		opt(&item)
	}

	return item
}

// WithSKU sets the item SKU
func WithSKU(sku string) func(*ItemFixture) {
	return func(i *ItemFixture) {
		i.SKU = sku
	}
}

// WithReorderPoint sets the item reorder point
func WithReorderPoint(qty decimal.Decimal) func(*ItemFixture) {
	return func(i *ItemFixture) {
		i.ReorderPoint = qty
	}
}

// Batch creates a batch fixture with defaults.
// The batch expires one year from now and holds 20 units.
func (f *FixtureFactory) Batch(itemID string, opts ...func(*BatchFixture)) BatchFixture {
	seq := f.nextSeq()
	now := time.Now()

	batch := BatchFixture{
		ID:               uuid.New().String(),
		ItemID:           itemID,
		BatchNumber:      fmt.Sprintf("GR-%s-%03d", now.Format("060102"), seq),
		Quantity:         decimal.NewFromInt(20),
		QuantityReceived: decimal.NewFromInt(20),
		ReceiptDate:      now,
		ExpirationDate:   now.AddDate(1, 0, 0),
		Status:           "active",
		Version:          1,
	}

	for _, opt := range opts {
		opt(&batch)
	}

	return batch
}

// WithQuantity sets the batch quantity (and quantity received)
func WithQuantity(qty decimal.Decimal) func(*BatchFixture) {
	return func(b *BatchFixture) {
		b.Quantity = qty
		b.QuantityReceived = qty
	}
}

// WithExpiration sets the batch expiration date
func WithExpiration(exp time.Time) func(*BatchFixture) {
	return func(b *BatchFixture) {
		b.ExpirationDate = exp
	}
}

// WithReceiptDate sets the batch receipt date
func WithReceiptDate(d time.Time) func(*BatchFixture) {
	return func(b *BatchFixture) {
		b.ReceiptDate = d
	}
}

// WithBatchStatus sets the batch status
func WithBatchStatus(status string) func(*BatchFixture) {
	return func(b *BatchFixture) {
		b.Status = status
	}
}

// Customer creates a customer fixture with defaults
func (f *FixtureFactory) Customer(opts ...func(*CustomerFixture)) CustomerFixture {
	seq := f.nextSeq()

	customer := CustomerFixture{
		ID:           uuid.New().String(),
		Name:         fmt.Sprintf("Print Shop %d", seq),
		ContactName:  "Dana",
		ContactEmail: fmt.Sprintf("orders%d@customer.test", seq),
		IsActive:     true,
	}

	for _, opt := range opts {
		opt(&customer)
	}

	return customer
}
