package service_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/linoprint/inkstock-backend/internal/inventory/repository"
	"github.com/linoprint/inkstock-backend/pkg/config"
	"github.com/linoprint/inkstock-backend/pkg/errors"
	"github.com/linoprint/inkstock-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

// fakeLedger is an in-memory repository.Ledger. Transactions are
// serialized on a mutex and roll back by restoring a snapshot, so
// atomicity and version conflicts behave like the SQL ledger without a
// database.
type fakeLedger struct {
	mu sync.Mutex

	items     map[string]*repository.Item
	customers map[string]*repository.Customer
	batches   map[string]*repository.Batch
	movements []*repository.Movement
	notes     []*repository.DeliveryNote
	lines     []*repository.DeliveryNoteLine

	// injectConflicts fails that many UpdateBatchQuantity calls with a
	// concurrency conflict before letting updates through
	injectConflicts int
	// failUpdateOf fails UpdateBatchQuantity for a specific batch
	failUpdateOf map[string]error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		items:        make(map[string]*repository.Item),
		customers:    make(map[string]*repository.Customer),
		batches:      make(map[string]*repository.Batch),
		failUpdateOf: make(map[string]error),
	}
}

func (l *fakeLedger) addItem(item *repository.Item) {
	l.items[item.ID] = item
}

func (l *fakeLedger) addCustomer(c *repository.Customer) {
	l.customers[c.ID] = c
}

func (l *fakeLedger) addBatch(b *repository.Batch) {
	if b.Version == 0 {
		b.Version = 1
	}
	l.batches[b.ID] = b
}

func (l *fakeLedger) batch(id string) *repository.Batch {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.batches[id]
}

func (l *fakeLedger) movementCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.movements)
}

func (l *fakeLedger) batchCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.batches)
}

func (l *fakeLedger) InTx(ctx context.Context, fn func(tx repository.LedgerTx) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapBatches := make(map[string]*repository.Batch, len(l.batches))
	for id, b := range l.batches {
		cp := *b
		snapBatches[id] = &cp
	}
	snapMovements := append([]*repository.Movement(nil), l.movements...)
	snapNotes := append([]*repository.DeliveryNote(nil), l.notes...)
	snapLines := append([]*repository.DeliveryNoteLine(nil), l.lines...)

	if err := fn(&fakeTx{l: l}); err != nil {
		l.batches = snapBatches
		l.movements = snapMovements
		l.notes = snapNotes
		l.lines = snapLines
		return err
	}
	return nil
}

type fakeTx struct {
	l *fakeLedger
}

func (t *fakeTx) ItemByID(ctx context.Context, id string) (*repository.Item, error) {
	item, ok := t.l.items[id]
	if !ok {
		return nil, errors.NotFound("item")
	}
	cp := *item
	return &cp, nil
}

func (t *fakeTx) CustomerByID(ctx context.Context, id string) (*repository.Customer, error) {
	c, ok := t.l.customers[id]
	if !ok {
		return nil, errors.NotFound("customer")
	}
	cp := *c
	return &cp, nil
}

func (t *fakeTx) BatchForUpdate(ctx context.Context, id string) (*repository.Batch, error) {
	b, ok := t.l.batches[id]
	if !ok {
		return nil, errors.NotFound("batch")
	}
	cp := *b
	return &cp, nil
}

func (t *fakeTx) BatchesForUpdate(ctx context.Context, ids []string) ([]*repository.Batch, error) {
	var out []*repository.Batch
	for _, id := range ids {
		if b, ok := t.l.batches[id]; ok {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *fakeTx) AvailableBatchesForUpdate(ctx context.Context, itemID string) ([]*repository.Batch, error) {
	var out []*repository.Batch
	for _, b := range t.l.batches {
		if b.ItemID != itemID || b.Status != repository.BatchStatusActive || b.Quantity.Sign() <= 0 {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.ExpirationDate.Equal(b.ExpirationDate) {
			return a.ExpirationDate.Before(b.ExpirationDate)
		}
		if !a.ReceiptDate.Equal(b.ReceiptDate) {
			return a.ReceiptDate.Before(b.ReceiptDate)
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (t *fakeTx) UpdateBatchQuantity(ctx context.Context, id string, version int, quantity decimal.Decimal, status string) error {
	if t.l.injectConflicts > 0 {
		t.l.injectConflicts--
		return errors.ConcurrencyConflict()
	}
	if err := t.l.failUpdateOf[id]; err != nil {
		return err
	}

	b, ok := t.l.batches[id]
	if !ok {
		return errors.NotFound("batch")
	}
	if b.Version != version {
		return errors.ConcurrencyConflict()
	}

	b.Quantity = quantity
	b.Status = status
	b.Version++
	return nil
}

func (t *fakeTx) InsertBatch(ctx context.Context, batch *repository.Batch) error {
	if batch.ID == "" {
		batch.ID = uuid.New().String()
	}
	if batch.Status == "" {
		batch.Status = repository.BatchStatusActive
	}
	for _, existing := range t.l.batches {
		if existing.BatchNumber == batch.BatchNumber {
			return errors.DuplicateBatchNumber(batch.BatchNumber)
		}
	}
	batch.Version = 1
	batch.CreatedAt = time.Now()

	cp := *batch
	t.l.batches[batch.ID] = &cp
	return nil
}

func (t *fakeTx) InsertMovement(ctx context.Context, m *repository.Movement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	m.CreatedAt = time.Now()

	cp := *m
	t.l.movements = append(t.l.movements, &cp)
	return nil
}

func (t *fakeTx) InsertDeliveryNote(ctx context.Context, note *repository.DeliveryNote) error {
	if note.ID == "" {
		note.ID = uuid.New().String()
	}
	for _, existing := range t.l.notes {
		if existing.NoteNumber == note.NoteNumber {
			return errors.Conflict("delivery note number " + note.NoteNumber + " already exists")
		}
	}
	note.CreatedAt = time.Now()
	t.l.notes = append(t.l.notes, note)
	return nil
}

func (t *fakeTx) InsertDeliveryNoteLine(ctx context.Context, line *repository.DeliveryNoteLine) error {
	if line.ID == "" {
		line.ID = uuid.New().String()
	}
	line.CreatedAt = time.Now()

	cp := *line
	t.l.lines = append(t.l.lines, &cp)
	return nil
}

func (t *fakeTx) BatchNumberExists(ctx context.Context, batchNumber string) (bool, error) {
	for _, b := range t.l.batches {
		if b.BatchNumber == batchNumber {
			return true, nil
		}
	}
	return false, nil
}

func (t *fakeTx) LastBatchNumber(ctx context.Context, prefix string) (string, error) {
	last := ""
	for _, b := range t.l.batches {
		if strings.HasPrefix(b.BatchNumber, prefix) && numberAfter(b.BatchNumber, last) {
			last = b.BatchNumber
		}
	}
	return last, nil
}

func (t *fakeTx) LastReceiptNumber(ctx context.Context, prefix string) (string, error) {
	last := ""
	for _, b := range t.l.batches {
		if b.ReceiptNumber == nil {
			continue
		}
		if strings.HasPrefix(*b.ReceiptNumber, prefix) && numberAfter(*b.ReceiptNumber, last) {
			last = *b.ReceiptNumber
		}
	}
	return last, nil
}

func (t *fakeTx) LastDeliveryNoteNumber(ctx context.Context, prefix string) (string, error) {
	last := ""
	for _, n := range t.l.notes {
		if strings.HasPrefix(n.NoteNumber, prefix) && numberAfter(n.NoteNumber, last) {
			last = n.NoteNumber
		}
	}
	return last, nil
}

// numberAfter mirrors the SQL ledger's length-before-value ordering for
// zero-padded document numbers.
func numberAfter(candidate, current string) bool {
	if len(candidate) != len(current) {
		return len(candidate) > len(current)
	}
	return candidate > current
}

func testLogger() *logger.Logger {
	return logger.New("test", "test")
}

func testNumbering() config.NumberingConfig {
	return config.NumberingConfig{
		BatchPrefix:        "GR",
		ReceiptNotePrefix:  "GRN",
		DeliveryNotePrefix: "DN",
	}
}
