package messaging

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types
const (
	// Receiving events
	EventBatchReceived = "inventory.batch.received"

	// Dispatch events
	EventStockDispatched    = "inventory.stock.dispatched"
	EventDeliveryNoteIssued = "inventory.delivery_note.issued"

	// Batch lifecycle events
	EventBatchDepleted = "inventory.batch.depleted"
	EventBatchScrapped = "inventory.batch.scrapped"
	EventStockAdjusted = "inventory.stock.adjusted"

	// Alert events
	EventAlertGenerated = "inventory.alert.generated"
)

// Exchange names
const (
	ExchangeInventoryEvents = "inventory.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// BatchReceivedEvent is published when a goods receipt creates a new batch
type BatchReceivedEvent struct {
	BatchID        string    `json:"batch_id"`
	BatchNumber    string    `json:"batch_number"`
	ItemID         string    `json:"item_id"`
	ItemName       string    `json:"item_name"`
	Quantity       string    `json:"quantity"`
	ReceiptDate    time.Time `json:"receipt_date"`
	ExpirationDate time.Time `json:"expiration_date"`
	ReceiptNumber  string    `json:"receipt_number"`
	ReceivedBy     string    `json:"received_by"`
}

// StockDispatchedEvent is published when a dispatch commits
type StockDispatchedEvent struct {
	ItemID             string           `json:"item_id"`
	CustomerID         string           `json:"customer_id,omitempty"`
	DeliveryNoteNumber string           `json:"delivery_note_number,omitempty"`
	TotalQuantity      string           `json:"total_quantity"`
	Picks              []DispatchedPick `json:"picks"`
	DispatchedBy       string           `json:"dispatched_by"`
}

// DispatchedPick describes one batch drawn from during a dispatch
type DispatchedPick struct {
	BatchID     string `json:"batch_id"`
	BatchNumber string `json:"batch_number"`
	Quantity    string `json:"quantity"`
}

// BatchDepletedEvent is published when a batch reaches zero quantity
type BatchDepletedEvent struct {
	BatchID     string `json:"batch_id"`
	BatchNumber string `json:"batch_number"`
	ItemID      string `json:"item_id"`
}

// BatchScrappedEvent is published when a batch is written off
type BatchScrappedEvent struct {
	BatchID          string `json:"batch_id"`
	BatchNumber      string `json:"batch_number"`
	ItemID           string `json:"item_id"`
	QuantityScrapped string `json:"quantity_scrapped"`
	Reason           string `json:"reason"`
	ScrappedBy       string `json:"scrapped_by"`
}

// StockAdjustedEvent is published when a batch quantity is corrected manually
type StockAdjustedEvent struct {
	BatchID     string `json:"batch_id"`
	BatchNumber string `json:"batch_number"`
	ItemID      string `json:"item_id"`
	OldQuantity string `json:"old_quantity"`
	NewQuantity string `json:"new_quantity"`
	Reason      string `json:"reason"`
	AdjustedBy  string `json:"adjusted_by"`
}

// AlertGeneratedEvent is published when the risk scanner creates a new alert
type AlertGeneratedEvent struct {
	AlertID   string `json:"alert_id"`
	AlertType string `json:"alert_type"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
	ItemID    string `json:"item_id,omitempty"`
	BatchID   string `json:"batch_id,omitempty"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), time.Now().Nanosecond()%10000)
}
