package events

import (
	"context"

	"github.com/linoprint/inkstock-backend/internal/inventory/repository"
	"github.com/linoprint/inkstock-backend/pkg/logger"
	"github.com/linoprint/inkstock-backend/pkg/messaging"
)

// InventoryEventPublisher publishes inventory-related events.
// A nil publisher is valid and drops events, so the service can run
// without RabbitMQ in development.
type InventoryEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewInventoryEventPublisher creates a new inventory event publisher
func NewInventoryEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*InventoryEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeInventoryEvents, "inkstock-service", log)
	if err != nil {
		return nil, err
	}

	return &InventoryEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishBatchReceived publishes a batch received event
func (p *InventoryEventPublisher) PublishBatchReceived(ctx context.Context, batch *repository.Batch, itemName, receivedBy string) {
	if p == nil {
		return
	}

	receiptNumber := ""
	if batch.ReceiptNumber != nil {
		receiptNumber = *batch.ReceiptNumber
	}

	data := messaging.BatchReceivedEvent{
		BatchID:        batch.ID,
		BatchNumber:    batch.BatchNumber,
		ItemID:         batch.ItemID,
		ItemName:       itemName,
		Quantity:       batch.Quantity.String(),
		ReceiptDate:    batch.ReceiptDate,
		ExpirationDate: batch.ExpirationDate,
		ReceiptNumber:  receiptNumber,
		ReceivedBy:     receivedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventBatchReceived, data); err != nil {
		p.logger.Error().Err(err).Str("batch_id", batch.ID).Msg("failed to publish batch received event")
	}
}

// PublishStockDispatched publishes a stock dispatched event
func (p *InventoryEventPublisher) PublishStockDispatched(ctx context.Context, data messaging.StockDispatchedEvent) {
	if p == nil {
		return
	}

	if err := p.publisher.Publish(ctx, messaging.EventStockDispatched, data); err != nil {
		p.logger.Error().Err(err).Str("item_id", data.ItemID).Msg("failed to publish stock dispatched event")
	}
}

// PublishBatchDepleted publishes a batch depleted event
func (p *InventoryEventPublisher) PublishBatchDepleted(ctx context.Context, batch *repository.Batch) {
	if p == nil {
		return
	}

	data := messaging.BatchDepletedEvent{
		BatchID:     batch.ID,
		BatchNumber: batch.BatchNumber,
		ItemID:      batch.ItemID,
	}

	if err := p.publisher.Publish(ctx, messaging.EventBatchDepleted, data); err != nil {
		p.logger.Error().Err(err).Str("batch_id", batch.ID).Msg("failed to publish batch depleted event")
	}
}

// PublishBatchScrapped publishes a batch scrapped event
func (p *InventoryEventPublisher) PublishBatchScrapped(ctx context.Context, batch *repository.Batch, quantityScrapped, reason, scrappedBy string) {
	if p == nil {
		return
	}

	data := messaging.BatchScrappedEvent{
		BatchID:          batch.ID,
		BatchNumber:      batch.BatchNumber,
		ItemID:           batch.ItemID,
		QuantityScrapped: quantityScrapped,
		Reason:           reason,
		ScrappedBy:       scrappedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventBatchScrapped, data); err != nil {
		p.logger.Error().Err(err).Str("batch_id", batch.ID).Msg("failed to publish batch scrapped event")
	}
}

// PublishStockAdjusted publishes a stock adjusted event
func (p *InventoryEventPublisher) PublishStockAdjusted(ctx context.Context, data messaging.StockAdjustedEvent) {
	if p == nil {
		return
	}

	if err := p.publisher.Publish(ctx, messaging.EventStockAdjusted, data); err != nil {
		p.logger.Error().Err(err).Str("batch_id", data.BatchID).Msg("failed to publish stock adjusted event")
	}
}

// PublishAlertGenerated publishes an alert generated event
func (p *InventoryEventPublisher) PublishAlertGenerated(ctx context.Context, alert *repository.Alert) {
	if p == nil {
		return
	}

	itemID := ""
	if alert.ItemID != nil {
		itemID = *alert.ItemID
	}
	batchID := ""
	if alert.BatchID != nil {
		batchID = *alert.BatchID
	}

	data := messaging.AlertGeneratedEvent{
		AlertID:   alert.ID,
		AlertType: alert.AlertType,
		Severity:  alert.Severity,
		Message:   alert.Message,
		ItemID:    itemID,
		BatchID:   batchID,
	}

	if err := p.publisher.Publish(ctx, messaging.EventAlertGenerated, data); err != nil {
		p.logger.Error().Err(err).Str("alert_id", alert.ID).Msg("failed to publish alert generated event")
	}
}
