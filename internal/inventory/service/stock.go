package service

import (
	"context"
	"time"

	"github.com/linoprint/inkstock-backend/internal/inventory/events"
	"github.com/linoprint/inkstock-backend/internal/inventory/repository"
	"github.com/linoprint/inkstock-backend/pkg/actor"
	"github.com/linoprint/inkstock-backend/pkg/clock"
	"github.com/linoprint/inkstock-backend/pkg/errors"
	"github.com/linoprint/inkstock-backend/pkg/logger"
	"github.com/linoprint/inkstock-backend/pkg/messaging"
	"github.com/shopspring/decimal"
)

// StockService handles batch-level corrections and stock reporting
type StockService struct {
	ledger       repository.Ledger
	itemRepo     *repository.ItemRepository
	batchRepo    *repository.BatchRepository
	movementRepo *repository.MovementRepository
	alertRepo    *repository.AlertRepository
	publisher    *events.InventoryEventPublisher
	clock        clock.Clock
	logger       *logger.Logger
}

// NewStockService creates a new stock service
func NewStockService(
	ledger repository.Ledger,
	itemRepo *repository.ItemRepository,
	batchRepo *repository.BatchRepository,
	movementRepo *repository.MovementRepository,
	alertRepo *repository.AlertRepository,
	publisher *events.InventoryEventPublisher,
	clk clock.Clock,
	log *logger.Logger,
) *StockService {
	return &StockService{
		ledger:       ledger,
		itemRepo:     itemRepo,
		batchRepo:    batchRepo,
		movementRepo: movementRepo,
		alertRepo:    alertRepo,
		publisher:    publisher,
		clock:        clk,
		logger:       log,
	}
}

// AdjustRequest corrects a batch quantity after a physical count
type AdjustRequest struct {
	BatchID     string          `json:"batch_id" validate:"required,uuid"`
	NewQuantity decimal.Decimal `json:"new_quantity"`
	Reason      string          `json:"reason" validate:"required"`
}

// AdjustQuantity sets a batch to a counted quantity. The new quantity
// must stay within [0, quantity received]: counts cannot exceed what
// was originally booked in. Adjusting to zero depletes the batch.
// Depleted and scrapped are terminal: a count can still correct the
// recorded quantity of a depleted batch, but never brings it back to
// active.
func (s *StockService) AdjustQuantity(ctx context.Context, req AdjustRequest) (*repository.Batch, error) {
	if req.Reason == "" {
		return nil, errors.Validation(map[string]string{
			"reason": "this field is required",
		})
	}
	if req.NewQuantity.Sign() < 0 {
		return nil, errors.Validation(map[string]string{
			"new_quantity": "must not be negative",
		})
	}

	performedBy := actor.IDFromContext(ctx)

	var adjusted *repository.Batch
	var oldQty decimal.Decimal
	var oldStatus string
	err := s.ledger.InTx(ctx, func(tx repository.LedgerTx) error {
		batch, err := tx.BatchForUpdate(ctx, req.BatchID)
		if err != nil {
			return err
		}
		if batch.Status == repository.BatchStatusScrapped {
			return errors.BatchNotActive(batch.BatchNumber, batch.Status)
		}
		if req.NewQuantity.GreaterThan(batch.QuantityReceived) {
			return errors.Validation(map[string]string{
				"new_quantity": "must not exceed the quantity received",
			})
		}

		oldQty = batch.Quantity
		oldStatus = batch.Status
		status := batch.Status
		if req.NewQuantity.IsZero() {
			status = repository.BatchStatusDepleted
		}

		if err := tx.UpdateBatchQuantity(ctx, batch.ID, batch.Version, req.NewQuantity, status); err != nil {
			return err
		}

		reason := req.Reason
		movement := &repository.Movement{
			ItemID:         batch.ItemID,
			BatchID:        batch.ID,
			MovementType:   repository.MovementTypeAdjustment,
			Quantity:       req.NewQuantity.Sub(batch.Quantity),
			QuantityBefore: batch.Quantity,
			QuantityAfter:  req.NewQuantity,
			Reason:         &reason,
			PerformedBy:    performedBy,
		}
		if err := tx.InsertMovement(ctx, movement); err != nil {
			return err
		}

		snapshot := *batch
		snapshot.Quantity = req.NewQuantity
		snapshot.Status = status
		snapshot.Version = batch.Version + 1
		adjusted = &snapshot
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.PublishStockAdjusted(ctx, messaging.StockAdjustedEvent{
		BatchID:     adjusted.ID,
		BatchNumber: adjusted.BatchNumber,
		ItemID:      adjusted.ItemID,
		OldQuantity: oldQty.String(),
		NewQuantity: adjusted.Quantity.String(),
		Reason:      req.Reason,
		AdjustedBy:  performedBy,
	})
	if adjusted.Status == repository.BatchStatusDepleted && oldStatus != repository.BatchStatusDepleted {
		s.publisher.PublishBatchDepleted(ctx, adjusted)
	}

	s.logger.Info().
		Str("batch_id", adjusted.ID).
		Str("old_quantity", oldQty.String()).
		Str("new_quantity", adjusted.Quantity.String()).
		Str("performed_by", performedBy).
		Msg("batch quantity adjusted")

	return adjusted, nil
}

// ScrapRequest writes off the remaining quantity of a batch
type ScrapRequest struct {
	BatchID string `json:"batch_id" validate:"required,uuid"`
	Reason  string `json:"reason" validate:"required"`
}

// ScrapBatch writes off whatever remains in a batch, typically after it
// expired or failed quality control. Scrapping is manual and terminal:
// a scrapped batch cannot be adjusted back.
func (s *StockService) ScrapBatch(ctx context.Context, req ScrapRequest) (*repository.Batch, error) {
	if req.Reason == "" {
		return nil, errors.Validation(map[string]string{
			"reason": "this field is required",
		})
	}

	performedBy := actor.IDFromContext(ctx)

	var scrapped *repository.Batch
	var writtenOff decimal.Decimal
	err := s.ledger.InTx(ctx, func(tx repository.LedgerTx) error {
		batch, err := tx.BatchForUpdate(ctx, req.BatchID)
		if err != nil {
			return err
		}
		if batch.Status == repository.BatchStatusScrapped {
			return errors.BatchNotActive(batch.BatchNumber, batch.Status)
		}

		writtenOff = batch.Quantity
		if err := tx.UpdateBatchQuantity(ctx, batch.ID, batch.Version, decimal.Zero, repository.BatchStatusScrapped); err != nil {
			return err
		}

		reason := req.Reason
		movement := &repository.Movement{
			ItemID:         batch.ItemID,
			BatchID:        batch.ID,
			MovementType:   repository.MovementTypeScrap,
			Quantity:       batch.Quantity.Neg(),
			QuantityBefore: batch.Quantity,
			QuantityAfter:  decimal.Zero,
			Reason:         &reason,
			PerformedBy:    performedBy,
		}
		if err := tx.InsertMovement(ctx, movement); err != nil {
			return err
		}

		snapshot := *batch
		snapshot.Quantity = decimal.Zero
		snapshot.Status = repository.BatchStatusScrapped
		snapshot.Version = batch.Version + 1
		scrapped = &snapshot
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.PublishBatchScrapped(ctx, scrapped, writtenOff.String(), req.Reason, performedBy)

	s.logger.Info().
		Str("batch_id", scrapped.ID).
		Str("quantity_scrapped", writtenOff.String()).
		Str("performed_by", performedBy).
		Msg("batch scrapped")

	return scrapped, nil
}

// ItemStockSummary aggregates an item's batch-level stock position
type ItemStockSummary struct {
	*repository.Item
	Batches       []*repository.Batch `json:"batches"`
	TotalQuantity decimal.Decimal     `json:"total_quantity"`
	ExpiringIn30  decimal.Decimal     `json:"expiring_in_30"`
	ExpiringIn60  decimal.Decimal     `json:"expiring_in_60"`
	ExpiringIn90  decimal.Decimal     `json:"expiring_in_90"`
	ExpiredOnHand decimal.Decimal     `json:"expired_on_hand"`
	NearestExpiry *time.Time          `json:"nearest_expiry,omitempty"`
	BelowReorder  bool                `json:"below_reorder"`
}

// GetItemStock builds the stock summary for one item
func (s *StockService) GetItemStock(ctx context.Context, itemID string) (*ItemStockSummary, error) {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	batches, err := s.batchRepo.ListByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	return s.summarize(item, batches), nil
}

// ListItemStock builds stock summaries for all active items
func (s *StockService) ListItemStock(ctx context.Context) ([]*ItemStockSummary, error) {
	items, err := s.itemRepo.List(ctx, false)
	if err != nil {
		return nil, err
	}

	summaries := make([]*ItemStockSummary, len(items))
	for i, item := range items {
		batches, err := s.batchRepo.ListByItem(ctx, item.ID)
		if err != nil {
			return nil, err
		}
		summaries[i] = s.summarize(item, batches)
	}
	return summaries, nil
}

func (s *StockService) summarize(item *repository.Item, batches []*repository.Batch) *ItemStockSummary {
	now := s.clock.Now()
	summary := &ItemStockSummary{
		Item:          item,
		Batches:       batches,
		TotalQuantity: decimal.Zero,
		ExpiringIn30:  decimal.Zero,
		ExpiringIn60:  decimal.Zero,
		ExpiringIn90:  decimal.Zero,
		ExpiredOnHand: decimal.Zero,
	}

	for _, b := range batches {
		if b.Status != repository.BatchStatusActive || b.Quantity.Sign() <= 0 {
			continue
		}
		if expired(b, now) {
			summary.ExpiredOnHand = summary.ExpiredOnHand.Add(b.Quantity)
			continue
		}

		summary.TotalQuantity = summary.TotalQuantity.Add(b.Quantity)

		daysLeft := clock.DaysUntil(now, b.ExpirationDate)
		if daysLeft <= 30 {
			summary.ExpiringIn30 = summary.ExpiringIn30.Add(b.Quantity)
		}
		if daysLeft <= 60 {
			summary.ExpiringIn60 = summary.ExpiringIn60.Add(b.Quantity)
		}
		if daysLeft <= 90 {
			summary.ExpiringIn90 = summary.ExpiringIn90.Add(b.Quantity)
		}

		if summary.NearestExpiry == nil || b.ExpirationDate.Before(*summary.NearestExpiry) {
			exp := b.ExpirationDate
			summary.NearestExpiry = &exp
		}
	}

	summary.BelowReorder = summary.TotalQuantity.LessThan(item.ReorderPoint)
	return summary
}

// Movements lists movement history matching the filter
func (s *StockService) Movements(ctx context.Context, filter repository.MovementFilter) ([]*repository.Movement, error) {
	return s.movementRepo.List(ctx, filter)
}

// DashboardStats is a snapshot of inventory health for the overview page
type DashboardStats struct {
	TotalItems    int             `json:"total_items"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	LowStockCount int             `json:"low_stock_count"`
	ExpiringCount int             `json:"expiring_count"`
	ExpiredCount  int             `json:"expired_count"`
	UnreadAlerts  int             `json:"unread_alerts"`
}

// GetDashboardStats aggregates inventory health across all items
func (s *StockService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	summaries, err := s.ListItemStock(ctx)
	if err != nil {
		return nil, err
	}

	unread, err := s.alertRepo.UnreadCount(ctx)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		TotalItems:    len(summaries),
		TotalQuantity: decimal.Zero,
		UnreadAlerts:  unread,
	}
	for _, sum := range summaries {
		stats.TotalQuantity = stats.TotalQuantity.Add(sum.TotalQuantity)
		if sum.BelowReorder {
			stats.LowStockCount++
		}
		if sum.ExpiringIn90.Sign() > 0 {
			stats.ExpiringCount++
		}
		if sum.ExpiredOnHand.Sign() > 0 {
			stats.ExpiredCount++
		}
	}
	return stats, nil
}
