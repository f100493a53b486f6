package service

import (
	"context"
	"fmt"
	"time"

	"github.com/linoprint/inkstock-backend/internal/inventory/events"
	"github.com/linoprint/inkstock-backend/internal/inventory/repository"
	"github.com/linoprint/inkstock-backend/pkg/actor"
	"github.com/linoprint/inkstock-backend/pkg/clock"
	"github.com/linoprint/inkstock-backend/pkg/config"
	"github.com/linoprint/inkstock-backend/pkg/errors"
	"github.com/linoprint/inkstock-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

// ReceivingService coordinates goods receipts. Every receipt creates a
// new batch; quantities are never merged into existing batches because
// each delivery carries its own expiration date.
type ReceivingService struct {
	ledger    repository.Ledger
	publisher *events.InventoryEventPublisher
	clock     clock.Clock
	numbering config.NumberingConfig
	logger    *logger.Logger
}

// NewReceivingService creates a new receiving service
func NewReceivingService(
	ledger repository.Ledger,
	publisher *events.InventoryEventPublisher,
	clk clock.Clock,
	numbering config.NumberingConfig,
	log *logger.Logger,
) *ReceivingService {
	return &ReceivingService{
		ledger:    ledger,
		publisher: publisher,
		clock:     clk,
		numbering: numbering,
		logger:    log,
	}
}

// ReceiveLine is one item line on a goods receipt. BatchNumber carries
// the supplier's batch number when the delivery has one; left empty, a
// sequential number is generated for the receipt day.
type ReceiveLine struct {
	ItemID         string          `json:"item_id" validate:"required,uuid"`
	Quantity       decimal.Decimal `json:"quantity" validate:"required"`
	ExpirationDate time.Time       `json:"expiration_date" validate:"required"`
	BatchNumber    *string         `json:"batch_number,omitempty"`
	SupplierRef    *string         `json:"supplier_ref,omitempty"`
	Notes          *string         `json:"notes,omitempty"`
}

// ReceiveRequest is a goods receipt of one or more lines
type ReceiveRequest struct {
	Lines       []ReceiveLine `json:"lines" validate:"required,min=1,dive"`
	ReceiptDate *time.Time    `json:"receipt_date,omitempty"`
}

// ReceiveResult is the outcome of a committed goods receipt
type ReceiveResult struct {
	ReceiptNumber string              `json:"receipt_number"`
	Batches       []*repository.Batch `json:"batches"`
}

// Receive books a goods receipt. All lines commit in one transaction:
// if any line is invalid the whole receipt is rejected and no batch is
// created. Batch and receipt numbers are sequential per receipt day.
func (s *ReceivingService) Receive(ctx context.Context, req ReceiveRequest) (*ReceiveResult, error) {
	if len(req.Lines) == 0 {
		return nil, errors.BadRequest("receipt must contain at least one line")
	}

	now := s.clock.Now()
	receiptDate := clock.StartOfDay(now)
	if req.ReceiptDate != nil {
		receiptDate = clock.StartOfDay(*req.ReceiptDate)
	}

	for i, line := range req.Lines {
		if line.Quantity.Sign() <= 0 {
			return nil, errors.Validation(map[string]string{
				fmt.Sprintf("lines[%d].quantity", i): "must be greater than zero",
			})
		}
		if !clock.StartOfDay(line.ExpirationDate).After(receiptDate) {
			return nil, errors.Validation(map[string]string{
				fmt.Sprintf("lines[%d].expiration_date", i): "must be after the receipt date",
			})
		}
		if line.BatchNumber != nil && *line.BatchNumber == "" {
			return nil, errors.Validation(map[string]string{
				fmt.Sprintf("lines[%d].batch_number", i): "must not be empty when given",
			})
		}
	}

	performedBy := actor.IDFromContext(ctx)

	var result *ReceiveResult
	itemNames := make(map[string]string, len(req.Lines))
	err := s.ledger.InTx(ctx, func(tx repository.LedgerTx) error {
		items := make(map[string]*repository.Item, len(req.Lines))
		for _, line := range req.Lines {
			if _, ok := items[line.ItemID]; ok {
				continue
			}
			item, err := tx.ItemByID(ctx, line.ItemID)
			if err != nil {
				return err
			}
			if !item.IsActive {
				return errors.BadRequest("item " + item.SKU + " is inactive")
			}
			items[line.ItemID] = item
			itemNames[item.ID] = item.Name
		}

		grnPrefix := dayPrefix(s.numbering.ReceiptNotePrefix, receiptDate)
		lastGRN, err := tx.LastReceiptNumber(ctx, grnPrefix)
		if err != nil {
			return err
		}
		receiptNumber := nextNumber(lastGRN, grnPrefix, receiptNoteSeqWidth)

		batchPrefix := dayPrefix(s.numbering.BatchPrefix, receiptDate)
		lastBatch, err := tx.LastBatchNumber(ctx, batchPrefix)
		if err != nil {
			return err
		}

		batches := make([]*repository.Batch, 0, len(req.Lines))
		for _, line := range req.Lines {
			var batchNumber string
			if line.BatchNumber != nil {
				batchNumber = *line.BatchNumber
				exists, err := tx.BatchNumberExists(ctx, batchNumber)
				if err != nil {
					return err
				}
				if exists {
					return errors.DuplicateBatchNumber(batchNumber)
				}
			} else {
				batchNumber = nextNumber(lastBatch, batchPrefix, batchSeqWidth)
				lastBatch = batchNumber
			}

			batch := &repository.Batch{
				ItemID:           line.ItemID,
				BatchNumber:      batchNumber,
				Quantity:         line.Quantity,
				QuantityReceived: line.Quantity,
				ReceiptDate:      receiptDate,
				ExpirationDate:   clock.StartOfDay(line.ExpirationDate),
				Status:           repository.BatchStatusActive,
				ReceiptNumber:    &receiptNumber,
				SupplierRef:      line.SupplierRef,
				Notes:            line.Notes,
			}
			if err := tx.InsertBatch(ctx, batch); err != nil {
				return err
			}

			movement := &repository.Movement{
				ItemID:         batch.ItemID,
				BatchID:        batch.ID,
				MovementType:   repository.MovementTypeReceipt,
				Quantity:       line.Quantity,
				QuantityBefore: decimal.Zero,
				QuantityAfter:  line.Quantity,
				Reference:      &receiptNumber,
				PerformedBy:    performedBy,
			}
			if err := tx.InsertMovement(ctx, movement); err != nil {
				return err
			}

			batches = append(batches, batch)
		}

		result = &ReceiveResult{
			ReceiptNumber: receiptNumber,
			Batches:       batches,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, batch := range result.Batches {
		s.publisher.PublishBatchReceived(ctx, batch, itemNames[batch.ItemID], performedBy)
	}

	s.logger.Info().
		Str("receipt_number", result.ReceiptNumber).
		Int("lines", len(result.Batches)).
		Str("performed_by", performedBy).
		Msg("goods receipt booked")

	return result, nil
}
