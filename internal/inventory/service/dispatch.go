package service

import (
	"context"
	"math/rand"
	"time"

	"github.com/linoprint/inkstock-backend/internal/inventory/events"
	"github.com/linoprint/inkstock-backend/internal/inventory/repository"
	"github.com/linoprint/inkstock-backend/pkg/actor"
	"github.com/linoprint/inkstock-backend/pkg/clock"
	"github.com/linoprint/inkstock-backend/pkg/config"
	"github.com/linoprint/inkstock-backend/pkg/database"
	"github.com/linoprint/inkstock-backend/pkg/errors"
	"github.com/linoprint/inkstock-backend/pkg/logger"
	"github.com/linoprint/inkstock-backend/pkg/messaging"
	"github.com/shopspring/decimal"
)

// Dispatch retry policy. Conflicting transactions are retried with a
// short jittered backoff before the conflict is surfaced to the caller.
const (
	dispatchMaxAttempts  = 3
	dispatchRetryBackoff = 25 * time.Millisecond
)

// DispatchService coordinates outbound stock movements. Each dispatch
// runs in a single transaction: batch rows are locked in a stable
// order, quantities are updated guarded by the batch version, and a
// failure at any point rolls the whole dispatch back.
type DispatchService struct {
	ledger    repository.Ledger
	batchRepo *repository.BatchRepository
	publisher *events.InventoryEventPublisher
	clock     clock.Clock
	numbering config.NumberingConfig
	logger    *logger.Logger
}

// NewDispatchService creates a new dispatch service
func NewDispatchService(
	ledger repository.Ledger,
	batchRepo *repository.BatchRepository,
	publisher *events.InventoryEventPublisher,
	clk clock.Clock,
	numbering config.NumberingConfig,
	log *logger.Logger,
) *DispatchService {
	return &DispatchService{
		ledger:    ledger,
		batchRepo: batchRepo,
		publisher: publisher,
		clock:     clk,
		numbering: numbering,
		logger:    log,
	}
}

// DispatchRequest describes an outbound stock movement. When Picks is
// empty the quantity is allocated first-expired-first-out; a manual
// pick list overrides the allocation batch by batch.
type DispatchRequest struct {
	ItemID       string          `json:"item_id" validate:"required,uuid"`
	Quantity     decimal.Decimal `json:"quantity"`
	Picks        []PickRequest   `json:"picks,omitempty" validate:"omitempty,dive"`
	CustomerID   *string         `json:"customer_id,omitempty" validate:"omitempty,uuid"`
	Reference    *string         `json:"reference,omitempty"`
	Notes        *string         `json:"notes,omitempty"`
	AllowPartial bool            `json:"allow_partial"`
	AllowExpired bool            `json:"allow_expired"`
}

// DispatchResult is the outcome of a committed dispatch
type DispatchResult struct {
	ItemID        string                   `json:"item_id"`
	TotalQuantity decimal.Decimal          `json:"total_quantity"`
	Picks         []Pick                   `json:"picks"`
	Shortfall     decimal.Decimal          `json:"shortfall"`
	DeliveryNote  *repository.DeliveryNote `json:"delivery_note,omitempty"`
	Warnings      []PickIssue              `json:"warnings,omitempty"`
}

// Suggest builds a read-only picking plan for the requested quantity.
// The plan is advisory: stock can move between the suggestion and the
// dispatch, which re-validates everything under lock.
func (s *DispatchService) Suggest(ctx context.Context, itemID string, quantity decimal.Decimal) (*AllocationPlan, error) {
	if quantity.Sign() <= 0 {
		return nil, errors.Validation(map[string]string{
			"quantity": "must be greater than zero",
		})
	}

	batches, err := s.batchRepo.ListAvailableByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	plan := Allocate(itemID, batches, quantity, s.clock.Now())
	return &plan, nil
}

// Dispatch commits an outbound stock movement. Retries transparently on
// lock conflicts with concurrent dispatches.
func (s *DispatchService) Dispatch(ctx context.Context, req DispatchRequest) (*DispatchResult, error) {
	if len(req.Picks) == 0 && req.Quantity.Sign() <= 0 {
		return nil, errors.Validation(map[string]string{
			"quantity": "must be greater than zero",
		})
	}
	for _, p := range req.Picks {
		if p.Quantity.Sign() <= 0 {
			return nil, errors.Validation(map[string]string{
				"picks": "every pick quantity must be greater than zero",
			})
		}
	}

	var result *DispatchResult
	var err error
	for attempt := 1; attempt <= dispatchMaxAttempts; attempt++ {
		result, err = s.dispatchOnce(ctx, req)
		if err == nil {
			break
		}
		if !isRetryableDispatchError(err) || attempt == dispatchMaxAttempts {
			return nil, err
		}

		backoff := time.Duration(attempt) * dispatchRetryBackoff
		backoff += time.Duration(rand.Int63n(int64(dispatchRetryBackoff)))
		s.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Str("item_id", req.ItemID).
			Msg("dispatch conflict, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
	if err != nil {
		return nil, err
	}

	s.publishDispatched(ctx, req, result)

	s.logger.Info().
		Str("item_id", result.ItemID).
		Str("quantity", result.TotalQuantity.String()).
		Int("picks", len(result.Picks)).
		Msg("stock dispatched")

	return result, nil
}

func (s *DispatchService) dispatchOnce(ctx context.Context, req DispatchRequest) (*DispatchResult, error) {
	now := s.clock.Now()
	performedBy := actor.IDFromContext(ctx)

	var result *DispatchResult
	var depleted []*repository.Batch

	err := s.ledger.InTx(ctx, func(tx repository.LedgerTx) error {
		depleted = depleted[:0]

		item, err := tx.ItemByID(ctx, req.ItemID)
		if err != nil {
			return err
		}

		var picks []Pick
		var warnings []PickIssue
		shortfall := decimal.Zero

		if len(req.Picks) > 0 {
			picks, warnings, err = s.resolveManualPicks(ctx, tx, item, req, now)
			if err != nil {
				return err
			}
		} else {
			available, err := tx.AvailableBatchesForUpdate(ctx, req.ItemID)
			if err != nil {
				return err
			}

			plan := Allocate(req.ItemID, available, req.Quantity, now)
			if !plan.Fulfilled() {
				if !req.AllowPartial {
					return errors.InsufficientQuantity(item.SKU, plan.Allocated.String(), req.Quantity.String())
				}
				if plan.Allocated.IsZero() {
					return errors.InsufficientQuantity(item.SKU, "0", req.Quantity.String())
				}
			}
			picks = plan.Picks
			shortfall = plan.Shortfall
		}

		reference := s.dispatchReference(req)
		total := decimal.Zero

		var note *repository.DeliveryNote
		if req.CustomerID != nil {
			note, err = s.createDeliveryNote(ctx, tx, req, now, performedBy)
			if err != nil {
				return err
			}
			reference = note.NoteNumber
		}

		for _, pick := range picks {
			batch, err := tx.BatchForUpdate(ctx, pick.BatchID)
			if err != nil {
				return err
			}

			newQty := batch.Quantity.Sub(pick.Quantity)
			if newQty.Sign() < 0 {
				return errors.InsufficientQuantity(batch.BatchNumber, batch.Quantity.String(), pick.Quantity.String())
			}

			status := repository.BatchStatusActive
			if newQty.IsZero() {
				status = repository.BatchStatusDepleted
			}

			if err := tx.UpdateBatchQuantity(ctx, batch.ID, batch.Version, newQty, status); err != nil {
				return err
			}

			movement := &repository.Movement{
				ItemID:         batch.ItemID,
				BatchID:        batch.ID,
				MovementType:   repository.MovementTypeDispatch,
				Quantity:       pick.Quantity,
				QuantityBefore: batch.Quantity,
				QuantityAfter:  newQty,
				PerformedBy:    performedBy,
			}
			if reference != "" {
				ref := reference
				movement.Reference = &ref
			}
			if err := tx.InsertMovement(ctx, movement); err != nil {
				return err
			}

			if note != nil {
				line := &repository.DeliveryNoteLine{
					DeliveryNoteID: note.ID,
					ItemID:         batch.ItemID,
					BatchID:        batch.ID,
					BatchNumber:    batch.BatchNumber,
					Quantity:       pick.Quantity,
				}
				if err := tx.InsertDeliveryNoteLine(ctx, line); err != nil {
					return err
				}
				note.Lines = append(note.Lines, line)
			}

			if status == repository.BatchStatusDepleted {
				snapshot := *batch
				snapshot.Quantity = newQty
				snapshot.Status = status
				depleted = append(depleted, &snapshot)
			}

			total = total.Add(pick.Quantity)
		}

		result = &DispatchResult{
			ItemID:        req.ItemID,
			TotalQuantity: total,
			Picks:         picks,
			Shortfall:     shortfall,
			DeliveryNote:  note,
			Warnings:      warnings,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, b := range depleted {
		s.publisher.PublishBatchDepleted(ctx, b)
	}

	return result, nil
}

// resolveManualPicks validates an explicit pick list under lock.
// Batches are locked in ID order regardless of the order picks were
// submitted in, so concurrent manual dispatches cannot deadlock.
func (s *DispatchService) resolveManualPicks(
	ctx context.Context,
	tx repository.LedgerTx,
	item *repository.Item,
	req DispatchRequest,
	now time.Time,
) ([]Pick, []PickIssue, error) {
	ids := make([]string, 0, len(req.Picks))
	seen := make(map[string]bool, len(req.Picks))
	for _, p := range req.Picks {
		if seen[p.BatchID] {
			return nil, nil, errors.BadRequest("pick list references batch " + p.BatchID + " more than once")
		}
		seen[p.BatchID] = true
		ids = append(ids, p.BatchID)
	}

	locked, err := tx.BatchesForUpdate(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[string]*repository.Batch, len(locked))
	for _, b := range locked {
		byID[b.ID] = b
	}

	picks := make([]Pick, 0, len(req.Picks))
	for _, p := range req.Picks {
		batch, ok := byID[p.BatchID]
		if !ok {
			return nil, nil, errors.NotFound("batch")
		}
		if batch.ItemID != item.ID {
			return nil, nil, errors.BadRequest("batch " + batch.BatchNumber + " belongs to a different item")
		}
		if batch.Status != repository.BatchStatusActive {
			return nil, nil, errors.BatchNotActive(batch.BatchNumber, batch.Status)
		}
		if expired(batch, now) && !req.AllowExpired {
			return nil, nil, errors.BatchExpired(batch.BatchNumber, batch.ExpirationDate.Format("2006-01-02"))
		}
		if batch.Quantity.LessThan(p.Quantity) {
			return nil, nil, errors.InsufficientQuantity(batch.BatchNumber, batch.Quantity.String(), p.Quantity.String())
		}

		daysLeft := clock.DaysUntil(now, batch.ExpirationDate)
		picks = append(picks, Pick{
			BatchID:             batch.ID,
			BatchNumber:         batch.BatchNumber,
			Quantity:            p.Quantity,
			ExpirationDate:      batch.ExpirationDate,
			DaysUntilExpiration: daysLeft,
			WarningLevel:        pickWarningLevel(daysLeft),
		})
	}

	// FEFO deviations are reported, not rejected
	available, err := s.batchRepo.ListAvailableByItem(ctx, item.ID)
	if err != nil {
		return nil, nil, err
	}
	warnings := CheckFEFOOrder(req.Picks, available)

	return picks, warnings, nil
}

func (s *DispatchService) createDeliveryNote(
	ctx context.Context,
	tx repository.LedgerTx,
	req DispatchRequest,
	now time.Time,
	performedBy string,
) (*repository.DeliveryNote, error) {
	if _, err := tx.CustomerByID(ctx, *req.CustomerID); err != nil {
		return nil, err
	}

	prefix := dayPrefix(s.numbering.DeliveryNotePrefix, now)
	last, err := tx.LastDeliveryNoteNumber(ctx, prefix)
	if err != nil {
		return nil, err
	}

	note := &repository.DeliveryNote{
		NoteNumber: nextNumber(last, prefix, deliveryNoteSeqWidth),
		CustomerID: req.CustomerID,
		Status:     repository.DeliveryNoteStatusIssued,
		IssueDate:  clock.StartOfDay(now),
		Notes:      req.Notes,
		IssuedBy:   performedBy,
	}
	if err := tx.InsertDeliveryNote(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *DispatchService) dispatchReference(req DispatchRequest) string {
	if req.Reference != nil {
		return *req.Reference
	}
	return ""
}

func (s *DispatchService) publishDispatched(ctx context.Context, req DispatchRequest, result *DispatchResult) {
	eventPicks := make([]messaging.DispatchedPick, len(result.Picks))
	for i, p := range result.Picks {
		eventPicks[i] = messaging.DispatchedPick{
			BatchID:     p.BatchID,
			BatchNumber: p.BatchNumber,
			Quantity:    p.Quantity.String(),
		}
	}

	event := messaging.StockDispatchedEvent{
		ItemID:        result.ItemID,
		TotalQuantity: result.TotalQuantity.String(),
		Picks:         eventPicks,
		DispatchedBy:  actor.IDFromContext(ctx),
	}
	if req.CustomerID != nil {
		event.CustomerID = *req.CustomerID
	}
	if result.DeliveryNote != nil {
		event.DeliveryNoteNumber = result.DeliveryNote.NoteNumber
	}

	s.publisher.PublishStockDispatched(ctx, event)
}

// isRetryableDispatchError reports whether the dispatch failed on a
// transient conflict with a concurrent transaction.
func isRetryableDispatchError(err error) bool {
	if errors.Is(err, errors.ErrConcurrencyConflict) {
		return true
	}
	return database.IsRetryable(err)
}
