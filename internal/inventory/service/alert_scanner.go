package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/linoprint/inkstock-backend/internal/inventory/events"
	"github.com/linoprint/inkstock-backend/internal/inventory/repository"
	"github.com/linoprint/inkstock-backend/pkg/clock"
	"github.com/linoprint/inkstock-backend/pkg/config"
	"github.com/linoprint/inkstock-backend/pkg/logger"
)

// AlertScanner walks the inventory and raises alerts for batches at
// risk. Scans are idempotent: every alert carries a dedup key and a
// re-scan that finds the same condition creates nothing new.
type AlertScanner struct {
	itemRepo     *repository.ItemRepository
	batchRepo    *repository.BatchRepository
	movementRepo *repository.MovementRepository
	alertRepo    *repository.AlertRepository
	publisher    *events.InventoryEventPublisher
	clock        clock.Clock
	cfg          config.AlertsConfig
	logger       *logger.Logger
}

// NewAlertScanner creates a new alert scanner
func NewAlertScanner(
	itemRepo *repository.ItemRepository,
	batchRepo *repository.BatchRepository,
	movementRepo *repository.MovementRepository,
	alertRepo *repository.AlertRepository,
	publisher *events.InventoryEventPublisher,
	clk clock.Clock,
	cfg config.AlertsConfig,
	log *logger.Logger,
) *AlertScanner {
	return &AlertScanner{
		itemRepo:     itemRepo,
		batchRepo:    batchRepo,
		movementRepo: movementRepo,
		alertRepo:    alertRepo,
		publisher:    publisher,
		clock:        clk,
		cfg:          cfg,
		logger:       log,
	}
}

// ScanAll runs all alert scans. Logs errors but continues scanning.
func (s *AlertScanner) ScanAll(ctx context.Context) error {
	scanners := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"expiration", s.scanExpiration},
		{"low_stock", s.scanLowStock},
		{"dead_stock", s.scanDeadStock},
	}

	var lastErr error
	for _, scanner := range scanners {
		if err := scanner.fn(ctx); err != nil {
			s.logger.Error().Err(err).Str("scanner", scanner.name).Msg("alert scan failed")
			lastErr = err
		}
	}

	return lastErr
}

// scanExpiration raises alerts for batches approaching or past their
// expiration date. A batch gets one alert per crossed threshold: the
// alert band is the tightest configured threshold that still covers the
// remaining days, so a batch at 45 days falls in the 60-day band, not
// the 120-day one. As the batch ages it crosses tighter bands and each
// raises its own alert.
func (s *AlertScanner) scanExpiration(ctx context.Context) error {
	batches, err := s.batchRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("scanExpiration: list active batches: %w", err)
	}

	now := s.clock.Now()
	thresholds := s.cfg.Thresholds()

	for _, batch := range batches {
		item, err := s.itemRepo.GetByID(ctx, batch.ItemID)
		if err != nil {
			s.logger.Error().Err(err).Str("item_id", batch.ItemID).Msg("scanExpiration: failed to load item")
			continue
		}

		daysLeft := clock.DaysUntil(now, batch.ExpirationDate)

		if daysLeft < 0 {
			alert := &repository.Alert{
				AlertType: repository.AlertTypeExpired,
				Severity:  repository.SeverityCritical,
				Message:   fmt.Sprintf("%s batch %s expired %d days ago", item.Name, batch.BatchNumber, -daysLeft),
				ItemID:    &batch.ItemID,
				BatchID:   &batch.ID,
				DedupKey:  repository.ExpiredDedupKey(batch.ID),
			}
			s.raise(ctx, alert)
			continue
		}

		threshold, ok := matchThreshold(thresholds, daysLeft)
		if !ok {
			continue
		}

		alert := &repository.Alert{
			AlertType: repository.AlertTypeExpirationWarning,
			Severity:  thresholdSeverity(thresholds, threshold),
			Message:   fmt.Sprintf("%s batch %s expires in %d days", item.Name, batch.BatchNumber, daysLeft),
			ItemID:    &batch.ItemID,
			BatchID:   &batch.ID,
			DedupKey:  repository.ExpirationDedupKey(batch.ID, threshold),
		}
		s.raise(ctx, alert)
	}

	return nil
}

// scanLowStock raises alerts for items whose usable stock fell below
// the reorder point. Severity escalates to critical below min stock.
func (s *AlertScanner) scanLowStock(ctx context.Context) error {
	items, err := s.itemRepo.List(ctx, false)
	if err != nil {
		return fmt.Errorf("scanLowStock: list items: %w", err)
	}

	now := s.clock.Now()

	for _, item := range items {
		if item.ReorderPoint.Sign() <= 0 {
			continue
		}

		total, err := s.batchRepo.TotalAvailable(ctx, item.ID, clock.StartOfDay(now))
		if err != nil {
			s.logger.Error().Err(err).Str("item_id", item.ID).Msg("scanLowStock: failed to total stock")
			continue
		}

		if total.GreaterThanOrEqual(item.ReorderPoint) {
			continue
		}

		severity := repository.SeverityWarning
		if total.LessThan(item.MinStock) {
			severity = repository.SeverityCritical
		}

		alert := &repository.Alert{
			AlertType: repository.AlertTypeLowStock,
			Severity:  severity,
			Message:   fmt.Sprintf("%s is below reorder point (%s/%s %s)", item.Name, total.String(), item.ReorderPoint.String(), item.Unit),
			ItemID:    &item.ID,
			DedupKey:  repository.LowStockDedupKey(item.ID),
		}
		s.raise(ctx, alert)
	}

	return nil
}

// scanDeadStock raises alerts for items holding stock that has not been
// dispatched within the configured window. Items never dispatched are
// measured from their first receipt instead.
func (s *AlertScanner) scanDeadStock(ctx context.Context) error {
	items, err := s.itemRepo.List(ctx, false)
	if err != nil {
		return fmt.Errorf("scanDeadStock: list items: %w", err)
	}

	now := s.clock.Now()
	cutoff := now.AddDate(0, 0, -s.cfg.DeadStockDays)

	for _, item := range items {
		total, err := s.batchRepo.TotalAvailable(ctx, item.ID, clock.StartOfDay(now))
		if err != nil {
			s.logger.Error().Err(err).Str("item_id", item.ID).Msg("scanDeadStock: failed to total stock")
			continue
		}
		if total.Sign() <= 0 {
			continue
		}

		lastDispatch, err := s.movementRepo.LastDispatchAt(ctx, item.ID)
		if err != nil {
			s.logger.Error().Err(err).Str("item_id", item.ID).Msg("scanDeadStock: failed to get last dispatch")
			continue
		}

		baseline := lastDispatch
		if baseline == nil {
			baseline, err = s.movementRepo.FirstReceiptAt(ctx, item.ID)
			if err != nil || baseline == nil {
				continue
			}
		}

		if baseline.After(cutoff) {
			continue
		}

		alert := &repository.Alert{
			AlertType: repository.AlertTypeDeadStock,
			Severity:  repository.SeverityInfo,
			Message:   fmt.Sprintf("%s has had no dispatches since %s", item.Name, baseline.Format("2006-01-02")),
			ItemID:    &item.ID,
			DedupKey:  repository.DeadStockDedupKey(item.ID),
		}
		s.raise(ctx, alert)
	}

	return nil
}

// raise creates the alert unless it already exists, publishing an
// event only for genuinely new alerts.
func (s *AlertScanner) raise(ctx context.Context, alert *repository.Alert) {
	created, err := s.alertRepo.CreateIfAbsent(ctx, alert)
	if err != nil {
		s.logger.Error().Err(err).Str("dedup_key", alert.DedupKey).Msg("failed to create alert")
		return
	}
	if !created {
		return
	}

	s.publisher.PublishAlertGenerated(ctx, alert)
}

// matchThreshold returns the tightest threshold that covers daysLeft.
// Thresholds are sorted descending; the last one that is still >=
// daysLeft is the band the batch falls in.
func matchThreshold(descending []int, daysLeft int) (int, bool) {
	matched := 0
	found := false
	for _, t := range descending {
		if t >= daysLeft {
			matched = t
			found = true
		}
	}
	return matched, found
}

// thresholdSeverity grades a threshold band: the tightest configured
// band is critical, the widest is informational, anything between is a
// warning.
func thresholdSeverity(descending []int, threshold int) string {
	if len(descending) == 0 {
		return repository.SeverityWarning
	}

	sorted := make([]int, len(descending))
	copy(sorted, descending)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	switch threshold {
	case sorted[len(sorted)-1]:
		return repository.SeverityCritical
	case sorted[0]:
		return repository.SeverityInfo
	default:
		return repository.SeverityWarning
	}
}
