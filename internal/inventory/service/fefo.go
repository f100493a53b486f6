package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/linoprint/inkstock-backend/internal/inventory/repository"
	"github.com/linoprint/inkstock-backend/pkg/clock"
	"github.com/shopspring/decimal"
)

// Pick warning levels, by days until the batch expires
const (
	WarningLevelCritical = "critical" // 30 days or less
	WarningLevelWarning  = "warning"  // 60 days or less
	WarningLevelCaution  = "caution"  // 90 days or less
	WarningLevelNone     = ""
)

// Pick is one batch-level allocation in a picking plan
type Pick struct {
	BatchID             string          `json:"batch_id"`
	BatchNumber         string          `json:"batch_number"`
	Quantity            decimal.Decimal `json:"quantity"`
	ExpirationDate      time.Time       `json:"expiration_date"`
	DaysUntilExpiration int             `json:"days_until_expiration"`
	WarningLevel        string          `json:"warning_level,omitempty"`
}

// AllocationPlan is the result of allocating a requested quantity
// across the available batches of an item
type AllocationPlan struct {
	ItemID    string          `json:"item_id"`
	Requested decimal.Decimal `json:"requested"`
	Allocated decimal.Decimal `json:"allocated"`
	// TotalAvailable is the usable stock across all eligible batches,
	// whether or not the plan needed it
	TotalAvailable decimal.Decimal `json:"total_available"`
	Shortfall      decimal.Decimal `json:"shortfall"`
	Picks          []Pick          `json:"picks"`
}

// Fulfilled reports whether the plan covers the full requested quantity
func (p *AllocationPlan) Fulfilled() bool {
	return p.Shortfall.IsZero()
}

// SortFEFO orders batches first-expired-first-out: expiration date
// ascending, then receipt date, then batch ID as the final tie-breaker
// so the order is total and deterministic.
func SortFEFO(batches []*repository.Batch) {
	sort.Slice(batches, func(i, j int) bool {
		a, b := batches[i], batches[j]
		if !a.ExpirationDate.Equal(b.ExpirationDate) {
			return a.ExpirationDate.Before(b.ExpirationDate)
		}
		if !a.ReceiptDate.Equal(b.ReceiptDate) {
			return a.ReceiptDate.Before(b.ReceiptDate)
		}
		return a.ID < b.ID
	})
}

// Allocate builds a picking plan for the requested quantity from the
// given batches. Only active batches with stock that have not expired
// as of now are eligible. Expiration is evaluated at date granularity:
// a batch expiring today is still usable.
//
// The returned plan drains earlier-expiring batches completely before
// touching later ones. When eligible stock cannot cover the request the
// plan carries the shortfall and callers decide whether a partial
// dispatch is acceptable.
func Allocate(itemID string, batches []*repository.Batch, requested decimal.Decimal, now time.Time) AllocationPlan {
	plan := AllocationPlan{
		ItemID:         itemID,
		Requested:      requested,
		Allocated:      decimal.Zero,
		TotalAvailable: decimal.Zero,
		Shortfall:      requested,
		Picks:          []Pick{},
	}

	eligible := make([]*repository.Batch, 0, len(batches))
	for _, b := range batches {
		if b.Status != repository.BatchStatusActive || b.Quantity.Sign() <= 0 {
			continue
		}
		if expired(b, now) {
			continue
		}
		eligible = append(eligible, b)
		plan.TotalAvailable = plan.TotalAvailable.Add(b.Quantity)
	}
	SortFEFO(eligible)

	if requested.Sign() <= 0 {
		plan.Shortfall = decimal.Zero
		return plan
	}

	remaining := requested
	for _, b := range eligible {
		if remaining.Sign() <= 0 {
			break
		}

		take := decimal.Min(remaining, b.Quantity)
		daysLeft := clock.DaysUntil(now, b.ExpirationDate)

		plan.Picks = append(plan.Picks, Pick{
			BatchID:             b.ID,
			BatchNumber:         b.BatchNumber,
			Quantity:            take,
			ExpirationDate:      b.ExpirationDate,
			DaysUntilExpiration: daysLeft,
			WarningLevel:        pickWarningLevel(daysLeft),
		})

		plan.Allocated = plan.Allocated.Add(take)
		remaining = remaining.Sub(take)
	}

	plan.Shortfall = requested.Sub(plan.Allocated)
	if plan.Shortfall.Sign() < 0 {
		plan.Shortfall = decimal.Zero
	}

	return plan
}

// expired reports whether the batch's expiration date has passed,
// compared at date granularity.
func expired(b *repository.Batch, now time.Time) bool {
	return clock.StartOfDay(b.ExpirationDate).Before(clock.StartOfDay(now))
}

func pickWarningLevel(daysLeft int) string {
	switch {
	case daysLeft <= 30:
		return WarningLevelCritical
	case daysLeft <= 60:
		return WarningLevelWarning
	case daysLeft <= 90:
		return WarningLevelCaution
	default:
		return WarningLevelNone
	}
}

// PickRequest is a manually chosen batch and quantity for dispatch
type PickRequest struct {
	BatchID  string          `json:"batch_id" validate:"required,uuid"`
	Quantity decimal.Decimal `json:"quantity" validate:"required"`
}

// PickIssue flags a problem or deviation in a manual pick list
type PickIssue struct {
	BatchID string `json:"batch_id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Pick issue codes
const (
	PickIssueFEFOOverride = "fefo_override"
)

// CheckFEFOOrder inspects a manual pick list against the available
// batches and reports every pick that draws from a batch while an
// earlier-expiring batch with stock is left untouched. These are
// warnings, not errors: operators may override FEFO deliberately for a
// customer that needs longer remaining shelf life.
func CheckFEFOOrder(picks []PickRequest, available []*repository.Batch) []PickIssue {
	byID := make(map[string]*repository.Batch, len(available))
	for _, b := range available {
		byID[b.ID] = b
	}

	picked := make(map[string]bool, len(picks))
	for _, p := range picks {
		picked[p.BatchID] = true
	}

	ordered := make([]*repository.Batch, len(available))
	copy(ordered, available)
	SortFEFO(ordered)

	var issues []PickIssue
	for _, p := range picks {
		b, ok := byID[p.BatchID]
		if !ok {
			continue
		}

		for _, earlier := range ordered {
			if earlier.ID == b.ID {
				break
			}
			if picked[earlier.ID] {
				continue
			}
			if earlier.ExpirationDate.Before(b.ExpirationDate) && earlier.Quantity.Sign() > 0 {
				issues = append(issues, PickIssue{
					BatchID: p.BatchID,
					Code:    PickIssueFEFOOverride,
					Message: fmt.Sprintf("batch %s expires later than unpicked batch %s", b.BatchNumber, earlier.BatchNumber),
				})
				break
			}
		}
	}

	return issues
}
