package handler

import (
	"net/http"
	"time"

	"github.com/linoprint/inkstock-backend/internal/inventory/service"
	"github.com/linoprint/inkstock-backend/pkg/errors"
	"github.com/linoprint/inkstock-backend/pkg/httputil"
	"github.com/linoprint/inkstock-backend/pkg/logger"
)

// ReceivingHandler handles goods receipt endpoints
type ReceivingHandler struct {
	receiving *service.ReceivingService
	logger    *logger.Logger
}

// NewReceivingHandler creates a new receiving handler
func NewReceivingHandler(receiving *service.ReceivingService, log *logger.Logger) *ReceivingHandler {
	return &ReceivingHandler{
		receiving: receiving,
		logger:    log,
	}
}

type receiveLinePayload struct {
	ItemID         string  `json:"item_id" validate:"required,uuid"`
	Quantity       string  `json:"quantity" validate:"required"`
	ExpirationDate string  `json:"expiration_date" validate:"required"`
	BatchNumber    *string `json:"batch_number"`
	SupplierRef    *string `json:"supplier_ref"`
	Notes          *string `json:"notes"`
}

type receivePayload struct {
	Lines       []receiveLinePayload `json:"lines" validate:"required,min=1,dive"`
	ReceiptDate *string              `json:"receipt_date"`
}

// Receive books a goods receipt of one or more batches
func (h *ReceivingHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var payload receivePayload
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&payload); err != nil {
		httputil.Error(w, err)
		return
	}

	req := service.ReceiveRequest{
		Lines: make([]service.ReceiveLine, len(payload.Lines)),
	}

	if payload.ReceiptDate != nil {
		receiptDate, err := parseDate(*payload.ReceiptDate, "receipt_date")
		if err != nil {
			httputil.Error(w, err)
			return
		}
		req.ReceiptDate = &receiptDate
	}

	for i, line := range payload.Lines {
		quantity, err := parseDecimal(line.Quantity, "quantity")
		if err != nil {
			httputil.Error(w, err)
			return
		}
		expiration, err := parseDate(line.ExpirationDate, "expiration_date")
		if err != nil {
			httputil.Error(w, err)
			return
		}

		req.Lines[i] = service.ReceiveLine{
			ItemID:         line.ItemID,
			Quantity:       quantity,
			ExpirationDate: expiration,
			BatchNumber:    line.BatchNumber,
			SupplierRef:    line.SupplierRef,
			Notes:          line.Notes,
		}
	}

	result, err := h.receiving.Receive(r.Context(), req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, result)
}

// parseDate parses a YYYY-MM-DD date field
func parseDate(s, field string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, errors.Validation(map[string]string{
			field: "must be a date in YYYY-MM-DD format",
		})
	}
	return t, nil
}
