package handler

import (
	"net/http"

	"github.com/linoprint/inkstock-backend/internal/inventory/service"
	"github.com/linoprint/inkstock-backend/pkg/httputil"
	"github.com/linoprint/inkstock-backend/pkg/logger"
)

// PickingHandler handles picking suggestion and dispatch endpoints
type PickingHandler struct {
	dispatch *service.DispatchService
	logger   *logger.Logger
}

// NewPickingHandler creates a new picking handler
func NewPickingHandler(dispatch *service.DispatchService, log *logger.Logger) *PickingHandler {
	return &PickingHandler{
		dispatch: dispatch,
		logger:   log,
	}
}

type suggestPayload struct {
	ItemID   string `json:"item_id" validate:"required,uuid"`
	Quantity string `json:"quantity" validate:"required"`
}

// Suggest returns a first-expired-first-out picking plan without
// committing anything
func (h *PickingHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	var payload suggestPayload
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&payload); err != nil {
		httputil.Error(w, err)
		return
	}

	quantity, err := parseDecimal(payload.Quantity, "quantity")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	plan, err := h.dispatch.Suggest(r.Context(), payload.ItemID, quantity)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, plan)
}

type dispatchPickPayload struct {
	BatchID  string `json:"batch_id" validate:"required,uuid"`
	Quantity string `json:"quantity" validate:"required"`
}

type dispatchPayload struct {
	ItemID       string                `json:"item_id" validate:"required,uuid"`
	Quantity     string                `json:"quantity"`
	Picks        []dispatchPickPayload `json:"picks" validate:"omitempty,dive"`
	CustomerID   *string               `json:"customer_id" validate:"omitempty,uuid"`
	Reference    *string               `json:"reference"`
	Notes        *string               `json:"notes"`
	AllowPartial bool                  `json:"allow_partial"`
	AllowExpired bool                  `json:"allow_expired"`
}

// Dispatch commits an outbound stock movement
func (h *PickingHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	var payload dispatchPayload
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&payload); err != nil {
		httputil.Error(w, err)
		return
	}

	quantity, err := parseDecimal(payload.Quantity, "quantity")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	req := service.DispatchRequest{
		ItemID:       payload.ItemID,
		Quantity:     quantity,
		CustomerID:   payload.CustomerID,
		Reference:    payload.Reference,
		Notes:        payload.Notes,
		AllowPartial: payload.AllowPartial,
		AllowExpired: payload.AllowExpired,
	}

	for _, p := range payload.Picks {
		pickQty, err := parseDecimal(p.Quantity, "picks.quantity")
		if err != nil {
			httputil.Error(w, err)
			return
		}
		req.Picks = append(req.Picks, service.PickRequest{
			BatchID:  p.BatchID,
			Quantity: pickQty,
		})
	}

	result, err := h.dispatch.Dispatch(r.Context(), req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}
