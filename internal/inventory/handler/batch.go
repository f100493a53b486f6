package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linoprint/inkstock-backend/internal/inventory/repository"
	"github.com/linoprint/inkstock-backend/internal/inventory/service"
	"github.com/linoprint/inkstock-backend/pkg/httputil"
	"github.com/linoprint/inkstock-backend/pkg/logger"
)

// BatchHandler handles batch endpoints
type BatchHandler struct {
	batchRepo *repository.BatchRepository
	stock     *service.StockService
	logger    *logger.Logger
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(batchRepo *repository.BatchRepository, stock *service.StockService, log *logger.Logger) *BatchHandler {
	return &BatchHandler{
		batchRepo: batchRepo,
		stock:     stock,
		logger:    log,
	}
}

// ListByItem lists batches for an item
func (h *BatchHandler) ListByItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "id")

	batches, err := h.batchRepo.ListByItem(r.Context(), itemID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, batches)
}

// Get gets a batch by ID
func (h *BatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	batch, err := h.batchRepo.GetByID(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, batch)
}

// Adjust corrects a batch quantity after a physical count
func (h *BatchHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "id")

	var payload struct {
		NewQuantity string `json:"new_quantity" validate:"required"`
		Reason      string `json:"reason" validate:"required"`
	}
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&payload); err != nil {
		httputil.Error(w, err)
		return
	}

	newQty, err := parseDecimal(payload.NewQuantity, "new_quantity")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	batch, err := h.stock.AdjustQuantity(r.Context(), service.AdjustRequest{
		BatchID:     batchID,
		NewQuantity: newQty,
		Reason:      payload.Reason,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, batch)
}

// Scrap writes off the remaining quantity of a batch
func (h *BatchHandler) Scrap(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "id")

	var payload struct {
		Reason string `json:"reason" validate:"required"`
	}
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&payload); err != nil {
		httputil.Error(w, err)
		return
	}

	batch, err := h.stock.ScrapBatch(r.Context(), service.ScrapRequest{
		BatchID: batchID,
		Reason:  payload.Reason,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, batch)
}
