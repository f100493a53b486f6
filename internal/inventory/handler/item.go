package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linoprint/inkstock-backend/internal/inventory/repository"
	"github.com/linoprint/inkstock-backend/internal/inventory/service"
	"github.com/linoprint/inkstock-backend/pkg/errors"
	"github.com/linoprint/inkstock-backend/pkg/httputil"
	"github.com/linoprint/inkstock-backend/pkg/logger"
)

// ItemHandler handles item endpoints
type ItemHandler struct {
	itemRepo *repository.ItemRepository
	stock    *service.StockService
	logger   *logger.Logger
}

// NewItemHandler creates a new item handler
func NewItemHandler(itemRepo *repository.ItemRepository, stock *service.StockService, log *logger.Logger) *ItemHandler {
	return &ItemHandler{
		itemRepo: itemRepo,
		stock:    stock,
		logger:   log,
	}
}

// List lists items with their stock summaries
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.stock.ListItemStock(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, summaries)
}

// Get gets an item with its stock summary
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	summary, err := h.stock.GetItemStock(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, summary)
}

// Create creates a new item
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SKU           string  `json:"sku" validate:"required"`
		Name          string  `json:"name" validate:"required"`
		Supplier      *string `json:"supplier"`
		Unit          string  `json:"unit" validate:"required"`
		CostPerUnit   string  `json:"cost_per_unit"`
		ReorderPoint  string  `json:"reorder_point"`
		MinStock      string  `json:"min_stock"`
		MaxStock      string  `json:"max_stock"`
		ShelfLifeDays int     `json:"shelf_life_days"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	item := repository.Item{
		SKU:           req.SKU,
		Name:          req.Name,
		Supplier:      req.Supplier,
		Unit:          req.Unit,
		ShelfLifeDays: req.ShelfLifeDays,
		IsActive:      true,
	}

	var err error
	if item.CostPerUnit, err = parseDecimal(req.CostPerUnit, "cost_per_unit"); err != nil {
		httputil.Error(w, err)
		return
	}
	if item.ReorderPoint, err = parseDecimal(req.ReorderPoint, "reorder_point"); err != nil {
		httputil.Error(w, err)
		return
	}
	if item.MinStock, err = parseDecimal(req.MinStock, "min_stock"); err != nil {
		httputil.Error(w, err)
		return
	}
	if item.MaxStock, err = parseDecimal(req.MaxStock, "max_stock"); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.itemRepo.Create(r.Context(), &item); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, item)
}

// Update updates an item. The SKU is fixed at creation: a payload that
// tries to change it is rejected.
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	item, err := h.itemRepo.GetByID(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	sku := item.SKU

	if err := httputil.DecodeJSON(r, item); err != nil {
		httputil.Error(w, err)
		return
	}
	if item.SKU != sku {
		httputil.Error(w, errors.Validation(map[string]string{
			"sku": "cannot be changed after the item is created",
		}))
		return
	}

	item.ID = id
	if err := h.itemRepo.Update(r.Context(), item); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, item)
}

// Deactivate deactivates an item
func (h *ItemHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.itemRepo.Deactivate(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}
