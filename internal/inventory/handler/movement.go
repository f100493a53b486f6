package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/linoprint/inkstock-backend/internal/inventory/repository"
	"github.com/linoprint/inkstock-backend/internal/inventory/service"
	"github.com/linoprint/inkstock-backend/pkg/httputil"
	"github.com/linoprint/inkstock-backend/pkg/logger"
)

// MovementHandler handles movement history endpoints
type MovementHandler struct {
	stock  *service.StockService
	logger *logger.Logger
}

// NewMovementHandler creates a new movement handler
func NewMovementHandler(stock *service.StockService, log *logger.Logger) *MovementHandler {
	return &MovementHandler{
		stock:  stock,
		logger: log,
	}
}

// List lists movements filtered by query parameters
func (h *MovementHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := repository.MovementFilter{
		ItemID:       q.Get("item_id"),
		BatchID:      q.Get("batch_id"),
		MovementType: q.Get("type"),
	}

	if from := q.Get("from"); from != "" {
		t, err := parseDate(from, "from")
		if err != nil {
			httputil.Error(w, err)
			return
		}
		filter.From = &t
	}
	if to := q.Get("to"); to != "" {
		t, err := parseDate(to, "to")
		if err != nil {
			httputil.Error(w, err)
			return
		}
		// Include the whole end day
		end := t.Add(24*time.Hour - time.Nanosecond)
		filter.To = &end
	}
	if limit := q.Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			filter.Limit = n
		}
	}
	if offset := q.Get("offset"); offset != "" {
		if n, err := strconv.Atoi(offset); err == nil {
			filter.Offset = n
		}
	}

	movements, err := h.stock.Movements(r.Context(), filter)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, movements)
}
