package handler

import (
	"net/http"

	"github.com/linoprint/inkstock-backend/internal/inventory/service"
	"github.com/linoprint/inkstock-backend/pkg/httputil"
	"github.com/linoprint/inkstock-backend/pkg/logger"
)

// DashboardHandler handles the inventory overview endpoint
type DashboardHandler struct {
	stock  *service.StockService
	logger *logger.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(stock *service.StockService, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		stock:  stock,
		logger: log,
	}
}

// GetStats returns inventory health statistics
func (h *DashboardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stock.GetDashboardStats(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, stats)
}
