package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/linoprint/inkstock-backend/internal/inventory/repository"
	"github.com/linoprint/inkstock-backend/internal/inventory/service"
	"github.com/linoprint/inkstock-backend/pkg/httputil"
	"github.com/linoprint/inkstock-backend/pkg/logger"
)

// AlertHandler handles alert endpoints
type AlertHandler struct {
	alertRepo *repository.AlertRepository
	scanner   *service.AlertScanner
	logger    *logger.Logger
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(alertRepo *repository.AlertRepository, scanner *service.AlertScanner, log *logger.Logger) *AlertHandler {
	return &AlertHandler{
		alertRepo: alertRepo,
		scanner:   scanner,
		logger:    log,
	}
}

// List lists alerts filtered by query parameters
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := repository.AlertFilter{
		AlertType:     q.Get("type"),
		Severity:      q.Get("severity"),
		UnreadOnly:    q.Get("unread") == "true",
		IncludeHidden: q.Get("include_dismissed") == "true",
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

	alerts, err := h.alertRepo.List(r.Context(), filter)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, alerts)
}

// UnreadCount returns the number of unread alerts
func (h *AlertHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.alertRepo.UnreadCount(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]int{"unread": count})
}

// MarkRead marks an alert as read
func (h *AlertHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.alertRepo.MarkRead(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// MarkAllRead marks every unread alert as read
func (h *AlertHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	count, err := h.alertRepo.MarkAllRead(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]int64{"marked": count})
}

// Dismiss hides an alert from the default listing
func (h *AlertHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.alertRepo.Dismiss(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// Scan triggers a full risk scan on demand
func (h *AlertHandler) Scan(w http.ResponseWriter, r *http.Request) {
	if err := h.scanner.ScanAll(r.Context()); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]string{"status": "completed"})
}
