package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/linoprint/inkstock-backend/internal/inventory/repository"
	"github.com/linoprint/inkstock-backend/pkg/errors"
	"github.com/linoprint/inkstock-backend/pkg/httputil"
	"github.com/linoprint/inkstock-backend/pkg/logger"
)

// DeliveryNoteHandler handles delivery note endpoints
type DeliveryNoteHandler struct {
	noteRepo *repository.DeliveryNoteRepository
	logger   *logger.Logger
}

// NewDeliveryNoteHandler creates a new delivery note handler
func NewDeliveryNoteHandler(noteRepo *repository.DeliveryNoteRepository, log *logger.Logger) *DeliveryNoteHandler {
	return &DeliveryNoteHandler{
		noteRepo: noteRepo,
		logger:   log,
	}
}

// List lists delivery notes
func (h *DeliveryNoteHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 50
	offset := 0
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			offset = n
		}
	}

	notes, err := h.noteRepo.List(r.Context(), limit, offset)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, notes)
}

// Get gets a delivery note with its lines
func (h *DeliveryNoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	note, err := h.noteRepo.GetByID(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, note)
}

// UpdateStatus transitions a delivery note to a new status
func (h *DeliveryNoteHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var payload struct {
		Status string `json:"status" validate:"required,oneof=draft issued delivered invoiced cancelled"`
	}
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&payload); err != nil {
		httputil.Error(w, err)
		return
	}

	note, err := h.noteRepo.GetByID(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if note.Status == repository.DeliveryNoteStatusCancelled {
		httputil.Error(w, errors.Conflict("a cancelled delivery note cannot change status"))
		return
	}

	if err := h.noteRepo.UpdateStatus(r.Context(), id, payload.Status); err != nil {
		httputil.Error(w, err)
		return
	}

	note.Status = payload.Status
	httputil.JSON(w, http.StatusOK, note)
}
