package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linoprint/inkstock-backend/internal/inventory/repository"
	"github.com/linoprint/inkstock-backend/pkg/httputil"
	"github.com/linoprint/inkstock-backend/pkg/logger"
)

// CustomerHandler handles customer endpoints
type CustomerHandler struct {
	customerRepo *repository.CustomerRepository
	logger       *logger.Logger
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customerRepo *repository.CustomerRepository, log *logger.Logger) *CustomerHandler {
	return &CustomerHandler{
		customerRepo: customerRepo,
		logger:       log,
	}
}

// List lists customers
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("include_inactive") == "true"

	customers, err := h.customerRepo.List(r.Context(), includeInactive)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, customers)
}

// Get gets a customer by ID
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	customer, err := h.customerRepo.GetByID(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, customer)
}

// Create creates a new customer
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name         string  `json:"name" validate:"required"`
		ContactName  *string `json:"contact_name"`
		ContactEmail *string `json:"contact_email" validate:"omitempty,email"`
		ContactPhone *string `json:"contact_phone"`
		Address      *string `json:"address"`
	}
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&payload); err != nil {
		httputil.Error(w, err)
		return
	}

	customer := repository.Customer{
		Name:         payload.Name,
		ContactName:  payload.ContactName,
		ContactEmail: payload.ContactEmail,
		ContactPhone: payload.ContactPhone,
		Address:      payload.Address,
		IsActive:     true,
	}
	if err := h.customerRepo.Create(r.Context(), &customer); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, customer)
}

// Update updates a customer
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	customer, err := h.customerRepo.GetByID(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.DecodeJSON(r, customer); err != nil {
		httputil.Error(w, err)
		return
	}

	customer.ID = id
	if err := h.customerRepo.Update(r.Context(), customer); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, customer)
}
