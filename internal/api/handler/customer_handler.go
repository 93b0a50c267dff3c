package handler

import (
	"customer-service/internal/api/handler/dto"
	mw "customer-service/internal/api/middleware"
	"customer-service/internal/config"
	"customer-service/internal/domain/customer"
	"customer-service/internal/pkg/apperrors"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type CustomerHandler struct {
	service           customer.CustomerService
	notFoundAsPayload bool
	logger            *slog.Logger
}

func NewCustomerHandler(s customer.CustomerService, cfg config.APIConfig, l *slog.Logger) *CustomerHandler {
	if s == nil {
		panic("customer service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &CustomerHandler{
		service:           s,
		notFoundAsPayload: cfg.NotFoundAsPayload,
		logger:            l.With("component", "CustomerHandler"),
	}
}

// actorLogger tags l with the authenticated username, if any.
func actorLogger(r *http.Request, l *slog.Logger) *slog.Logger {
	if username, ok := mw.UsernameFromContext(r.Context()); ok {
		return l.With(slog.String("username", username))
	}
	return l
}

func getCustomerIDFromURL(r *http.Request) (int64, error) {
	idStr := chi.URLParam(r, "customerID")
	if idStr == "" {
		return 0, fmt.Errorf("%w: customerID not found in URL path", apperrors.ErrInvalidArgument)
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid customerID format in URL path: %s", apperrors.ErrInvalidArgument, idStr)
	}
	return id, nil
}

func (h *CustomerHandler) decodeCustomerRequest(r *http.Request) (*customer.Customer, error) {
	var req dto.CustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err)
	}
	if err := req.Validate(); err != nil {
		h.logger.WarnContext(r.Context(), "Request validation failed", slog.Any("error", err))
		return nil, err
	}
	return req.ToDomain(), nil
}

// respondServiceError writes err from the service layer. A missing customer is
// answered either as a 404 error body or, for legacy clients, as a 200 with
// the bare not-found message.
func (h *CustomerHandler) respondServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	var notFound *customer.NotFoundError
	if errors.As(err, &notFound) {
		h.logger.WarnContext(r.Context(), msg, slog.Any("error", err))
		if h.notFoundAsPayload {
			respondText(w, http.StatusOK, notFound.Error())
			return
		}
		respondError(w, err)
		return
	}

	level := slog.LevelError
	if apperrors.IsClientError(err) {
		level = slog.LevelWarn
	}
	h.logger.Log(r.Context(), level, msg, slog.Any("error", err))
	respondError(w, err)
}

// CreateCustomer handles POST /api/customer/
// @Summary Create a new customer
// @Description Stores a new customer across both customer tables and returns the generated id. Any id in the body is ignored.
// @Tags Customers
// @Accept json
// @Produce json
// @Param request body dto.CustomerRequest true "Customer payload"
// @Success 200 {integer} int64 "Generated customer id"
// @Failure 400 {object} dto.ErrorResponse "Malformed payload or value too long"
// @Failure 500 {object} dto.ErrorResponse "Internal server error during creation"
// @Router /api/customer/ [post]
// @Security BearerAuth
func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	h.logger.DebugContext(r.Context(), "Received create customer request")

	cust, err := h.decodeCustomerRequest(r)
	if err != nil {
		respondError(w, err)
		return
	}

	id, err := h.service.CreateCustomer(r.Context(), cust)
	if err != nil {
		h.respondServiceError(w, r, "Service failed to create customer", err)
		return
	}

	actorLogger(r, h.logger).InfoContext(r.Context(), "Customer created successfully", slog.Int64("customerID", id))
	respondJSON(w, http.StatusOK, id)
}

// ListCustomers handles GET /api/customer/customers
// @Summary List customers
// @Description Retrieves every stored customer ordered by id.
// @Tags Customers
// @Produce json
// @Success 200 {array} dto.CustomerResponse "List of customers"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/customer/customers [get]
// @Security BearerAuth
func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	h.logger.DebugContext(r.Context(), "Received list customers request")

	customers, err := h.service.ListCustomers(r.Context())
	if err != nil {
		h.respondServiceError(w, r, "Service failed to list customers", err)
		return
	}

	h.logger.InfoContext(r.Context(), "Customers listed successfully", slog.Int("count", len(customers)))
	respondJSON(w, http.StatusOK, dto.NewCustomerListResponse(customers))
}

// GetCustomer handles GET /api/customer/{customerID}
// @Summary Retrieve customer details
// @Description Retrieves a single customer by id.
// @Tags Customers
// @Produce json
// @Param customerID path int true "Customer ID" Minimum(1)
// @Success 200 {object} dto.CustomerResponse "Customer details retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid customer ID format"
// @Failure 404 {object} dto.ErrorResponse "No customer found with id"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/customer/{customerID} [get]
// @Security BearerAuth
func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := getCustomerIDFromURL(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to get customer ID from URL", slog.Any("error", err))
		respondError(w, err)
		return
	}

	found, err := h.service.GetCustomer(r.Context(), customerID)
	if err != nil {
		h.respondServiceError(w, r, "Service failed to get customer", err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewCustomerResponse(found))
}

// UpdateCustomer handles PUT /api/customer/update/{customerID}
// @Summary Replace a customer
// @Description Overwrites every field of an existing customer. Fields missing from the body are cleared.
// @Tags Customers
// @Accept json
// @Produce json
// @Param customerID path int true "Customer ID" Minimum(1)
// @Param request body dto.CustomerRequest true "Customer payload"
// @Success 200 {object} dto.CustomerResponse "Stored customer"
// @Failure 400 {object} dto.ErrorResponse "Invalid customer ID or payload"
// @Failure 404 {object} dto.ErrorResponse "No customer found with id"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/customer/update/{customerID} [put]
// @Security BearerAuth
func (h *CustomerHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := getCustomerIDFromURL(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to get customer ID from URL", slog.Any("error", err))
		respondError(w, err)
		return
	}
	logCtx := actorLogger(r, h.logger).With(slog.Int64("customerID", customerID))
	logCtx.DebugContext(r.Context(), "Received update customer request")

	cust, err := h.decodeCustomerRequest(r)
	if err != nil {
		respondError(w, err)
		return
	}

	updated, err := h.service.UpdateCustomer(r.Context(), customerID, cust)
	if err != nil {
		h.respondServiceError(w, r, "Service failed to update customer", err)
		return
	}

	logCtx.InfoContext(r.Context(), "Customer updated successfully")
	respondJSON(w, http.StatusOK, dto.NewCustomerResponse(updated))
}

// DeleteCustomer handles DELETE /api/customer/delete/{customerID}
// @Summary Delete a customer
// @Description Removes a customer from both tables and returns the record as it was just before deletion.
// @Tags Customers
// @Produce json
// @Param customerID path int true "Customer ID" Minimum(1)
// @Success 200 {object} dto.CustomerResponse "Deleted customer"
// @Failure 400 {object} dto.ErrorResponse "Invalid customer ID format"
// @Failure 404 {object} dto.ErrorResponse "No customer found with id"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/customer/delete/{customerID} [delete]
// @Security BearerAuth
func (h *CustomerHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := getCustomerIDFromURL(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to get customer ID from URL", slog.Any("error", err))
		respondError(w, err)
		return
	}

	deleted, err := h.service.DeleteCustomer(r.Context(), customerID)
	if err != nil {
		h.respondServiceError(w, r, "Service failed to delete customer", err)
		return
	}

	actorLogger(r, h.logger).InfoContext(r.Context(), "Customer deleted successfully", slog.Int64("customerID", customerID))
	respondJSON(w, http.StatusOK, dto.NewCustomerResponse(deleted))
}
