package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/domain"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/repository"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/service"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/httputil"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/pagination"
)

// OrderHandler handles HTTP requests for user and admin order endpoints.
type OrderHandler struct {
	service *service.OrderService
	logger  *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(svc *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		service: svc,
		logger:  logger,
	}
}

// CreateOrder handles POST /api/orders
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req service.CreateOrderInput
	if !decodeBody(w, r, &req) {
		return
	}

	order, err := h.service.CreateOrder(r.Context(), uid, req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, order, "Order placed")
}

// ListOrders handles GET /api/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	params := pagination.FromRequest(r)
	orders, total, err := h.service.ListOrders(r.Context(), uid, repository.OrderFilter{Page: params})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, pagination.NewResult(orders, total, params), "")
}

// GetOrder handles GET /api/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	order, err := h.service.GetOrder(r.Context(), id, uid)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, order, "")
}

// CancelOrder handles PUT /api/orders/{id}/cancel
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	order, err := h.service.CancelOrder(r.Context(), id, uid)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, order, "Order cancelled")
}

// InitiatePayment handles POST /api/orders/{id}/pay
func (h *OrderHandler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	session, err := h.service.InitiatePayment(r.Context(), id, uid)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, session, "")
}

// RequestReturn handles POST /api/orders/{id}/return-request. The body is
// optional.
func (h *OrderHandler) RequestReturn(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req service.ReturnRequestInput
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}

	order, err := h.service.RequestReturn(r.Context(), id, uid, req.Reason)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, order, "Return requested")
}

// AdminListOrders handles GET /api/admin/orders?status=
func (h *OrderHandler) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	status := r.URL.Query().Get("status")
	if status != "" && !domain.IsValidOrderStatus(status) {
		httputil.WriteFailure(w, http.StatusBadRequest, &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "invalid status filter: " + status})
		return
	}

	orders, total, err := h.service.AdminListOrders(r.Context(), repository.OrderFilter{
		Status: status,
		Page:   params,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, pagination.NewResult(orders, total, params), "")
}

// AdminUpdateStatus handles PUT /api/admin/orders/{id}/status
func (h *OrderHandler) AdminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req service.UpdateStatusInput
	if !decodeBody(w, r, &req) {
		return
	}

	order, err := h.service.AdminUpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, order, "Order status updated")
}

// AdminApproveCancellation handles PUT /api/admin/orders/{id}/cancel
func (h *OrderHandler) AdminApproveCancellation(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	order, err := h.service.AdminApproveCancellation(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, order, "Order cancellation approved")
}
