package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/service"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/httputil"
)

// CouponHandler handles HTTP requests for coupon endpoints.
type CouponHandler struct {
	service *service.CouponService
	logger  *slog.Logger
}

// NewCouponHandler creates a new coupon HTTP handler.
func NewCouponHandler(svc *service.CouponService, logger *slog.Logger) *CouponHandler {
	return &CouponHandler{
		service: svc,
		logger:  logger,
	}
}

// ValidateCoupon handles GET /api/coupons/validate?code=
func (h *CouponHandler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	coupon, err := h.service.Validate(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, coupon, "")
}

// GetCoupon handles GET /api/coupons/{id}
func (h *CouponHandler) GetCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	coupon, err := h.service.GetCoupon(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, coupon, "")
}

// ListCoupons handles GET /api/admin/coupons
func (h *CouponHandler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.service.ListCoupons(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, coupons, "")
}

// CreateCoupon handles POST /api/admin/coupons
func (h *CouponHandler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req service.CreateCouponInput
	if !decodeBody(w, r, &req) {
		return
	}

	coupon, err := h.service.CreateCoupon(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, coupon, "")
}

// UpdateCoupon handles PUT /api/admin/coupons/{id}
func (h *CouponHandler) UpdateCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req service.UpdateCouponInput
	if !decodeBody(w, r, &req) {
		return
	}

	coupon, err := h.service.UpdateCoupon(r.Context(), id, req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, coupon, "")
}

// DeleteCoupon handles DELETE /api/admin/coupons/{id}
func (h *CouponHandler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteCoupon(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, nil, "Coupon deleted successfully")
}
