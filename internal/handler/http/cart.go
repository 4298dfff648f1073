package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/service"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/httputil"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: svc,
		logger:  logger,
	}
}

// GetCart handles GET /api/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	cart, err := h.service.GetCart(r.Context(), uid)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, cart, "")
}

// AddItem handles POST /api/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req service.AddItemInput
	if !decodeBody(w, r, &req) {
		return
	}

	cart, err := h.service.AddItem(r.Context(), uid, req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, cart, "Item added to cart")
}

// UpdateItemQuantity handles PUT /api/cart/items/{itemId}
func (h *CartHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	itemID, ok := httputil.ParseID(w, chi.URLParam(r, "itemId"))
	if !ok {
		return
	}

	var req service.UpdateQuantityInput
	if !decodeBody(w, r, &req) {
		return
	}

	cart, err := h.service.UpdateItemQuantity(r.Context(), uid, itemID, req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, cart, "Cart item updated")
}

// RemoveItem handles DELETE /api/cart/items/{itemId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	itemID, ok := httputil.ParseID(w, chi.URLParam(r, "itemId"))
	if !ok {
		return
	}

	cart, err := h.service.RemoveItem(r.Context(), uid, itemID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, cart, "Cart item removed")
}

// ApplyCoupon handles POST /api/cart/apply-coupon
func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req service.ApplyCouponInput
	if !decodeBody(w, r, &req) {
		return
	}

	cart, err := h.service.ApplyCoupon(r.Context(), uid, req.Code)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, cart, "Coupon applied")
}

// RemoveCoupon handles POST /api/cart/remove-coupon
func (h *CartHandler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	cart, err := h.service.RemoveCoupon(r.Context(), uid)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, cart, "Coupon removed")
}

// ClearCart handles DELETE /api/cart/clear
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	if err := h.service.Clear(r.Context(), uid); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, nil, "Cart cleared")
}
