package http

import (
	"log/slog"
	"net/http"

	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/service"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/httputil"
)

// PaymentHandler handles the payment gateway callbacks. Requests reach it
// only after webhook signature verification.
type PaymentHandler struct {
	service *service.OrderService
	logger  *slog.Logger
}

// NewPaymentHandler creates a new payment callback handler.
func NewPaymentHandler(svc *service.OrderService, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: svc,
		logger:  logger,
	}
}

// PaymentSuccess handles POST /api/payment/success
func (h *PaymentHandler) PaymentSuccess(w http.ResponseWriter, r *http.Request) {
	var req service.PaymentCallbackInput
	if !decodeBody(w, r, &req) {
		return
	}

	order, err := h.service.HandlePaymentSuccess(r.Context(), req.TranID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, order, "Payment successful")
}

// PaymentFail handles POST /api/payment/fail
func (h *PaymentHandler) PaymentFail(w http.ResponseWriter, r *http.Request) {
	var req service.PaymentCallbackInput
	if !decodeBody(w, r, &req) {
		return
	}

	order, err := h.service.HandlePaymentFail(r.Context(), req.TranID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, order, "Payment failed")
}
