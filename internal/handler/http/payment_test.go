package http

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/domain"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/webhook"
	apperrors "github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/errors"
)

// signedCallback builds a gateway callback signed with the test secret.
func signedCallback(t *testing.T, ts *testServer, path, body string) *http.Request {
	t.Helper()
	req := newRawRequest(t, ts, http.MethodPost, path, body)
	req.Header.Del("Authorization")
	req.Header.Set("Content-Type", "application/json")
	sig, stamp := ts.verifier.Sign([]byte(body), time.Now())
	req.Header.Set(webhook.SignatureHeader, sig)
	req.Header.Set(webhook.TimestampHeader, stamp)
	return req
}

func TestPaymentSuccess(t *testing.T) {
	ts := newTestServer(t)
	ts.orders.On("GetByID", mock.Anything, orderID).Return(sampleOrder(domain.OrderStatusPending), nil)
	ts.orders.On("UpdateState", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)

	rec := serve(ts, signedCallback(t, ts, "/api/payment/success", `{"tran_id":"`+orderID+`"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	var order domain.Order
	resp := decodeData(t, rec, &order)
	assert.Equal(t, "Payment successful", resp.Message)
	assert.Equal(t, domain.PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, domain.OrderStatusProcessing, order.OrderStatus)
}

func TestPaymentFail(t *testing.T) {
	ts := newTestServer(t)
	ts.orders.On("GetByID", mock.Anything, orderID).Return(sampleOrder(domain.OrderStatusPending), nil)
	ts.orders.On("UpdateState", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)

	rec := serve(ts, signedCallback(t, ts, "/api/payment/fail", `{"tran_id":"`+orderID+`"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	var order domain.Order
	resp := decodeData(t, rec, &order)
	assert.Equal(t, "Payment failed", resp.Message)
	assert.Equal(t, domain.PaymentStatusFailed, order.PaymentStatus)
	assert.Equal(t, domain.OrderStatusPending, order.OrderStatus)
}

func TestPaymentCallback_Unsigned(t *testing.T) {
	ts := newTestServer(t)

	req := newRawRequest(t, ts, http.MethodPost, "/api/payment/success", `{"tran_id":"`+orderID+`"}`)
	req.Header.Set("Content-Type", "application/json")
	rec := serve(ts, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	ts.orders.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestPaymentCallback_TamperedBody(t *testing.T) {
	ts := newTestServer(t)

	req := signedCallback(t, ts, "/api/payment/success", `{"tran_id":"`+orderID+`"}`)
	forged := newRawRequest(t, ts, http.MethodPost, "/api/payment/success", `{"tran_id":"someone-else"}`)
	forged.Header = req.Header.Clone()
	rec := serve(ts, forged)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	ts.orders.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestPaymentCallback_Replay(t *testing.T) {
	ts := newTestServer(t)
	ts.orders.On("GetByID", mock.Anything, orderID).Return(sampleOrder(domain.OrderStatusPending), nil).Once()
	ts.orders.On("UpdateState", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil).Once()

	body := `{"tran_id":"` + orderID + `"}`
	first := signedCallback(t, ts, "/api/payment/success", body)
	replay := newRawRequest(t, ts, http.MethodPost, "/api/payment/success", body)
	replay.Header = first.Header.Clone()

	require.Equal(t, http.StatusOK, serve(ts, first).Code)

	rec := serve(ts, replay)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "webhook already processed", decodeResponse(t, rec).Error.Message)
	ts.orders.AssertNumberOfCalls(t, "GetByID", 1)
}

func TestPaymentCallback_RetryAfterServerError(t *testing.T) {
	ts := newTestServer(t)
	ts.orders.On("GetByID", mock.Anything, orderID).Return(nil, errors.New("server selection timeout")).Once()
	ts.orders.On("GetByID", mock.Anything, orderID).Return(sampleOrder(domain.OrderStatusPending), nil).Once()
	ts.orders.On("UpdateState", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil).Once()

	body := `{"tran_id":"` + orderID + `"}`
	first := signedCallback(t, ts, "/api/payment/success", body)
	retry := newRawRequest(t, ts, http.MethodPost, "/api/payment/success", body)
	retry.Header = first.Header.Clone()
	again := newRawRequest(t, ts, http.MethodPost, "/api/payment/success", body)
	again.Header = first.Header.Clone()

	require.Equal(t, http.StatusInternalServerError, serve(ts, first).Code)
	require.Equal(t, http.StatusOK, serve(ts, retry).Code)
	assert.Equal(t, http.StatusConflict, serve(ts, again).Code)
	ts.orders.AssertNumberOfCalls(t, "GetByID", 2)
}

func TestPaymentCallback_UnknownOrder(t *testing.T) {
	ts := newTestServer(t)
	ts.orders.On("GetByID", mock.Anything, orderID).Return(nil, apperrors.NotFoundMsg("Order not found"))

	rec := serve(ts, signedCallback(t, ts, "/api/payment/success", `{"tran_id":"`+orderID+`"}`))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Order not found", decodeResponse(t, rec).Error.Message)
}

func TestPaymentCallback_MissingTranID(t *testing.T) {
	ts := newTestServer(t)

	rec := serve(ts, signedCallback(t, ts, "/api/payment/fail", `{}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeResponse(t, rec).Error.Code)
}
