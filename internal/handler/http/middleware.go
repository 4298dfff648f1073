package http

import (
	"net/http"
	"strings"

	"github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/httputil"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/logger"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/middleware"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/validator"
)

// maxBodyBytes limits request bodies to 1MB.
const maxBodyBytes = 1 << 20

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteFailure(w, http.StatusUnsupportedMediaType, &httputil.ErrorResponse{
					Code:      "UNSUPPORTED_MEDIA_TYPE",
					Message:   "Content-Type must be application/json",
					RequestID: logger.CorrelationIDFromContext(r.Context()),
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// userID returns the authenticated caller. Routes that use it are mounted
// behind middleware.Auth, so a missing id means the router is miswired.
func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := middleware.UserIDFromContext(r.Context())
	if id == "" {
		httputil.WriteFailure(w, http.StatusUnauthorized, &httputil.ErrorResponse{
			Code:      "UNAUTHORIZED",
			Message:   "authentication required",
			RequestID: logger.CorrelationIDFromContext(r.Context()),
		})
		return "", false
	}
	return id, true
}

// decodeBody decodes and validates the JSON body into dst, writing a 400
// response on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := validator.DecodeAndValidate(r, dst); err != nil {
		httputil.WriteValidationError(w, r, err)
		return false
	}
	return true
}
