package webhook

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"

	apperrors "github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/errors"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/httputil"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/logger"
)

const maxBodyBytes = 1 << 20

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	if rw.statusCode == 0 {
		rw.statusCode = code
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	if rw.statusCode == 0 {
		rw.statusCode = http.StatusOK
	}
	return rw.ResponseWriter.Write(b)
}

func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Verify rejects callbacks whose signature or timestamp do not check out
// with 401 and replayed deliveries with 409. The body is restored for the
// next handler. A delivery stays claimed only when the handler answers 2xx,
// so the gateway can retry one that failed. A failing replay store is logged
// and the request proceeds.
func Verify(v *Verifier, guard ReplayGuard, fallback *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
			if err != nil {
				httputil.WriteError(w, r, apperrors.InvalidInput("unable to read request body"), fallback)
				return
			}
			_ = r.Body.Close()

			timestamp := r.Header.Get(TimestampHeader)
			l := logger.WithContext(r.Context(), fallback)

			if err := v.Verify(body, r.Header.Get(SignatureHeader), timestamp); err != nil {
				l.WarnContext(r.Context(), "webhook rejected",
					slog.String("path", r.URL.Path),
					slog.String("reason", err.Error()),
				)
				httputil.WriteError(w, r, apperrors.Unauthorized("invalid webhook signature"), fallback)
				return
			}

			key := v.ReplayKey(body, timestamp)
			first, err := guard.Claim(r.Context(), key)
			claimed := err == nil
			switch {
			case err != nil:
				l.WarnContext(r.Context(), "webhook replay check failed, processing anyway",
					slog.String("error", err.Error()),
				)
			case !first:
				l.WarnContext(r.Context(), "webhook replay rejected",
					slog.String("path", r.URL.Path),
				)
				httputil.WriteError(w, r, apperrors.Conflict("webhook already processed"), fallback)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			if claimed && rec.statusCode != 0 && (rec.statusCode < 200 || rec.statusCode > 299) {
				if err := guard.Release(r.Context(), key); err != nil {
					l.WarnContext(r.Context(), "failed to release webhook key after unsuccessful delivery",
						slog.String("error", err.Error()),
					)
				}
			}
		})
	}
}
