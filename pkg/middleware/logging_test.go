package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/logger"
)

func jsonLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestRequestLogging_GeneratesCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	var seen string
	h := RequestLogging(jsonLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.CorrelationIDFromContext(r.Context())
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("hello"))
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil))

	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, rr.Header().Get("X-Correlation-ID"))

	entry := lastEntry(t, &buf)
	assert.Equal(t, "http request", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, float64(http.StatusCreated), entry["status"])
	assert.Equal(t, float64(5), entry["bytes"])
	assert.Equal(t, "/api/v1/orders", entry["path"])
	assert.Equal(t, seen, entry["correlation_id"])
}

func TestRequestLogging_ReusesInboundID(t *testing.T) {
	for _, header := range []string{"X-Correlation-ID", "X-Request-ID"} {
		t.Run(header, func(t *testing.T) {
			var buf bytes.Buffer
			h := RequestLogging(jsonLogger(&buf))(okHandler())

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(header, "abc-123")
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, "abc-123", rr.Header().Get("X-Correlation-ID"))
			assert.Equal(t, "abc-123", lastEntry(t, &buf)["correlation_id"])
		})
	}
}

func TestRequestLogging_ServerErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	h := RequestLogging(jsonLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "ERROR", lastEntry(t, &buf)["level"])
}

func TestRequestLogger_StoresEnrichedLogger(t *testing.T) {
	var buf bytes.Buffer
	chain := RequestLogging(logger.Discard())(RequestLogger(jsonLogger(&buf))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.FromContext(r.Context()).Info("handler ran")
		}),
	))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", "corr-7")
	req.Header.Set("X-User-ID", "spoofed")
	chain.ServeHTTP(httptest.NewRecorder(), req)

	entry := lastEntry(t, &buf)
	assert.Equal(t, "handler ran", entry["msg"])
	assert.Equal(t, "corr-7", entry["correlation_id"])
	assert.NotContains(t, entry, "user_id")
}
